package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/rs/zerolog/log"
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) NotifyRegistration(ctx context.Context, event models.Event, registration models.Registration) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, FormatRegistration(event, registration), discordgo.WithContext(ctx))
	if err != nil {
		log.Error().Err(err).Str("registration_id", registration.ID).Msg("failed to send discord message")
		return err
	}

	return nil
}

// FormatRegistration renders the channel message for a new registration.
func FormatRegistration(event models.Event, registration models.Registration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 **New Registration**\n**Event:** %s", event.Title)
	if s := event.Segment(registration.Segment()); s != nil {
		fmt.Fprintf(&b, "\n**Segment:** %s", s.Name)
	}
	for _, e := range registration.UserData {
		fmt.Fprintf(&b, "\n**%s:** %s", e.Key, e.Value.String())
	}
	if registration.PaymentStatus != models.PaymentNone {
		fmt.Fprintf(&b, "\n**Payment:** %s via %s (%s)",
			registration.PaymentStatus, registration.PaymentMethod, registration.TransactionID)
	}
	return b.String()
}
