package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	ExchangeKind           = "topic"
	RoutingKeyRegistration = "registration.created"
	publishTimeout         = 5 * time.Second
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RegistrationMessage is the body published for every new registration.
type RegistrationMessage struct {
	EventID       string               `json:"event_id"`
	EventTitle    string               `json:"event_title"`
	Registration  models.Registration  `json:"registration"`
	PaymentStatus models.PaymentStatus `json:"payment_status,omitempty"`
}

type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
}

// NewAMQPNotifier dials the broker and declares a durable topic exchange.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: ch, exchange: exchange}, nil
}

func (n *AMQPNotifier) NotifyRegistration(ctx context.Context, event models.Event, registration models.Registration) error {
	body, err := json.Marshal(RegistrationMessage{
		EventID:       event.ID,
		EventTitle:    event.Title,
		Registration:  registration,
		PaymentStatus: registration.PaymentStatus,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := n.channel.PublishWithContext(ctx,
		n.exchange,
		RoutingKeyRegistration,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    registration.ID,
			Timestamp:    registration.Timestamp,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.Debug().Str("exchange", n.exchange).Str("routing_key", RoutingKeyRegistration).
		Str("registration_id", registration.ID).Msg("published registration")
	return nil
}

func (n *AMQPNotifier) Close() {
	if ch, ok := n.channel.(*amqp.Channel); ok && ch != nil {
		ch.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
}
