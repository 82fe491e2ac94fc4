package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls int
	err   error
}

func (r *recorder) NotifyRegistration(context.Context, models.Event, models.Registration) error {
	r.calls++
	return r.err
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func festFixture() (models.Event, models.Registration) {
	seg := "S1"
	event := models.Event{ID: "F1", Title: "Spring Fest", Category: models.CategoryFest,
		Segments: []models.FestSegment{{ID: "S1", Name: "Hackathon"}}}
	reg := models.Registration{
		ID:            "r1",
		EventID:       "F1",
		SegmentID:     &seg,
		UserData:      models.UserData{{Key: "Team", Value: models.Text("Red")}, {Key: "Size", Value: models.Number(4)}},
		PaymentStatus: models.PaymentPending,
		PaymentMethod: "bkash",
		TransactionID: "TXN000042",
		Timestamp:     time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
	}
	return event, reg
}

func TestFormatRegistration(t *testing.T) {
	event, reg := festFixture()
	msg := FormatRegistration(event, reg)
	assert.Contains(t, msg, "**Event:** Spring Fest")
	assert.Contains(t, msg, "**Segment:** Hackathon")
	assert.Contains(t, msg, "**Team:** Red\n**Size:** 4")
	assert.Contains(t, msg, "**Payment:** pending via bkash (TXN000042)")

	reg.PaymentStatus = models.PaymentNone
	reg.SegmentID = nil
	msg = FormatRegistration(event, reg)
	assert.NotContains(t, msg, "Segment")
	assert.NotContains(t, msg, "Payment")
}

func TestMulti(t *testing.T) {
	ok := &recorder{}
	failing := &recorder{err: errors.New("boom")}
	event, reg := festFixture()

	err := Multi{ok, failing, ok}.NotifyRegistration(context.Background(), event, reg)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 2, ok.calls, "a failure does not stop the fan-out")
	assert.Equal(t, 1, failing.calls)

	assert.NoError(t, Multi{}.NotifyRegistration(context.Background(), event, reg))
	assert.NoError(t, Nop{}.NotifyRegistration(context.Background(), event, reg))
}

func TestDiscordNotifierRequiresSession(t *testing.T) {
	event, reg := festFixture()
	assert.Error(t, NewDiscordNotifier(nil, "123").NotifyRegistration(context.Background(), event, reg))
}

func TestAMQPNotifierPublishes(t *testing.T) {
	ch := &fakeChannel{}
	n := &AMQPNotifier{channel: ch, exchange: "registrations"}
	event, reg := festFixture()

	require.NoError(t, n.NotifyRegistration(context.Background(), event, reg))
	assert.Equal(t, "registrations", ch.exchange)
	assert.Equal(t, RoutingKeyRegistration, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "r1", ch.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "Spring Fest", body["event_title"])
	assert.Equal(t, "pending", body["payment_status"])
	registration := body["registration"].(map[string]any)
	assert.Equal(t, map[string]any{"Team": "Red", "Size": 4.0}, registration["user_data"])

	ch.err = errors.New("channel closed")
	assert.ErrorContains(t, n.NotifyRegistration(context.Background(), event, reg), "channel closed")
}
