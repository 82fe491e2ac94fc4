package payment

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/forms"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fee(v float64) *float64 { return &v }

func paidForm(t *testing.T) forms.Form {
	t.Helper()
	event := &models.Event{
		ID:       "E1",
		Category: models.CategoryWorkshop,
		Fee:      fee(100),
		Fields:   []models.FieldDefinition{{ID: "f1", Label: "Name", Type: models.FieldText, Required: true}},
	}
	form, err := forms.ResolveForm(event, "")
	require.NoError(t, err)
	return form
}

func freeSegmentForm(t *testing.T) forms.Form {
	t.Helper()
	event := &models.Event{
		ID:       "F1",
		Category: models.CategoryFest,
		Segments: []models.FestSegment{{
			ID:     "S1",
			Fee:    fee(0),
			Fields: []models.FieldDefinition{{ID: "g1", Label: "Team", Type: models.FieldText, Required: true}},
		}},
	}
	form, err := forms.ResolveForm(event, "S1")
	require.NoError(t, err)
	return form
}

type recorder struct {
	stored []*models.Registration
	err    error
}

func (r *recorder) persist(ctx context.Context, reg *models.Registration) error {
	if r.err != nil {
		return r.err
	}
	r.stored = append(r.stored, reg)
	return nil
}

func TestPaidRegistration(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w := New(paidForm(t), WithClock(func() time.Time { return fixed }))
	rec := &recorder{}

	n, err := w.Review(map[string]models.Value{"f1": models.Text("Alice")})
	require.NoError(t, err)
	assert.Equal(t, Reviewing, w.State())
	assert.Equal(t, []string{"Name"}, n.UserData.Keys())

	next, err := w.Proceed()
	require.NoError(t, err)
	assert.Equal(t, AwaitingTransactionID, next)

	_, err = w.Submit(context.Background(), rec.persist)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cannot submit before payment is confirmed")
	assert.Empty(t, rec.stored)

	require.NoError(t, w.ConfirmPayment("TXN42", ""))
	reg, err := w.Submit(context.Background(), rec.persist)
	require.NoError(t, err)

	assert.Equal(t, Submitted, w.State())
	require.Len(t, rec.stored, 1)
	assert.Equal(t, "E1", reg.EventID)
	assert.Nil(t, reg.SegmentID)
	assert.Equal(t, models.UserData{{Key: "Name", Value: models.Text("Alice")}}, reg.UserData)
	assert.Equal(t, models.PaymentPending, reg.PaymentStatus)
	assert.Equal(t, DefaultMethod, reg.PaymentMethod)
	assert.Equal(t, "TXN42", reg.TransactionID)
	assert.Equal(t, fixed, reg.Timestamp)
}

func TestFreeSegmentRegistration(t *testing.T) {
	w := New(freeSegmentForm(t))
	rec := &recorder{}

	_, err := w.Review(map[string]models.Value{"segment_g1": models.Text("Red")})
	require.NoError(t, err)
	next, err := w.Proceed()
	require.NoError(t, err)
	assert.Equal(t, Submitting, next)

	assert.ErrorIs(t, w.ConfirmPayment("x", ""), ErrInvalidTransition)

	reg, err := w.Submit(context.Background(), rec.persist)
	require.NoError(t, err)
	require.NotNil(t, reg.SegmentID)
	assert.Equal(t, "S1", *reg.SegmentID)
	assert.Equal(t, models.PaymentNone, reg.PaymentStatus)
	assert.Empty(t, reg.TransactionID)
	assert.Equal(t, models.UserData{{Key: "Team", Value: models.Text("Red")}}, reg.UserData)
}

func TestClientPaymentStatusIgnored(t *testing.T) {
	w := New(paidForm(t))
	_, err := w.Review(map[string]models.Value{
		"f1":            models.Text("Mallory"),
		"paymentStatus": models.Text("completed"),
	})
	require.NoError(t, err)
	_, err = w.Proceed()
	require.NoError(t, err)
	require.NoError(t, w.ConfirmPayment("", "nagad"))

	reg, err := w.Registration()
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, reg.PaymentStatus)
	assert.Equal(t, "nagad", reg.PaymentMethod)
	assert.Regexp(t, regexp.MustCompile(`^TXN\d{6}$`), reg.TransactionID)
}

func TestValidationKeepsDrafting(t *testing.T) {
	w := New(paidForm(t))
	_, err := w.Review(map[string]models.Value{})
	var fe forms.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, Drafting, w.State())
}

func TestEditAndCancel(t *testing.T) {
	w := New(paidForm(t))
	raw := map[string]models.Value{"f1": models.Text("Alice")}

	_, err := w.Review(raw)
	require.NoError(t, err)
	require.NoError(t, w.Edit())
	assert.Equal(t, Drafting, w.State())
	assert.Equal(t, raw, w.Draft(), "editing keeps the answers")

	_, err = w.Review(raw)
	require.NoError(t, err)
	_, err = w.Proceed()
	require.NoError(t, err)
	require.NoError(t, w.Cancel())
	assert.Equal(t, Drafting, w.State())
	assert.Nil(t, w.Draft(), "cancelling discards the answers")

	assert.ErrorIs(t, w.Cancel(), ErrInvalidTransition)
	assert.ErrorIs(t, w.Edit(), ErrInvalidTransition)
}

func TestPersistFailureAllowsRetry(t *testing.T) {
	w := New(freeSegmentForm(t))
	rec := &recorder{err: errors.New("db down")}

	_, err := w.Review(map[string]models.Value{"segment_g1": models.Text("Blue")})
	require.NoError(t, err)
	_, err = w.Proceed()
	require.NoError(t, err)

	_, err = w.Submit(context.Background(), rec.persist)
	require.Error(t, err)
	assert.Equal(t, Submitting, w.State())

	rec.err = nil
	_, err = w.Submit(context.Background(), rec.persist)
	require.NoError(t, err)
	assert.Len(t, rec.stored, 1)

	_, err = w.Submit(context.Background(), rec.persist)
	assert.ErrorIs(t, err, ErrInvalidTransition, "submitted is terminal")

	w.Reset()
	assert.Equal(t, Drafting, w.State())
	assert.Nil(t, w.Result())
}
