// Package payment drives one registration from a filled-in form to a stored
// row, holding it for a transaction reference when the form carries a fee.
package payment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/forms"
	"github.com/gdg-garage/event-registration-api/internal/models"
)

type State int

const (
	Drafting State = iota
	Reviewing
	AwaitingTransactionID
	Submitting
	Submitted
)

func (s State) String() string {
	switch s {
	case Drafting:
		return "drafting"
	case Reviewing:
		return "reviewing"
	case AwaitingTransactionID:
		return "awaiting_transaction_id"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrInvalidTransition = errors.New("invalid workflow transition")

const DefaultMethod = "bkash"

// PersistFunc stores the finished registration.
type PersistFunc func(ctx context.Context, r *models.Registration) error

// Workflow is single-use per registration: after Submitted, Reset starts a
// fresh one. It is not safe for concurrent use.
type Workflow struct {
	form   forms.Form
	method string
	now    func() time.Time

	state      State
	raw        map[string]models.Value
	normalized forms.Normalized
	txID       string
	payMethod  string
	result     *models.Registration
}

type Option func(*Workflow)

// WithMethod sets the payment method recorded when none is supplied.
func WithMethod(method string) Option {
	return func(w *Workflow) {
		if method != "" {
			w.method = method
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func New(form forms.Form, opts ...Option) *Workflow {
	w := &Workflow{form: form, method: DefaultMethod, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) State() State { return w.state }

func (w *Workflow) Form() forms.Form { return w.form }

// Draft returns the answers currently held, for editing.
func (w *Workflow) Draft() map[string]models.Value { return w.raw }

// Normalized is the data shown for confirmation once in Reviewing.
func (w *Workflow) Normalized() forms.Normalized { return w.normalized }

func (w *Workflow) transition(from []State, to State) error {
	for _, s := range from {
		if w.state == s {
			w.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.state, to)
}

// Review validates the submission and, if it passes, moves to Reviewing.
// Validation failures keep the workflow in Drafting.
func (w *Workflow) Review(raw map[string]models.Value) (forms.Normalized, error) {
	if w.state != Drafting {
		return forms.Normalized{}, fmt.Errorf("%w: review from %s", ErrInvalidTransition, w.state)
	}
	w.raw = raw
	if err := forms.Validate(w.form, raw); err != nil {
		return forms.Normalized{}, err
	}
	w.normalized = forms.Normalize(w.form, raw)
	w.state = Reviewing
	return w.normalized, nil
}

// Edit returns to Drafting keeping the answers.
func (w *Workflow) Edit() error {
	return w.transition([]State{Reviewing}, Drafting)
}

// Proceed applies the fee gate.
func (w *Workflow) Proceed() (State, error) {
	next := Submitting
	if w.form.RequiresPayment() {
		next = AwaitingTransactionID
	}
	if err := w.transition([]State{Reviewing}, next); err != nil {
		return w.state, err
	}
	return next, nil
}

// ConfirmPayment records the transaction reference. A blank reference is
// replaced by a generated one.
func (w *Workflow) ConfirmPayment(transactionID, method string) error {
	if err := w.transition([]State{AwaitingTransactionID}, Submitting); err != nil {
		return err
	}
	w.txID = strings.TrimSpace(transactionID)
	if w.txID == "" {
		w.txID = SynthesizeTransactionID()
	}
	w.payMethod = method
	if w.payMethod == "" {
		w.payMethod = w.method
	}
	return nil
}

// Cancel abandons the registration and discards every answer.
func (w *Workflow) Cancel() error {
	if err := w.transition([]State{Reviewing, AwaitingTransactionID}, Drafting); err != nil {
		return err
	}
	w.clear()
	return nil
}

// Registration builds the row that Submit would store.
func (w *Workflow) Registration() (*models.Registration, error) {
	if w.state != Submitting {
		return nil, fmt.Errorf("%w: registration from %s", ErrInvalidTransition, w.state)
	}
	r := &models.Registration{
		EventID:     w.form.Event.ID,
		SegmentID:   w.form.SegmentID(),
		UserData:    w.normalized.UserData,
		FieldLabels: w.normalized.Labels,
		Timestamp:   w.now().UTC(),
	}
	if w.form.RequiresPayment() {
		r.PaymentStatus = models.PaymentPending
		r.PaymentMethod = w.payMethod
		r.TransactionID = w.txID
	}
	return r, nil
}

// Submit persists the registration once. A persist failure leaves the
// workflow in Submitting so the caller may retry.
func (w *Workflow) Submit(ctx context.Context, persist PersistFunc) (*models.Registration, error) {
	r, err := w.Registration()
	if err != nil {
		return nil, err
	}
	if err := persist(ctx, r); err != nil {
		return nil, err
	}
	w.state = Submitted
	w.result = r
	return r, nil
}

// Result is the stored registration after Submitted.
func (w *Workflow) Result() *models.Registration { return w.result }

// Reset starts a new, independent registration on the same form.
func (w *Workflow) Reset() {
	w.state = Drafting
	w.clear()
}

func (w *Workflow) clear() {
	w.raw = nil
	w.normalized = forms.Normalized{}
	w.txID = ""
	w.payMethod = ""
	w.result = nil
}

// SynthesizeTransactionID generates a placeholder reference of the form
// TXN<6 digits>.
func SynthesizeTransactionID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return fmt.Sprintf("TXN%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("TXN%06d", n.Int64())
}
