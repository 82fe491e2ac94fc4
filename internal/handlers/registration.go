package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/export"
	"github.com/gdg-garage/event-registration-api/internal/forms"
	"github.com/gdg-garage/event-registration-api/internal/metrics"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/notifier"
	"github.com/gdg-garage/event-registration-api/internal/payment"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/rs/zerolog/log"
)

type RegistrationHandler struct {
	store         *store.Store
	auth          *auth.AuthHandler
	notifier      notifier.Notifier
	metrics       *metrics.Metrics
	paymentMethod string
	now           func() time.Time
}

func NewRegistrationHandler(st *store.Store, authHandler *auth.AuthHandler, n notifier.Notifier, m *metrics.Metrics, paymentMethod string) *RegistrationHandler {
	if n == nil {
		n = notifier.Nop{}
	}
	return &RegistrationHandler{
		store:         st,
		auth:          authHandler,
		notifier:      n,
		metrics:       m,
		paymentMethod: paymentMethod,
		now:           time.Now,
	}
}

type RegistrationBody struct {
	SegmentID     string                  `json:"segment_id,omitempty" doc:"Selected segment; required for fest events"`
	Data          map[string]models.Value `json:"data" doc:"Answers keyed by field id, segment fields prefixed with segment_"`
	TransactionID string                  `json:"transaction_id,omitempty" doc:"Payment reference; generated when blank"`
	PaymentMethod string                  `json:"payment_method,omitempty"`
}

type RegistrationRequest struct {
	ID   string `path:"id" doc:"Event id"`
	Body RegistrationBody
}

type PreviewResponse struct {
	Body struct {
		Fee             float64         `json:"fee"`
		RequiresPayment bool            `json:"requires_payment"`
		PaymentMethod   string          `json:"payment_method,omitempty"`
		UserData        models.UserData `json:"user_data"`
	}
}

type RegistrationResponse struct {
	Body models.Registration
}

// workflow resolves the form and runs the review step.
func (h *RegistrationHandler) workflow(ctx context.Context, input *RegistrationRequest) (*payment.Workflow, error) {
	event, err := h.store.GetEvent(ctx, input.ID)
	if err != nil {
		return nil, storeError(err, "load event", "Event")
	}
	form, err := forms.ResolveForm(event, input.Body.SegmentID)
	if err != nil {
		return nil, formError(err)
	}
	wf := payment.New(form, payment.WithMethod(h.paymentMethod), payment.WithClock(h.now))
	if _, err := wf.Review(input.Body.Data); err != nil {
		return nil, validationError(err)
	}
	return wf, nil
}

// HandlePreview validates a submission and shows what would be stored,
// without storing it.
func (h *RegistrationHandler) HandlePreview(ctx context.Context, input *RegistrationRequest) (*PreviewResponse, error) {
	wf, err := h.workflow(ctx, input)
	if err != nil {
		return nil, err
	}
	res := &PreviewResponse{}
	res.Body.Fee = wf.Form().Fee()
	res.Body.RequiresPayment = wf.Form().RequiresPayment()
	if res.Body.RequiresPayment {
		res.Body.PaymentMethod = h.paymentMethod
	}
	res.Body.UserData = wf.Normalized().UserData
	return res, nil
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*RegistrationResponse, error) {
	wf, err := h.workflow(ctx, input)
	if err != nil {
		return nil, err
	}

	state, err := wf.Proceed()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to process registration")
	}
	if state == payment.AwaitingTransactionID {
		submitted := wf.Normalized().Payment
		txID := input.Body.TransactionID
		if txID == "" {
			txID = submitted.TransactionID
		}
		method := input.Body.PaymentMethod
		if method == "" {
			method = submitted.Method
		}
		if err := wf.ConfirmPayment(txID, method); err != nil {
			return nil, huma.Error500InternalServerError("Failed to process registration")
		}
	}

	reg, err := wf.Submit(ctx, h.store.CreateRegistration)
	if err != nil {
		return nil, storeError(err, "store registration", "Registration")
	}

	event := wf.Form().Event
	h.metrics.Registration(string(event.Category), wf.Form().RequiresPayment())
	if err := h.notifier.NotifyRegistration(ctx, *event, *reg); err != nil {
		log.Warn().Err(err).Str("registration_id", reg.ID).Msg("Registration notification failed")
	}

	log.Info().
		Str("registration_id", reg.ID).
		Str("event_id", reg.EventID).
		Str("segment_id", reg.Segment()).
		Str("payment_status", string(reg.PaymentStatus)).
		Msg("Registration stored")
	return &RegistrationResponse{Body: *reg}, nil
}

// Admin side.

type RegistrationFilterInput struct {
	EventID       string `query:"event_id" doc:"Event id, or all"`
	SegmentID     string `query:"segment_id" doc:"Segment id, or all"`
	PaymentStatus string `query:"payment_status" enum:"all,pending,completed,failed" doc:"Payment status, or all"`
}

func (in RegistrationFilterInput) filter() export.Filter {
	return export.Filter{EventID: in.EventID, SegmentID: in.SegmentID, PaymentStatus: in.PaymentStatus}
}

type RegistrationListResponse struct {
	Body struct {
		Registrations []models.Registration `json:"registrations"`
		Summary       export.Summary        `json:"summary"`
	}
}

// load returns the registrations matching f and a catalog of every event.
func (h *RegistrationHandler) load(ctx context.Context, f export.Filter) ([]models.Registration, *export.Catalog, error) {
	regs, err := h.store.ListRegistrations(ctx, store.RegistrationFilter{})
	if err != nil {
		return nil, nil, storeError(err, "list registrations", "Registrations")
	}
	events, err := h.store.ListEvents(ctx)
	if err != nil {
		return nil, nil, storeError(err, "list events", "Events")
	}
	return f.Apply(regs), export.NewCatalog(events), nil
}

func (h *RegistrationHandler) HandleList(ctx context.Context, input *RegistrationFilterInput) (*RegistrationListResponse, error) {
	if _, err := h.auth.Require(ctx); err != nil {
		return nil, err
	}
	regs, catalog, err := h.load(ctx, input.filter())
	if err != nil {
		return nil, err
	}
	res := &RegistrationListResponse{}
	res.Body.Registrations = regs
	res.Body.Summary = export.Summarize(regs, catalog)
	return res, nil
}

type RegistrationIDInput struct {
	ID string `path:"id" doc:"Registration id"`
}

type RegistrationUpdateInput struct {
	ID   string `path:"id" doc:"Registration id"`
	Body struct {
		PaymentStatus *models.PaymentStatus `json:"payment_status,omitempty" doc:"pending, completed or failed"`
		PaymentMethod *string               `json:"payment_method,omitempty"`
		TransactionID *string               `json:"transaction_id,omitempty"`
		UserData      *models.UserData      `json:"user_data,omitempty"`
	}
}

// HandleUpdate applies an admin edit. Setting the payment status is how a
// payment is approved or rejected.
func (h *RegistrationHandler) HandleUpdate(ctx context.Context, input *RegistrationUpdateInput) (*RegistrationResponse, error) {
	s, err := h.auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if st := input.Body.PaymentStatus; st != nil && (*st == models.PaymentNone || !st.Valid()) {
		return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("Invalid payment status %q", *st))
	}

	reg, err := h.store.UpdateRegistration(ctx, input.ID, store.RegistrationPatch{
		UserData:      input.Body.UserData,
		PaymentStatus: input.Body.PaymentStatus,
		PaymentMethod: input.Body.PaymentMethod,
		TransactionID: input.Body.TransactionID,
	})
	if err != nil {
		return nil, storeError(err, "update registration", "Registration")
	}
	log.Info().Str("registration_id", reg.ID).Str("payment_status", string(reg.PaymentStatus)).
		Str("admin", s.Username).Msg("Registration updated")
	return &RegistrationResponse{Body: *reg}, nil
}

func (h *RegistrationHandler) HandleDelete(ctx context.Context, input *RegistrationIDInput) (*struct{}, error) {
	s, err := h.auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.DeleteRegistration(ctx, input.ID); err != nil {
		return nil, storeError(err, "delete registration", "Registration")
	}
	log.Info().Str("registration_id", input.ID).Str("admin", s.Username).Msg("Registration deleted")
	return nil, nil
}

type CSVResponse struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func csvResponse(name string, body []byte) *CSVResponse {
	return &CSVResponse{
		ContentType:        "text/csv; charset=utf-8",
		ContentDisposition: fmt.Sprintf(`attachment; filename="%s"`, name),
		Body:               body,
	}
}

func (h *RegistrationHandler) HandleExport(ctx context.Context, input *RegistrationFilterInput) (*CSVResponse, error) {
	if _, err := h.auth.Require(ctx); err != nil {
		return nil, err
	}
	regs, catalog, err := h.load(ctx, input.filter())
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, huma.Error404NotFound("No registrations match the filter")
	}

	var buf bytes.Buffer
	if err := export.WriteRegistrationsCSV(&buf, regs, catalog); err != nil {
		log.Error().Err(err).Msg("Failed to write registrations CSV")
		return nil, huma.Error500InternalServerError("Failed to export registrations")
	}
	h.metrics.Export("registrations")
	return csvResponse(export.Filename("registrations_export", h.now()), buf.Bytes()), nil
}
