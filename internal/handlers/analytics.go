package handlers

import (
	"bytes"
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/export"
	"github.com/gdg-garage/event-registration-api/internal/metrics"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/rs/zerolog/log"
)

type AnalyticsHandler struct {
	store   *store.Store
	auth    *auth.AuthHandler
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAnalyticsHandler(st *store.Store, authHandler *auth.AuthHandler, m *metrics.Metrics) *AnalyticsHandler {
	return &AnalyticsHandler{store: st, auth: authHandler, metrics: m, now: time.Now}
}

type AnalyticsInput struct {
	Range string `query:"range" enum:"all,7days,30days,90days" doc:"Time window, default all"`
}

type AnalyticsResponse struct {
	Body export.Report
}

func (h *AnalyticsHandler) report(ctx context.Context, input *AnalyticsInput) (export.Report, error) {
	if _, err := h.auth.Require(ctx); err != nil {
		return export.Report{}, err
	}
	r, err := export.ParseTimeRange(input.Range)
	if err != nil {
		return export.Report{}, huma.Error400BadRequest(err.Error())
	}
	events, err := h.store.ListEvents(ctx)
	if err != nil {
		return export.Report{}, storeError(err, "list events", "Events")
	}
	regs, err := h.store.ListRegistrations(ctx, store.RegistrationFilter{})
	if err != nil {
		return export.Report{}, storeError(err, "list registrations", "Registrations")
	}
	return export.Analyze(events, regs, r, h.now()), nil
}

func (h *AnalyticsHandler) HandleSummary(ctx context.Context, input *AnalyticsInput) (*AnalyticsResponse, error) {
	rep, err := h.report(ctx, input)
	if err != nil {
		return nil, err
	}
	return &AnalyticsResponse{Body: rep}, nil
}

func (h *AnalyticsHandler) HandleExport(ctx context.Context, input *AnalyticsInput) (*CSVResponse, error) {
	rep, err := h.report(ctx, input)
	if err != nil {
		return nil, err
	}
	now := h.now()
	var buf bytes.Buffer
	if err := export.WriteAnalyticsCSV(&buf, rep, now); err != nil {
		log.Error().Err(err).Msg("Failed to write analytics CSV")
		return nil, huma.Error500InternalServerError("Failed to export analytics")
	}
	h.metrics.Export("analytics")
	return csvResponse(export.Filename("analytics_"+string(rep.Range), now), buf.Bytes()), nil
}
