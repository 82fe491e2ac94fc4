package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/database"
	"github.com/gdg-garage/event-registration-api/internal/metrics"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	events        []models.Event
	registrations []models.Registration
}

func (n *recordingNotifier) NotifyRegistration(_ context.Context, event models.Event, reg models.Registration) error {
	n.events = append(n.events, event)
	n.registrations = append(n.registrations, reg)
	return nil
}

type testEnv struct {
	store         *store.Store
	auth          *auth.AuthHandler
	events        *EventHandler
	registrations *RegistrationHandler
	analytics     *AnalyticsHandler
	admins        *AdminHandler
	notifier      *recordingNotifier
	metrics       *metrics.Metrics

	superAdmin models.AdminUser
	admin      models.AdminUser
	superCtx   context.Context
	adminCtx   context.Context
}

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)

	st := store.New(db)
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		DefaultAdminUsername: "root",
		DefaultAdminPassword: "root-password",
		PaymentMethod:        "bkash",
	}
	authHandler := auth.NewAuthHandler(cfg, st)
	ctx := context.Background()
	require.NoError(t, authHandler.Bootstrap(ctx))

	super, err := st.GetAdminByUsername(ctx, "root")
	require.NoError(t, err)

	hash, err := auth.HashPassword("helper-password")
	require.NoError(t, err)
	admin := &models.AdminUser{Username: "helper", PasswordHash: hash}
	require.NoError(t, st.CreateAdmin(ctx, admin))

	m := metrics.New(prometheus.NewRegistry())
	n := &recordingNotifier{}
	regs := NewRegistrationHandler(st, authHandler, n, m, cfg.PaymentMethod)
	regs.now = func() time.Time { return fixedNow }
	analytics := NewAnalyticsHandler(st, authHandler, m)
	analytics.now = func() time.Time { return fixedNow }

	return &testEnv{
		store:         st,
		auth:          authHandler,
		events:        NewEventHandler(st, authHandler),
		registrations: regs,
		analytics:     analytics,
		admins:        NewAdminHandler(st, authHandler),
		notifier:      n,
		metrics:       m,
		superAdmin:    *super,
		admin:         *admin,
		superCtx:      auth.WithSession(ctx, auth.Session{AdminID: super.ID, Username: super.Username, Role: super.Role}),
		adminCtx:      auth.WithSession(ctx, auth.Session{AdminID: admin.ID, Username: admin.Username, Role: admin.Role}),
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

func fee(v float64) *float64 { return &v }

// seedWorkshop stores a free workshop with a required name and an email.
func seedWorkshop(t *testing.T, env *testEnv) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:    "Go Workshop",
		Category: models.CategoryWorkshop,
		Date:     fixedNow.AddDate(0, 0, 7),
		Fields: []models.FieldDefinition{
			{Label: "Name", Type: models.FieldText, Required: true},
			{Label: "Email", Type: models.FieldEmail},
		},
	}
	require.NoError(t, env.store.SaveEvent(context.Background(), event))
	saved, err := env.store.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	return saved
}

// seedFest stores a fest whose Hackathon has no fee of its own and whose Quiz
// costs 50.
func seedFest(t *testing.T, env *testEnv) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:    "Spring Fest",
		Category: models.CategoryFest,
		Date:     fixedNow.AddDate(0, 0, 14),
		Fee:      fee(20),
		Segments: []models.FestSegment{
			{Name: "Hackathon", Fee: fee(0), Fields: []models.FieldDefinition{
				{Label: "Team", Type: models.FieldText, Required: true},
			}},
			{Name: "Quiz", Fee: fee(50), Fields: []models.FieldDefinition{
				{Label: "Team", Type: models.FieldText, Required: true},
				{Label: "Level", Type: models.FieldSelect, Options: []string{"novice", "expert"}},
			}},
		},
	}
	require.NoError(t, env.store.SaveEvent(context.Background(), event))
	saved, err := env.store.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	return saved
}
