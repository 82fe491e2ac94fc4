package store

import (
	"context"
	"testing"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/database"
	"github.com/gdg-garage/event-registration-api/internal/forms"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	return New(db)
}

func fee(v float64) *float64 { return &v }

func festEvent() *models.Event {
	return &models.Event{
		Title:    "Spring Fest",
		Category: models.CategoryFest,
		Date:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Fields:   []models.FieldDefinition{{Label: "Institution", Type: models.FieldText}},
		Segments: []models.FestSegment{
			{Name: "Hackathon", Fields: []models.FieldDefinition{
				{Label: "Team", Type: models.FieldText, Required: true},
				{Label: "Size", Type: models.FieldSelect, Options: []string{"2", "3", "4"}},
			}},
			{Name: "Quiz", Fee: fee(50), Fields: []models.FieldDefinition{{Label: "Team", Type: models.FieldText}}},
		},
	}
}

func TestSaveAndGetEvent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	event := festEvent()
	require.NoError(t, s.SaveEvent(ctx, event))
	require.NotEmpty(t, event.ID)

	got, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring Fest", got.Title)
	require.Len(t, got.Fields, 1)
	require.Len(t, got.Segments, 2)

	hack := got.Segment(event.Segments[0].ID)
	require.NotNil(t, hack)
	require.Len(t, hack.Fields, 2)
	assert.Equal(t, "Team", hack.Fields[0].Label)
	assert.Equal(t, []string{"2", "3", "4"}, hack.Fields[1].Options)

	_, err = s.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveEventReconcilesSegments(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	event := festEvent()
	require.NoError(t, s.SaveEvent(ctx, event))
	dropped := event.Segments[1].ID
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{EventID: event.ID, SegmentID: &dropped}))

	event.Segments = event.Segments[:1]
	event.Segments[0].Fields = event.Segments[0].Fields[:1]
	require.NoError(t, s.SaveEvent(ctx, event))

	got, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, got.Segments, 1)
	assert.Len(t, got.Segments[0].Fields, 1)

	_, err = s.GetSegment(ctx, dropped)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := s.CountRegistrations(ctx, event.ID, dropped)
	require.NoError(t, err)
	assert.Zero(t, n)

	var orphanFields int64
	s.DB().Model(&models.FieldDefinition{}).Where("owner_id = ?", dropped).Count(&orphanFields)
	assert.Zero(t, orphanFields)
}

func TestNonFestEventDropsSegments(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	event := festEvent()
	require.NoError(t, s.SaveEvent(ctx, event))
	event.Category = models.CategoryWorkshop
	require.NoError(t, s.SaveEvent(ctx, event))

	got, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Segments)
}

func TestDeleteEventCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	event := festEvent()
	require.NoError(t, s.SaveEvent(ctx, event))
	other := &models.Event{Title: "Other", Category: models.CategoryWorkshop}
	require.NoError(t, s.SaveEvent(ctx, other))

	segID := event.Segments[0].ID
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{EventID: event.ID, SegmentID: &segID}))
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{EventID: event.ID}))
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{EventID: other.ID}))

	require.NoError(t, s.DeleteEvent(ctx, event.ID))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, s.DB().Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(1), count(&models.Event{}))
	assert.Zero(t, count(&models.FestSegment{}))
	assert.Zero(t, count(&models.FieldDefinition{}))
	assert.Equal(t, int64(1), count(&models.Registration{}), "only the other event's registration survives")

	assert.ErrorIs(t, s.DeleteEvent(ctx, event.ID), ErrNotFound)
}

func TestDeleteSegmentCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	event := festEvent()
	require.NoError(t, s.SaveEvent(ctx, event))
	segID := event.Segments[0].ID
	keptID := event.Segments[1].ID
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{EventID: event.ID, SegmentID: &segID}))
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{EventID: event.ID, SegmentID: &keptID}))

	require.NoError(t, s.DeleteSegment(ctx, segID))

	regs, err := s.ListRegistrations(ctx, RegistrationFilter{EventID: event.ID})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, keptID, regs[0].Segment())
	assert.ErrorIs(t, s.DeleteSegment(ctx, segID), ErrNotFound)
}

func TestRegistrationRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	event := &models.Event{
		Title:    "Workshop",
		Category: models.CategoryWorkshop,
		Fee:      fee(100),
		Fields: []models.FieldDefinition{
			{ID: "f1", Label: "Name", Type: models.FieldText, Required: true},
			{ID: "f2", Label: "Age", Type: models.FieldNumber},
			{ID: "f3", Label: "Agree", Type: models.FieldCheckbox},
		},
	}
	require.NoError(t, s.SaveEvent(ctx, event))

	stored, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	form, err := forms.ResolveForm(stored, "")
	require.NoError(t, err)

	raw := map[string]models.Value{
		"f1": models.Text("Alice"),
		"f2": models.Number(21),
		"f3": models.Boolean(true),
	}
	n := forms.Normalize(form, raw)
	reg := &models.Registration{EventID: event.ID, UserData: n.UserData, FieldLabels: n.Labels, PaymentStatus: models.PaymentPending}
	require.NoError(t, s.CreateRegistration(ctx, reg))

	got, err := s.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, n.UserData, got.UserData)
	assert.Equal(t, []string{"Name", "Age", "Agree"}, got.UserData.Keys())
	assert.Equal(t, []string{"Name", "Age", "Agree"}, got.FieldLabels)
	for _, f := range stored.Fields {
		v, ok := got.UserData.Get(f.Label)
		require.True(t, ok)
		assert.Equal(t, raw[f.ID], v)
	}
	assert.False(t, got.Timestamp.IsZero())
}

func TestListAndUpdateRegistrations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []models.PaymentStatus{models.PaymentPending, models.PaymentCompleted, models.PaymentNone} {
		require.NoError(t, s.CreateRegistration(ctx, &models.Registration{
			EventID:       "E1",
			PaymentStatus: status,
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := s.ListRegistrations(ctx, RegistrationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Timestamp.After(all[1].Timestamp), "newest first")

	pending, err := s.ListRegistrations(ctx, RegistrationFilter{PaymentStatus: models.PaymentPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	completed := models.PaymentCompleted
	updated, err := s.UpdateRegistration(ctx, pending[0].ID, RegistrationPatch{PaymentStatus: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus)
	assert.True(t, updated.Timestamp.Equal(pending[0].Timestamp))

	_, err = s.UpdateRegistration(ctx, "missing", RegistrationPatch{PaymentStatus: &completed})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteRegistration(ctx, pending[0].ID))
	assert.ErrorIs(t, s.DeleteRegistration(ctx, pending[0].ID), ErrNotFound)
}

func TestUpdateRegistrationUserDataTrimsLabels(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	reg := &models.Registration{
		EventID: "E1",
		UserData: models.UserData{
			{Key: "Name", Value: models.Text("Alice")},
			{Key: "Email", Value: models.Text("alice@example.com")},
		},
		FieldLabels: []string{"Name", "Email"},
	}
	require.NoError(t, s.CreateRegistration(ctx, reg))

	data := models.UserData{
		{Key: "Name", Value: models.Text("Alice")},
		{Key: "Phone", Value: models.Text("555")},
	}
	updated, err := s.UpdateRegistration(ctx, reg.ID, RegistrationPatch{UserData: &data})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Phone"}, updated.UserData.Keys())
	assert.Equal(t, []string{"Name"}, updated.FieldLabels)

	stored, err := s.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Phone"}, stored.UserData.Keys())
	assert.Equal(t, []string{"Name"}, stored.FieldLabels)
	assert.True(t, stored.Timestamp.Equal(reg.Timestamp))
}

func TestAdmins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	admin := &models.AdminUser{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.CreateAdmin(ctx, admin))
	assert.Equal(t, models.RoleAdmin, admin.Role)

	assert.ErrorIs(t, s.CreateAdmin(ctx, &models.AdminUser{Username: "alice"}), ErrDuplicate)
	// A unique violation that slips past the lookup, as in a concurrent create.
	assert.ErrorIs(t, translate(s.DB().WithContext(ctx).Create(&models.AdminUser{Username: "alice"}).Error), ErrDuplicate)

	n, err := s.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.UpdatePasswordHash(ctx, admin.ID, "y"))
	got, err := s.GetAdminByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "y", got.PasswordHash)

	require.NoError(t, s.DeleteAdmin(ctx, admin.ID))
	assert.ErrorIs(t, s.DeleteAdmin(ctx, admin.ID), ErrNotFound)
}
