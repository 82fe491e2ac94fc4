// Package notifier announces new registrations to the organisers.
package notifier

import (
	"context"
	"errors"

	"github.com/gdg-garage/event-registration-api/internal/models"
)

type Notifier interface {
	NotifyRegistration(ctx context.Context, event models.Event, registration models.Registration) error
}

// Multi fans a notification out to every configured notifier.
type Multi []Notifier

func (m Multi) NotifyRegistration(ctx context.Context, event models.Event, registration models.Registration) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyRegistration(ctx, event, registration); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyRegistration(context.Context, models.Event, models.Registration) error { return nil }
