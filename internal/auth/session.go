package auth

import (
	"context"

	"github.com/gdg-garage/event-registration-api/internal/models"
)

// Session is the authenticated admin of a request. It is a value: handlers
// receive a copy and never change it.
type Session struct {
	AdminID  string
	Username string
	Role     models.Role
}

func (s Session) IsSuperAdmin() bool {
	return s.Role == models.RoleSuperAdmin
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
