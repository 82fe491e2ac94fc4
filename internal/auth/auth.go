package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	CookieName    = "auth_token"
	TokenDuration = 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthHandler struct {
	store *store.Store
	cfg   *config.Config
}

func NewAuthHandler(cfg *config.Config, st *store.Store) *AuthHandler {
	return &AuthHandler{store: st, cfg: cfg}
}

func (h *AuthHandler) GenerateToken(s Session) (string, error) {
	claims := jwt.MapClaims{
		"admin_id": s.AdminID,
		"username": s.Username,
		"role":     string(s.Role),
		"exp":      time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a session token and returns its session and expiry.
func (h *AuthHandler) ParseToken(tokenString string) (Session, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Session{}, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, time.Time{}, errors.New("invalid token claims")
	}
	adminID, _ := claims["admin_id"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if adminID == "" {
		return Session{}, time.Time{}, errors.New("invalid token claims")
	}
	var exp time.Time
	if v, err := claims.GetExpirationTime(); err == nil && v != nil {
		exp = v.Time
	}
	return Session{AdminID: adminID, Username: username, Role: models.Role(role)}, exp, nil
}

func (h *AuthHandler) cookie(value string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    value,
		Expires:  expires,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// Login checks credentials. Legacy plain-text passwords are re-hashed on the
// first successful login.
func (h *AuthHandler) Login(ctx context.Context, username, password string) (*models.AdminUser, error) {
	admin, err := h.store.GetAdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, needsRehash := CheckPassword(admin.PasswordHash, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if needsRehash {
		hash, err := HashPassword(password)
		if err == nil {
			err = h.store.UpdatePasswordHash(ctx, admin.ID, hash)
		}
		if err != nil {
			log.Warn().Err(err).Str("admin", admin.Username).Msg("Failed to upgrade legacy password")
		} else {
			admin.PasswordHash = hash
		}
	}
	return admin, nil
}

// Require returns the session of the request. The admin must still exist;
// the stored role wins over the one in the token.
func (h *AuthHandler) Require(ctx context.Context) (Session, error) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return Session{}, huma.Error401Unauthorized("Unauthorized: No valid session")
	}
	admin, err := h.store.GetAdmin(ctx, s.AdminID)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, huma.Error401Unauthorized("Unauthorized: Account no longer exists")
	}
	if err != nil {
		log.Error().Err(err).Str("admin_id", s.AdminID).Msg("Failed to load session admin")
		return Session{}, huma.Error500InternalServerError("Failed to verify session")
	}
	return Session{AdminID: admin.ID, Username: admin.Username, Role: admin.Role}, nil
}

func (h *AuthHandler) RequireSuperAdmin(ctx context.Context) (Session, error) {
	s, err := h.Require(ctx)
	if err != nil {
		return Session{}, err
	}
	if !s.IsSuperAdmin() {
		return Session{}, huma.Error403Forbidden("Access denied: super admin role required")
	}
	return s, nil
}

// Bootstrap creates the default super admin when no admin account exists.
func (h *AuthHandler) Bootstrap(ctx context.Context) error {
	n, err := h.store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := HashPassword(h.cfg.DefaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &models.AdminUser{
		Username:     h.cfg.DefaultAdminUsername,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
	}
	if err := h.store.CreateAdmin(ctx, admin); err != nil {
		return err
	}
	log.Warn().Str("username", admin.Username).Msg("Created default admin account; change its password")
	return nil
}

type LoginInput struct {
	Body struct {
		Username string `json:"username" required:"true" minLength:"1"`
		Password string `json:"password" required:"true" minLength:"1"`
	}
}

type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      models.AdminUser
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	admin, err := h.Login(ctx, input.Body.Username, input.Body.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return nil, huma.Error401Unauthorized("Invalid username or password")
	}
	if err != nil {
		log.Error().Err(err).Msg("Login failed")
		return nil, huma.Error500InternalServerError("Login failed")
	}

	token, err := h.GenerateToken(Session{AdminID: admin.ID, Username: admin.Username, Role: admin.Role})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	return &LoginOutput{
		SetCookie: h.cookie(token, time.Now().Add(TokenDuration)),
		Body:      *admin,
	}, nil
}

type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
}

func (h *AuthHandler) HandleLogout(ctx context.Context, input *struct{}) (*LogoutOutput, error) {
	c := h.cookie("", time.Unix(0, 0))
	c.MaxAge = -1
	return &LogoutOutput{SetCookie: c}, nil
}

type MeOutput struct {
	Body models.AdminUser
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *struct{}) (*MeOutput, error) {
	s, err := h.Require(ctx)
	if err != nil {
		return nil, err
	}
	admin, err := h.store.GetAdmin(ctx, s.AdminID)
	if err != nil {
		return nil, huma.Error404NotFound("Admin not found")
	}
	return &MeOutput{Body: *admin}, nil
}
