package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/rs/zerolog/log"
)

type AdminHandler struct {
	store *store.Store
	auth  *auth.AuthHandler
}

func NewAdminHandler(st *store.Store, authHandler *auth.AuthHandler) *AdminHandler {
	return &AdminHandler{store: st, auth: authHandler}
}

type AdminListResponse struct {
	Body []models.AdminUser
}

type AdminResponse struct {
	Body models.AdminUser
}

type AdminCreateInput struct {
	Body struct {
		Username string      `json:"username" minLength:"1"`
		Password string      `json:"password" minLength:"6"`
		Email    string      `json:"email,omitempty" format:"email"`
		Role     models.Role `json:"role,omitempty" enum:"admin,super_admin"`
	}
}

type AdminIDInput struct {
	ID string `path:"id" doc:"Admin id"`
}

type PasswordInput struct {
	ID   string `path:"id" doc:"Admin id"`
	Body struct {
		CurrentPassword string `json:"current_password,omitempty" doc:"Required when changing your own password"`
		NewPassword     string `json:"new_password" minLength:"6"`
	}
}

func (h *AdminHandler) HandleList(ctx context.Context, input *struct{}) (*AdminListResponse, error) {
	if _, err := h.auth.Require(ctx); err != nil {
		return nil, err
	}
	admins, err := h.store.ListAdmins(ctx)
	if err != nil {
		return nil, storeError(err, "list admins", "Admins")
	}
	return &AdminListResponse{Body: admins}, nil
}

func (h *AdminHandler) HandleCreate(ctx context.Context, input *AdminCreateInput) (*AdminResponse, error) {
	s, err := h.auth.RequireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Body.Password)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to hash password")
	}
	admin := &models.AdminUser{
		Username:     input.Body.Username,
		PasswordHash: hash,
		Email:        input.Body.Email,
		Role:         input.Body.Role,
	}
	if err := h.store.CreateAdmin(ctx, admin); err != nil {
		return nil, storeError(err, "create admin", "Admin")
	}
	log.Info().Str("admin_id", admin.ID).Str("role", string(admin.Role)).Str("by", s.Username).Msg("Admin created")
	return &AdminResponse{Body: *admin}, nil
}

func (h *AdminHandler) HandleDelete(ctx context.Context, input *AdminIDInput) (*struct{}, error) {
	s, err := h.auth.RequireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if input.ID == s.AdminID {
		return nil, huma.Error400BadRequest("You cannot delete your own account")
	}
	if err := h.store.DeleteAdmin(ctx, input.ID); err != nil {
		return nil, storeError(err, "delete admin", "Admin")
	}
	log.Info().Str("admin_id", input.ID).Str("by", s.Username).Msg("Admin deleted")
	return nil, nil
}

// HandleChangePassword lets an admin change their own password after
// confirming the current one. A super admin may reset anyone's.
func (h *AdminHandler) HandleChangePassword(ctx context.Context, input *PasswordInput) (*struct{}, error) {
	s, err := h.auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	self := input.ID == s.AdminID
	if !self && !s.IsSuperAdmin() {
		return nil, huma.Error403Forbidden("Access denied: super admin role required")
	}

	target, err := h.store.GetAdmin(ctx, input.ID)
	if err != nil {
		return nil, storeError(err, "load admin", "Admin")
	}
	if self {
		if ok, _ := auth.CheckPassword(target.PasswordHash, input.Body.CurrentPassword); !ok {
			return nil, huma.Error401Unauthorized("Current password is incorrect")
		}
	}

	hash, err := auth.HashPassword(input.Body.NewPassword)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to hash password")
	}
	if err := h.store.UpdatePasswordHash(ctx, target.ID, hash); err != nil {
		return nil, storeError(err, "update password", "Admin")
	}
	log.Info().Str("admin_id", target.ID).Str("by", s.Username).Msg("Password changed")
	return nil, nil
}
