package store

import (
	"context"
	"fmt"

	"github.com/gdg-garage/event-registration-api/internal/models"
)

func (s *Store) ListAdmins(ctx context.Context) ([]models.AdminUser, error) {
	var admins []models.AdminUser
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

func (s *Store) GetAdmin(ctx context.Context, id string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := s.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := s.db.WithContext(ctx).First(&admin, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.AdminUser{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// CreateAdmin fails with ErrDuplicate when the username is taken.
func (s *Store) CreateAdmin(ctx context.Context, admin *models.AdminUser) error {
	if _, err := s.GetAdminByUsername(ctx, admin.Username); err == nil {
		return ErrDuplicate
	} else if err != ErrNotFound {
		return err
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) DeleteAdmin(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AdminUser{})
	if res.Error != nil {
		return fmt.Errorf("delete admin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
