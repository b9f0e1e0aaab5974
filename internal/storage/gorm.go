package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tajious/rollcall/internal/models"
	"gorm.io/gorm"
)

type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage migrates the schema on open. Users reference roles by id
// only; no foreign key is created, so removing a role never blocks or
// cascades.
func NewGormStorage(dialector gorm.Dialector) (*GormStorage, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Role{}, &models.User{}); err != nil {
		return nil, err
	}

	return &GormStorage{db: db}, nil
}

func (s *GormStorage) ListUsers(ctx context.Context, deleted bool) ([]models.User, error) {
	users := []models.User{}
	q := s.db.WithContext(ctx).Preload("Role").Order("created_at")
	if deleted {
		q = q.Unscoped().Where("deleted_at IS NOT NULL")
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStorage) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "mobile = ?", mobile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStorage) CreateUser(ctx context.Context, user *models.User) error {
	var n int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("mobile = ?", user.Mobile).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrMobileTaken
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Omit("Role").Create(user).Error
}

func (s *GormStorage) UpdateUser(ctx context.Context, id string, payload models.UserPayload) error {
	var n int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("mobile = ? AND id <> ?", payload.Mobile, id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrMobileTaken
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":    payload.Name,
		"mobile":  payload.Mobile,
		"status":  payload.Status,
		"role_id": payload.RoleID,
	})
	return userResult(res)
}

func (s *GormStorage) SetUserMPIN(ctx context.Context, id, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("mpin", hash)
	return userResult(res)
}

func (s *GormStorage) UpdateUserLastLogin(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", time.Now())
	return userResult(res)
}

func (s *GormStorage) SoftDeleteUser(ctx context.Context, id string) error {
	return userResult(s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id))
}

func (s *GormStorage) RestoreUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).Update("deleted_at", nil)
	return userResult(res)
}

func (s *GormStorage) ForceDeleteUser(ctx context.Context, id string) error {
	return userResult(s.db.WithContext(ctx).Unscoped().Delete(&models.User{}, "id = ?", id))
}

func (s *GormStorage) ListRoles(ctx context.Context, deleted bool) ([]models.Role, error) {
	roles := []models.Role{}
	q := s.db.WithContext(ctx).Order("created_at")
	if deleted {
		q = q.Unscoped().Where("deleted_at IS NOT NULL")
	}
	if err := q.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *GormStorage) GetRole(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (s *GormStorage) CreateRole(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(role).Error
}

func (s *GormStorage) UpdateRole(ctx context.Context, id string, payload models.RolePayload) error {
	res := s.db.WithContext(ctx).Model(&models.Role{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":        payload.Name,
		"description": payload.Description,
		"status":      payload.Status,
	})
	return roleResult(res)
}

func (s *GormStorage) SoftDeleteRole(ctx context.Context, id string) error {
	return roleResult(s.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id))
}

func (s *GormStorage) RestoreRole(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Unscoped().Model(&models.Role{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).Update("deleted_at", nil)
	return roleResult(res)
}

func (s *GormStorage) ForceDeleteRole(ctx context.Context, id string) error {
	return roleResult(s.db.WithContext(ctx).Unscoped().Delete(&models.Role{}, "id = ?", id))
}

func userResult(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func roleResult(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}
