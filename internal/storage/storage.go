package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/tajious/rollcall/internal/config"
	"github.com/tajious/rollcall/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrMobileTaken        = errors.New("mobile number already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Storage interface {
	ListUsers(ctx context.Context, deleted bool) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByMobile(ctx context.Context, mobile string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id string, payload models.UserPayload) error
	SetUserMPIN(ctx context.Context, id, hash string) error
	UpdateUserLastLogin(ctx context.Context, id string) error
	SoftDeleteUser(ctx context.Context, id string) error
	RestoreUser(ctx context.Context, id string) error
	ForceDeleteUser(ctx context.Context, id string) error

	ListRoles(ctx context.Context, deleted bool) ([]models.Role, error)
	GetRole(ctx context.Context, id string) (*models.Role, error)
	CreateRole(ctx context.Context, role *models.Role) error
	UpdateRole(ctx context.Context, id string, payload models.RolePayload) error
	SoftDeleteRole(ctx context.Context, id string) error
	RestoreRole(ctx context.Context, id string) error
	ForceDeleteRole(ctx context.Context, id string) error
}

// New opens the backend selected by cfg.Driver: postgres, sqlite, or memory.
func New(cfg config.DatabaseConfig) (Storage, error) {
	switch cfg.Driver {
	case "postgres":
		return NewGormStorage(postgres.Open(BuildDSN(cfg)))
	case "sqlite":
		return NewGormStorage(sqlite.Open(cfg.DBName))
	case "memory":
		return NewInMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
}

func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
}
