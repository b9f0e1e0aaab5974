package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tajious/rollcall/internal/config"
	"github.com/tajious/rollcall/internal/models"
	"gorm.io/driver/sqlite"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	gs, err := NewGormStorage(sqlite.Open(filepath.Join(t.TempDir(), "rollcall.db")))
	require.NoError(t, err)

	return map[string]Storage{
		"sqlite": gs,
		"memory": NewInMemoryStorage(),
	}
}

func TestRoleLifecycle(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			role := &models.Role{Name: "Nurse", Description: "Ward staff", Status: models.StatusActive}
			require.NoError(t, s.CreateRole(ctx, role))
			require.NotEmpty(t, role.ID)

			active, err := s.ListRoles(ctx, false)
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.Equal(t, "Nurse", active[0].Name)
			assert.False(t, active[0].DeletedAt.Valid)

			require.NoError(t, s.UpdateRole(ctx, role.ID, models.RolePayload{Name: "Nurse", Description: "Ward staff", Status: models.StatusInactive}))
			got, err := s.GetRole(ctx, role.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusInactive, got.Status)

			require.NoError(t, s.SoftDeleteRole(ctx, role.ID))
			active, _ = s.ListRoles(ctx, false)
			assert.Empty(t, active)
			deleted, err := s.ListRoles(ctx, true)
			require.NoError(t, err)
			require.Len(t, deleted, 1)
			assert.True(t, deleted[0].DeletedAt.Valid)

			assert.ErrorIs(t, s.SoftDeleteRole(ctx, role.ID), ErrRoleNotFound)

			require.NoError(t, s.RestoreRole(ctx, role.ID))
			active, _ = s.ListRoles(ctx, false)
			assert.Len(t, active, 1)
			assert.ErrorIs(t, s.RestoreRole(ctx, role.ID), ErrRoleNotFound)

			require.NoError(t, s.ForceDeleteRole(ctx, role.ID))
			_, err = s.GetRole(ctx, role.ID)
			assert.ErrorIs(t, err, ErrRoleNotFound)
			deleted, _ = s.ListRoles(ctx, true)
			assert.Empty(t, deleted)
		})
	}
}

func TestUserLifecycle(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			role := &models.Role{Name: "Doctor", Status: models.StatusActive}
			require.NoError(t, s.CreateRole(ctx, role))

			user := &models.User{Name: "Asha", Mobile: "9876543210", RoleID: role.ID, Status: models.StatusActive}
			require.NoError(t, s.CreateUser(ctx, user))

			dup := &models.User{Name: "Other", Mobile: "9876543210", Status: models.StatusActive}
			assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrMobileTaken)

			users, err := s.ListUsers(ctx, false)
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Equal(t, "Doctor", users[0].RoleName())

			byMobile, err := s.GetUserByMobile(ctx, "9876543210")
			require.NoError(t, err)
			assert.Equal(t, user.ID, byMobile.ID)

			require.NoError(t, s.SetUserMPIN(ctx, user.ID, "hash"))
			require.NoError(t, s.UpdateUserLastLogin(ctx, user.ID))
			got, err := s.GetUserByMobile(ctx, "9876543210")
			require.NoError(t, err)
			assert.Equal(t, "hash", got.MPIN)
			assert.NotNil(t, got.LastLogin)

			payload := user.ToggledPayload()
			require.NoError(t, s.UpdateUser(ctx, user.ID, payload))
			got, err = s.GetUser(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusInactive, got.Status)
			assert.Equal(t, "Asha", got.Name)
			assert.Equal(t, role.ID, got.RoleID)

			require.NoError(t, s.SoftDeleteUser(ctx, user.ID))
			_, err = s.GetUserByMobile(ctx, "9876543210")
			assert.ErrorIs(t, err, ErrUserNotFound)
			deleted, err := s.ListUsers(ctx, true)
			require.NoError(t, err)
			require.Len(t, deleted, 1)

			require.NoError(t, s.RestoreUser(ctx, user.ID))
			require.NoError(t, s.ForceDeleteUser(ctx, user.ID))
			assert.ErrorIs(t, s.ForceDeleteUser(ctx, user.ID), ErrUserNotFound)
		})
	}
}

func TestDeletedRoleIsNotJoined(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			role := &models.Role{Name: "Porter", Status: models.StatusActive}
			require.NoError(t, s.CreateRole(ctx, role))
			require.NoError(t, s.CreateUser(ctx, &models.User{Name: "Ravi", Mobile: "9000000001", RoleID: role.ID, Status: models.StatusActive}))

			require.NoError(t, s.SoftDeleteRole(ctx, role.ID))

			users, err := s.ListUsers(ctx, false)
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Equal(t, "", users[0].RoleName())
			assert.Equal(t, role.ID, users[0].RoleID)
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)

	s, err := New(config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStorage{}, s)
}

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "rollcall", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rollcall sslmode=disable", dsn)
}
