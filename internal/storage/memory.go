package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tajious/rollcall/internal/models"
	"gorm.io/gorm"
)

type InMemoryStorage struct {
	mu    sync.RWMutex
	users map[string]*models.User
	roles map[string]*models.Role
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		users: make(map[string]*models.User),
		roles: make(map[string]*models.Role),
	}
}

func (s *InMemoryStorage) ListUsers(ctx context.Context, deleted bool) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, u := range s.users {
		if u.DeletedAt.Valid != deleted {
			continue
		}
		users = append(users, s.withRole(*u))
	}
	sort.Slice(users, func(i, j int) bool { return createdBefore(users[i].CreatedAt, users[j].CreatedAt, users[i].ID, users[j].ID) })
	return users, nil
}

func (s *InMemoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, ErrUserNotFound
	}
	out := s.withRole(*u)
	return &out, nil
}

func (s *InMemoryStorage) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Mobile == mobile && !u.DeletedAt.Valid {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *InMemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Mobile == user.Mobile {
			return ErrMobileTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	stored.Role = nil
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemoryStorage) UpdateUser(ctx context.Context, id string, payload models.UserPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt.Valid {
		return ErrUserNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Mobile == payload.Mobile {
			return ErrMobileTaken
		}
	}
	u.Name = payload.Name
	u.Mobile = payload.Mobile
	u.Status = payload.Status
	u.RoleID = payload.RoleID
	u.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStorage) SetUserMPIN(ctx context.Context, id, hash string) error {
	return s.touchUser(id, func(u *models.User) { u.MPIN = hash })
}

func (s *InMemoryStorage) UpdateUserLastLogin(ctx context.Context, id string) error {
	return s.touchUser(id, func(u *models.User) {
		now := time.Now()
		u.LastLogin = &now
	})
}

func (s *InMemoryStorage) SoftDeleteUser(ctx context.Context, id string) error {
	return s.touchUser(id, func(u *models.User) {
		u.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	})
}

func (s *InMemoryStorage) RestoreUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !u.DeletedAt.Valid {
		return ErrUserNotFound
	}
	u.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (s *InMemoryStorage) ForceDeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *InMemoryStorage) ListRoles(ctx context.Context, deleted bool) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := []models.Role{}
	for _, r := range s.roles {
		if r.DeletedAt.Valid == deleted {
			roles = append(roles, *r)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return createdBefore(roles[i].CreatedAt, roles[j].CreatedAt, roles[i].ID, roles[j].ID) })
	return roles, nil
}

func (s *InMemoryStorage) GetRole(ctx context.Context, id string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[id]
	if !ok || r.DeletedAt.Valid {
		return nil, ErrRoleNotFound
	}
	out := *r
	return &out, nil
}

func (s *InMemoryStorage) CreateRole(ctx context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now()
	role.CreatedAt, role.UpdatedAt = now, now
	stored := *role
	s.roles[role.ID] = &stored
	return nil
}

func (s *InMemoryStorage) UpdateRole(ctx context.Context, id string, payload models.RolePayload) error {
	return s.touchRole(id, func(r *models.Role) {
		r.Name = payload.Name
		r.Description = payload.Description
		r.Status = payload.Status
		r.UpdatedAt = time.Now()
	})
}

func (s *InMemoryStorage) SoftDeleteRole(ctx context.Context, id string) error {
	return s.touchRole(id, func(r *models.Role) {
		r.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	})
}

func (s *InMemoryStorage) RestoreRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[id]
	if !ok || !r.DeletedAt.Valid {
		return ErrRoleNotFound
	}
	r.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (s *InMemoryStorage) ForceDeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return ErrRoleNotFound
	}
	delete(s.roles, id)
	return nil
}

// withRole joins the live role onto a copy of u. Caller holds the lock.
func (s *InMemoryStorage) withRole(u models.User) models.User {
	u.Role = nil
	if r, ok := s.roles[u.RoleID]; ok && !r.DeletedAt.Valid {
		role := *r
		u.Role = &role
	}
	return u
}

func (s *InMemoryStorage) touchUser(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt.Valid {
		return ErrUserNotFound
	}
	fn(u)
	return nil
}

func (s *InMemoryStorage) touchRole(id string, fn func(*models.Role)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[id]
	if !ok || r.DeletedAt.Valid {
		return ErrRoleNotFound
	}
	fn(r)
	return nil
}

func createdBefore(a, b time.Time, idA, idB string) bool {
	if a.Equal(b) {
		return idA < idB
	}
	return a.Before(b)
}
