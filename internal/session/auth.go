// Package session holds the authentication context threaded through the API
// client: a bearer token and the opaque user payload returned at login.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tajious/rollcall/internal/models"
)

var ErrNoSession = errors.New("not logged in")

// Auth is absent until Set is called after a successful login and absent again
// after Clear. Every change is written through to the backing Store.
type Auth struct {
	mu    sync.RWMutex
	store Store
	token string
	user  json.RawMessage
}

// NewAuth loads any session already persisted in store.
func NewAuth(store Store) (*Auth, error) {
	a := &Auth{store: store}

	token, ok, err := store.Get(KeyToken)
	if err != nil {
		return nil, err
	}
	if ok {
		a.token = token
	}
	user, ok, err := store.Get(KeyUser)
	if err != nil {
		return nil, err
	}
	if ok && user != "" {
		a.user = json.RawMessage(user)
	}
	return a, nil
}

func (a *Auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *Auth) User() json.RawMessage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

func (a *Auth) Present() bool {
	return a.Token() != ""
}

func (a *Auth) Set(token string, user json.RawMessage) error {
	if token == "" {
		return errors.New("empty token")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.SetAll(map[string]string{KeyToken: token, KeyUser: string(user)}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	a.token = token
	a.user = user
	return nil
}

func (a *Auth) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Delete(KeyToken, KeyUser); err != nil {
		return err
	}
	a.token = ""
	a.user = nil
	return nil
}

type TokenInfo struct {
	UserID    string
	Mobile    string
	ExpiresAt time.Time
}

// Inspect decodes the token claims without verifying the signature. It is
// for display only; the server remains the authority on validity.
func (a *Auth) Inspect() (*TokenInfo, error) {
	token := a.Token()
	if token == "" {
		return nil, ErrNoSession
	}
	claims := &models.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	info := &TokenInfo{UserID: claims.UserID, Mobile: claims.Mobile}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
