// Package apitest runs the reference backend in process for end-to-end tests
// of the client packages.
package apitest

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/tajious/rollcall/internal/api"
	"github.com/tajious/rollcall/internal/config"
	"github.com/tajious/rollcall/internal/middleware"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/otp"
	"github.com/tajious/rollcall/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// BaseURL is the address clients should be pointed at. The host is never
// resolved: requests go straight to the fiber app.
const BaseURL = "http://rollcall.test/api"

var codePattern = regexp.MustCompile(`code is: ([0-9]+)`)

// Outbox records every message the backend would have sent by SMS.
type Outbox struct {
	mu       sync.Mutex
	messages map[string][]string
}

func (o *Outbox) Send(ctx context.Context, mobile, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.messages == nil {
		o.messages = make(map[string][]string)
	}
	o.messages[mobile] = append(o.messages[mobile], message)
	return nil
}

// LastCode returns the most recent code delivered to mobile.
func (o *Outbox) LastCode(mobile string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := o.messages[mobile]
	if len(msgs) == 0 {
		return ""
	}
	m := codePattern.FindStringSubmatch(msgs[len(msgs)-1])
	if m == nil {
		return ""
	}
	return m[1]
}

func (o *Outbox) Count(mobile string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages[mobile])
}

type Backend struct {
	App     *fiber.App
	Storage *storage.InMemoryStorage
	Outbox  *Outbox
	Config  *config.Config
}

// New starts a backend on in-memory storage. Rate limiting is off and OTP
// codes are captured by the Outbox. opts may adjust the config before the
// app is built.
func New(t testing.TB, opts ...func(*config.Config)) *Backend {
	t.Helper()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:           "apitest-secret",
			AccessExpiration: time.Hour,
		},
		OTP: config.OTPConfig{
			Length:      4,
			TTL:         5 * time.Minute,
			VerifiedTTL: 10 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store := storage.NewInMemoryStorage()
	outbox := &Outbox{}
	otpService := otp.NewService(otp.NewMemoryStore(), outbox, otp.Config{
		Length:      cfg.OTP.Length,
		TTL:         cfg.OTP.TTL,
		VerifiedTTL: cfg.OTP.VerifiedTTL,
	})

	app := api.New(api.Deps{
		Config:    cfg,
		Storage:   store,
		OTP:       otpService,
		RateStore: middleware.NewMemoryStore(),
		Log:       zerolog.Nop(),
	})

	return &Backend{
		App:     app,
		Storage: store,
		Outbox:  outbox,
		Config:  cfg,
	}
}

// HTTPClient returns a client whose requests are served by the fiber app.
func (b *Backend) HTTPClient() *http.Client {
	return &http.Client{Transport: transport{app: b.App}}
}

// SeedUser stores an active user. An empty mpin leaves the user without
// credentials, as after an admin creates them.
func (b *Backend) SeedUser(t testing.TB, name, mobile, mpin string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Mobile: mobile, Status: models.StatusActive}
	if mpin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(mpin), bcrypt.MinCost)
		require.NoError(t, err)
		user.MPIN = string(hash)
	}
	require.NoError(t, b.Storage.CreateUser(context.Background(), user))
	return user
}

type transport struct {
	app *fiber.App
}

func (tr transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := tr.app.Test(req, -1)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}
