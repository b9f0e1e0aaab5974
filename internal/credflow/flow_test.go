package credflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tajious/rollcall/internal/client"
	"github.com/tajious/rollcall/internal/session"
)

type mockAPI struct {
	mu    sync.Mutex
	calls []string

	SendOTPFunc   func(ctx context.Context, mobile string) (string, error)
	VerifyOTPFunc func(ctx context.Context, mobile, otp string) (string, error)
	LoginFunc     func(ctx context.Context, mobile, mpin string) (*client.LoginResult, error)
}

func (m *mockAPI) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockAPI) SendOTP(ctx context.Context, mobile string) (string, error) {
	m.record("send-otp:" + mobile)
	if m.SendOTPFunc != nil {
		return m.SendOTPFunc(ctx, mobile)
	}
	return "OTP sent", nil
}

func (m *mockAPI) ResendOTP(ctx context.Context, mobile string) (string, error) {
	m.record("resend-otp:" + mobile)
	return "", nil
}

func (m *mockAPI) VerifyOTP(ctx context.Context, mobile, otp string) (string, error) {
	m.record("verify-otp:" + mobile + ":" + otp)
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, mobile, otp)
	}
	return "OTP verified", nil
}

func (m *mockAPI) SetMPIN(ctx context.Context, mobile, mpin string) (string, error) {
	m.record("set-mpin:" + mobile + ":" + mpin)
	return "MPIN updated successfully", nil
}

func (m *mockAPI) Login(ctx context.Context, mobile, mpin string) (*client.LoginResult, error) {
	m.record("login:" + mobile + ":" + mpin)
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, mobile, mpin)
	}
	return &client.LoginResult{
		Token:   "abc123",
		User:    json.RawMessage(`{"id":"u1","name":"Asha"}`),
		Message: "Login successful",
	}, nil
}

func newFlow(t *testing.T, api API) (*Flow, *session.Auth, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	auth, err := session.NewAuth(store)
	require.NoError(t, err)
	return New(api, auth, zerolog.Nop()), auth, store
}

func TestResetAndLoginSequence(t *testing.T) {
	api := &mockAPI{}
	flow, auth, store := newFlow(t, api)
	ctx := context.Background()

	msg, err := flow.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent", msg)
	assert.Equal(t, OTPSent, flow.State())
	assert.Equal(t, "9876543210", flow.Mobile())

	msg, err = flow.VerifyOTP(ctx, "4821")
	require.NoError(t, err)
	assert.Equal(t, "OTP verified", msg)
	assert.Equal(t, OTPVerified, flow.State())

	msg, err = flow.SetMPIN(ctx, "1234", "1234")
	require.NoError(t, err)
	assert.Equal(t, "MPIN updated successfully", msg)
	assert.Equal(t, CredentialSet, flow.State())

	res, err := flow.Login(ctx, "9876543210", "1234")
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.Token)
	assert.Equal(t, LoggedIn, flow.State())

	assert.Equal(t, "abc123", auth.Token())
	persisted, ok, err := store.Get(session.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", persisted)

	assert.Equal(t, []string{
		"send-otp:9876543210",
		"verify-otp:9876543210:4821",
		"set-mpin:9876543210:1234",
		"login:9876543210:1234",
	}, api.Calls())
}

func TestInputRejectedWithoutNetworkCall(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context, f *Flow) error
		want error
	}{
		{"short mobile", func(ctx context.Context, f *Flow) error {
			_, err := f.RequestOTP(ctx, "98765")
			return err
		}, ErrInvalidMobile},
		{"letters in mobile", func(ctx context.Context, f *Flow) error {
			_, err := f.RequestOTP(ctx, "98765abcde")
			return err
		}, ErrInvalidMobile},
		{"empty otp", func(ctx context.Context, f *Flow) error {
			_, err := f.VerifyOTP(ctx, "")
			return err
		}, ErrEmptyOTP},
		{"five digit mpin", func(ctx context.Context, f *Flow) error {
			_, err := f.SetMPIN(ctx, "12345", "12345")
			return err
		}, ErrInvalidMPIN},
		{"mismatched mpin", func(ctx context.Context, f *Flow) error {
			_, err := f.SetMPIN(ctx, "1234", "4321")
			return err
		}, ErrMPINMismatch},
		{"login bad mobile", func(ctx context.Context, f *Flow) error {
			_, err := f.Login(ctx, "123", "1234")
			return err
		}, ErrInvalidMobile},
		{"login bad mpin", func(ctx context.Context, f *Flow) error {
			_, err := f.Login(ctx, "9876543210", "12")
			return err
		}, ErrInvalidMPIN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			flow, _, _ := newFlow(t, api)
			err := tt.run(context.Background(), flow)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, api.Calls())
		})
	}
}

func TestStepsOutOfOrder(t *testing.T) {
	api := &mockAPI{}
	flow, _, _ := newFlow(t, api)
	ctx := context.Background()

	_, err := flow.ResendOTP(ctx)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	_, err = flow.VerifyOTP(ctx, "4821")
	assert.ErrorIs(t, err, ErrOutOfOrder)
	_, err = flow.SetMPIN(ctx, "1234", "1234")
	assert.ErrorIs(t, err, ErrOutOfOrder)

	_, err = flow.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)
	_, err = flow.SetMPIN(ctx, "1234", "1234")
	assert.ErrorIs(t, err, ErrOutOfOrder, "set mpin needs a verified otp")

	assert.Equal(t, []string{"send-otp:9876543210"}, api.Calls())
}

func TestWrongOTPStaysInOTPSent(t *testing.T) {
	api := &mockAPI{
		VerifyOTPFunc: func(ctx context.Context, mobile, otp string) (string, error) {
			if otp != "4821" {
				return "", &client.Error{Message: "Invalid or expired OTP"}
			}
			return "", nil
		},
	}
	flow, _, _ := newFlow(t, api)
	ctx := context.Background()

	_, err := flow.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = flow.VerifyOTP(ctx, "0000")
		assert.EqualError(t, err, "Invalid or expired OTP")
		assert.Equal(t, OTPSent, flow.State())
	}

	msg, err := flow.ResendOTP(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OTP resent", msg)

	msg, err = flow.VerifyOTP(ctx, "4821")
	require.NoError(t, err)
	assert.Equal(t, "OTP verified", msg)
	assert.Equal(t, OTPVerified, flow.State())
}

func TestRequestOTPFailureKeepsState(t *testing.T) {
	api := &mockAPI{
		SendOTPFunc: func(ctx context.Context, mobile string) (string, error) {
			return "", &client.Error{Message: "Mobile number not registered"}
		},
	}
	flow, _, _ := newFlow(t, api)

	_, err := flow.RequestOTP(context.Background(), "9876543210")
	assert.EqualError(t, err, "Mobile number not registered")
	assert.Equal(t, AwaitingMobile, flow.State())
	assert.Empty(t, flow.Mobile())
}

func TestLoginWithoutTokenPersistsNothing(t *testing.T) {
	api := &mockAPI{
		LoginFunc: func(ctx context.Context, mobile, mpin string) (*client.LoginResult, error) {
			return &client.LoginResult{Message: "Account pending approval"}, nil
		},
	}
	flow, auth, _ := newFlow(t, api)

	_, err := flow.Login(context.Background(), "9876543210", "1234")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, auth.Present())
	assert.Equal(t, AwaitingMobile, flow.State())
}

func TestLoginFailurePropagatesMessage(t *testing.T) {
	api := &mockAPI{
		LoginFunc: func(ctx context.Context, mobile, mpin string) (*client.LoginResult, error) {
			return nil, &client.Error{Message: "Invalid mobile number or MPIN"}
		},
	}
	flow, auth, _ := newFlow(t, api)

	_, err := flow.Login(context.Background(), "9876543210", "1234")
	var cerr *client.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "Invalid mobile number or MPIN", cerr.Message)
	assert.False(t, auth.Present())
}

func TestReset(t *testing.T) {
	flow, _, _ := newFlow(t, &mockAPI{})
	ctx := context.Background()

	_, err := flow.RequestOTP(ctx, "9876543210")
	require.NoError(t, err)
	flow.Reset()

	assert.Equal(t, AwaitingMobile, flow.State())
	assert.Empty(t, flow.Mobile())
	_, err = flow.VerifyOTP(ctx, "4821")
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestOverlappingOTPRequestsForDifferentMobilesBothSend(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &mockAPI{
		SendOTPFunc: func(ctx context.Context, mobile string) (string, error) {
			if mobile == "9876543210" {
				close(started)
				<-release
			}
			return "OTP sent", nil
		},
	}
	flow, _, _ := newFlow(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := flow.RequestOTP(ctx, "9876543210")
		done <- err
	}()
	<-started

	_, err := flow.RequestOTP(ctx, "9123456789")
	require.NoError(t, err)
	assert.Equal(t, "9123456789", flow.Mobile())
	assert.Contains(t, api.Calls(), "send-otp:9123456789")

	close(release)
	require.NoError(t, <-done)

	assert.ElementsMatch(t, []string{"send-otp:9876543210", "send-otp:9123456789"}, api.Calls())
	assert.Contains(t, api.Calls(), "send-otp:"+flow.Mobile())
	assert.Equal(t, OTPSent, flow.State())
}

func TestOverlappingLoginsWithDifferentCredentialsBothRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &mockAPI{}
	api.LoginFunc = func(ctx context.Context, mobile, mpin string) (*client.LoginResult, error) {
		if mpin == "1234" {
			close(started)
			<-release
			return &client.LoginResult{Token: "abc123"}, nil
		}
		return nil, &client.Error{Message: "Invalid mobile number or MPIN"}
	}
	flow, _, _ := newFlow(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := flow.Login(ctx, "9876543210", "1234")
		done <- err
	}()
	<-started

	_, err := flow.Login(ctx, "9876543210", "9999")
	assert.EqualError(t, err, "Invalid mobile number or MPIN")

	close(release)
	require.NoError(t, <-done)
	assert.ElementsMatch(t, []string{"login:9876543210:1234", "login:9876543210:9999"}, api.Calls())
}
