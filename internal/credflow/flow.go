// Package credflow sequences the OTP-gated MPIN reset and the MPIN login.
//
//	AwaitingMobile -> OTPSent -> OTPVerified -> CredentialSet -> LoggedIn
//
// Login is reachable from every state. Progress lives only in memory.
package credflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/client"
	"github.com/tajious/rollcall/internal/inflight"
	"github.com/tajious/rollcall/internal/session"
	"github.com/tajious/rollcall/internal/validation"
)

type State int

const (
	AwaitingMobile State = iota
	OTPSent
	OTPVerified
	CredentialSet
	LoggedIn
)

func (s State) String() string {
	switch s {
	case AwaitingMobile:
		return "awaiting_mobile"
	case OTPSent:
		return "otp_sent"
	case OTPVerified:
		return "otp_verified"
	case CredentialSet:
		return "credential_set"
	case LoggedIn:
		return "logged_in"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrInvalidMobile = &validation.Error{Field: "Mobile", Message: "Enter valid 10 digit mobile number"}
	ErrEmptyOTP      = &validation.Error{Field: "OTP", Message: "Please enter OTP"}
	ErrInvalidMPIN   = &validation.Error{Field: "MPIN", Message: "MPIN must be 4 or 6 digits"}
	ErrMPINMismatch  = &validation.Error{Field: "ConfirmMPIN", Message: "MPIN does not match"}
	ErrOutOfOrder    = errors.New("step not available in the current state")
	ErrNoToken       = errors.New("login response carried no token")
)

// API is the slice of the backend the flow drives. *client.Client satisfies it.
type API interface {
	SendOTP(ctx context.Context, mobile string) (string, error)
	ResendOTP(ctx context.Context, mobile string) (string, error)
	VerifyOTP(ctx context.Context, mobile, otp string) (string, error)
	SetMPIN(ctx context.Context, mobile, mpin string) (string, error)
	Login(ctx context.Context, mobile, mpin string) (*client.LoginResult, error)
}

type Flow struct {
	api   API
	auth  *session.Auth
	log   zerolog.Logger
	guard inflight.Group

	mu     sync.Mutex
	state  State
	mobile string
}

func New(api API, auth *session.Auth, log zerolog.Logger) *Flow {
	return &Flow{api: api, auth: auth, log: log}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Mobile is the number the reset is running for, empty before RequestOTP.
func (f *Flow) Mobile() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mobile
}

// Reset abandons any reset in progress.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = AwaitingMobile
	f.mobile = ""
}

// RequestOTP starts a reset for mobile. It may be called again from any
// state to restart with a different number.
func (f *Flow) RequestOTP(ctx context.Context, mobile string) (string, error) {
	if !validation.ValidMobile(mobile) {
		return "", ErrInvalidMobile
	}
	msg, err := inflight.Value(ctx, &f.guard, inflight.Key("send-otp", mobile), func(ctx context.Context) (string, error) {
		return f.api.SendOTP(ctx, mobile)
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("send otp")
		return "", err
	}

	f.mu.Lock()
	f.state = OTPSent
	f.mobile = mobile
	f.mu.Unlock()

	f.log.Info().Str("state", OTPSent.String()).Msg("otp requested")
	return orDefault(msg, "OTP sent"), nil
}

// ResendOTP asks for a fresh code for the held mobile. The previous code is
// superseded on the server; no cooldown applies here.
func (f *Flow) ResendOTP(ctx context.Context) (string, error) {
	mobile, err := f.require(OTPSent)
	if err != nil {
		return "", err
	}
	msg, err := inflight.Value(ctx, &f.guard, inflight.Key("resend-otp", mobile), func(ctx context.Context) (string, error) {
		return f.api.ResendOTP(ctx, mobile)
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("resend otp")
		return "", err
	}
	return orDefault(msg, "OTP resent"), nil
}

// VerifyOTP checks code against the held mobile. A wrong code leaves the flow
// in OTPSent with no attempt counting.
func (f *Flow) VerifyOTP(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", ErrEmptyOTP
	}
	mobile, err := f.require(OTPSent)
	if err != nil {
		return "", err
	}
	msg, err := inflight.Value(ctx, &f.guard, inflight.Key("verify-otp", mobile, code), func(ctx context.Context) (string, error) {
		return f.api.VerifyOTP(ctx, mobile, code)
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("verify otp")
		return "", err
	}

	f.advance(OTPSent, OTPVerified)
	return orDefault(msg, "OTP verified"), nil
}

// SetMPIN stores a new MPIN once the OTP has been verified. Length and
// confirmation are checked before anything is sent.
func (f *Flow) SetMPIN(ctx context.Context, mpin, confirm string) (string, error) {
	if !validation.ValidMPIN(mpin) {
		return "", ErrInvalidMPIN
	}
	if mpin != confirm {
		return "", ErrMPINMismatch
	}
	mobile, err := f.require(OTPVerified)
	if err != nil {
		return "", err
	}
	msg, err := inflight.Value(ctx, &f.guard, inflight.Key("set-mpin", mobile, mpin), func(ctx context.Context) (string, error) {
		return f.api.SetMPIN(ctx, mobile, mpin)
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("set mpin")
		return "", err
	}

	f.advance(OTPVerified, CredentialSet)
	return orDefault(msg, "MPIN updated successfully"), nil
}

// Login exchanges mobile and MPIN for a session and persists it.
func (f *Flow) Login(ctx context.Context, mobile, mpin string) (*client.LoginResult, error) {
	if !validation.ValidMobile(mobile) {
		return nil, ErrInvalidMobile
	}
	if !validation.ValidMPIN(mpin) {
		return nil, ErrInvalidMPIN
	}
	res, err := inflight.Value(ctx, &f.guard, inflight.Key("login", mobile, mpin), func(ctx context.Context) (*client.LoginResult, error) {
		return f.api.Login(ctx, mobile, mpin)
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("login")
		return nil, err
	}
	if res == nil || res.Token == "" {
		return nil, ErrNoToken
	}
	if err := f.auth.Set(res.Token, res.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	f.mu.Lock()
	f.state = LoggedIn
	f.mobile = ""
	f.mu.Unlock()

	f.log.Info().Str("state", LoggedIn.String()).Msg("logged in")
	return res, nil
}

func (f *Flow) require(want State) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != want {
		return "", fmt.Errorf("%w: in %s, need %s", ErrOutOfOrder, f.state, want)
	}
	return f.mobile, nil
}

// advance moves from one state to the next unless Reset or RequestOTP moved
// the flow elsewhere while the call was in flight.
func (f *Flow) advance(from, to State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == from {
		f.state = to
		f.log.Info().Str("state", to.String()).Msg("credential flow advanced")
	}
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
