// Package otp issues and checks the one-time codes that gate an MPIN reset.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	ErrInvalidCode = errors.New("invalid otp")
	ErrNotVerified = errors.New("otp verification required")
)

type Config struct {
	Length      int
	TTL         time.Duration
	VerifiedTTL time.Duration
}

type Service struct {
	store  Store
	sender Sender
	config Config
}

func NewService(store Store, sender Sender, config Config) *Service {
	if config.Length <= 0 {
		config.Length = 4
	}
	return &Service{store: store, sender: sender, config: config}
}

// Issue creates a code for mobile, replacing any earlier one, and delivers it.
func (s *Service) Issue(ctx context.Context, mobile string) (string, error) {
	code, err := s.generateSecureCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP code: %w", err)
	}

	if err := s.store.SaveCode(ctx, mobile, code, s.config.TTL); err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}

	message := fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, int(s.config.TTL.Minutes()))
	if err := s.sender.Send(ctx, mobile, message); err != nil {
		_ = s.store.DeleteCode(ctx, mobile)
		return "", err
	}

	return code, nil
}

// Verify consumes the code on success and leaves a marker allowing one MPIN
// change for the mobile.
func (s *Service) Verify(ctx context.Context, mobile, code string) error {
	stored, ok, err := s.store.Code(ctx, mobile)
	if err != nil {
		return err
	}
	if !ok || stored != code {
		return ErrInvalidCode
	}
	if err := s.store.DeleteCode(ctx, mobile); err != nil {
		return err
	}
	return s.store.MarkVerified(ctx, mobile, s.config.VerifiedTTL)
}

func (s *Service) ConsumeVerification(ctx context.Context, mobile string) error {
	ok, err := s.store.TakeVerified(ctx, mobile)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotVerified
	}
	return nil
}

func (s *Service) generateSecureCode() (string, error) {
	digits := make([]byte, s.config.Length)

	for i := 0; i < s.config.Length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}
