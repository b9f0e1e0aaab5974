package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/otp"
	"github.com/tajious/rollcall/internal/storage"
	"github.com/tajious/rollcall/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	storage     storage.Storage
	otp         *otp.Service
	jwtSecret   string
	jwtDuration time.Duration
	echoOTP     bool
	log         zerolog.Logger
}

type AuthConfig struct {
	JWTSecret   string
	JWTDuration time.Duration
	// EchoOTP returns issued codes in the response body. Development only.
	EchoOTP bool
}

func NewAuthHandler(storage storage.Storage, otpService *otp.Service, cfg AuthConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		storage:     storage,
		otp:         otpService,
		jwtSecret:   cfg.JWTSecret,
		jwtDuration: cfg.JWTDuration,
		echoOTP:     cfg.EchoOTP,
		log:         log,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validation.Check(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.authenticate(c.Context(), req)
	if err != nil {
		if !errors.Is(err, storage.ErrInvalidCredentials) {
			h.log.Error().Err(err).Msg("login lookup failed")
		}
		return fail(c, fiber.StatusUnauthorized, "Invalid mobile number or MPIN")
	}

	if user.Status != models.StatusActive {
		return fail(c, fiber.StatusForbidden, "Account is inactive")
	}

	token, err := h.generateToken(user)
	if err != nil {
		h.log.Error().Err(err).Msg("sign token")
		return fail(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	if err := h.storage.UpdateUserLastLogin(c.Context(), user.ID); err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("update last login")
	}

	return c.JSON(models.LoginResponse{
		Token:     token,
		ExpiresIn: int(h.jwtDuration.Seconds()),
		User:      user,
		Message:   "Login successful",
	})
}

func (h *AuthHandler) authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	user, err := h.storage.GetUserByMobile(ctx, req.Mobile)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, storage.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.MPIN == "" {
		return nil, storage.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.MPIN), []byte(req.MPIN)); err != nil {
		return nil, storage.ErrInvalidCredentials
	}

	return user, nil
}

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := models.Claims{
		UserID: user.ID,
		Mobile: user.Mobile,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	return h.issueOTP(c, "OTP sent successfully")
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	return h.issueOTP(c, "OTP resent successfully")
}

func (h *AuthHandler) issueOTP(c *fiber.Ctx, success string) error {
	var req models.OTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validation.Check(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.registeredUser(c.Context(), req.Mobile); err != nil {
		return h.userLookupFailed(c, err)
	}

	code, err := h.otp.Issue(c.Context(), req.Mobile)
	if err != nil {
		h.log.Error().Err(err).Str("mobile", req.Mobile).Msg("issue otp")
		return fail(c, fiber.StatusInternalServerError, "Failed to send OTP")
	}

	resp := models.OTPResponse{Message: success}
	if h.echoOTP {
		resp.OTP = code
	}
	return c.JSON(resp)
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req models.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validation.Check(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.otp.Verify(c.Context(), req.Mobile, req.OTP); err != nil {
		if errors.Is(err, otp.ErrInvalidCode) {
			return fail(c, fiber.StatusBadRequest, "Invalid or expired OTP")
		}
		h.log.Error().Err(err).Str("mobile", req.Mobile).Msg("verify otp")
		return fail(c, fiber.StatusInternalServerError, "Failed to verify OTP")
	}

	return c.JSON(models.MessageResponse{Message: "OTP verified successfully"})
}

func (h *AuthHandler) SetMPIN(c *fiber.Ctx) error {
	var req models.SetMPINRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validation.Check(req); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.registeredUser(c.Context(), req.Mobile)
	if err != nil {
		return h.userLookupFailed(c, err)
	}

	if err := h.otp.ConsumeVerification(c.Context(), req.Mobile); err != nil {
		if errors.Is(err, otp.ErrNotVerified) {
			return fail(c, fiber.StatusForbidden, "OTP verification required")
		}
		h.log.Error().Err(err).Str("mobile", req.Mobile).Msg("consume otp verification")
		return fail(c, fiber.StatusInternalServerError, "Set MPIN failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.MPIN), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Set MPIN failed")
	}

	if err := h.storage.SetUserMPIN(c.Context(), user.ID, string(hash)); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("store mpin")
		return fail(c, fiber.StatusInternalServerError, "Set MPIN failed")
	}

	return c.JSON(models.MessageResponse{Message: "MPIN updated successfully"})
}

func (h *AuthHandler) registeredUser(ctx context.Context, mobile string) (*models.User, error) {
	return h.storage.GetUserByMobile(ctx, mobile)
}

func (h *AuthHandler) userLookupFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, storage.ErrUserNotFound) {
		return fail(c, fiber.StatusNotFound, "Mobile number not registered")
	}
	h.log.Error().Err(err).Msg("user lookup")
	return fail(c, fiber.StatusInternalServerError, "Something went wrong")
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.MessageResponse{Message: message})
}
