package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tajious/rollcall/internal/models"
)

// LoginResult keeps the user payload opaque; it is persisted as-is.
type LoginResult struct {
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	Message string          `json:"message"`
}

func (c *Client) Login(ctx context.Context, mobile, mpin string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     PathLogin,
		body:     models.LoginRequest{Mobile: mobile, MPIN: mpin},
		out:      &out,
		fallback: "Login failed",
		public:   true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SendOTP asks the backend to deliver a code to mobile. Any code echoed in the
// response body is ignored; codes reach the user through the SMS channel only.
func (c *Client) SendOTP(ctx context.Context, mobile string) (string, error) {
	return c.message(ctx, PathSendOTP, models.OTPRequest{Mobile: mobile}, "Send OTP failed")
}

func (c *Client) ResendOTP(ctx context.Context, mobile string) (string, error) {
	return c.message(ctx, PathResendOTP, models.OTPRequest{Mobile: mobile}, "Failed to resend OTP")
}

func (c *Client) VerifyOTP(ctx context.Context, mobile, otp string) (string, error) {
	return c.message(ctx, PathVerifyOTP, models.VerifyOTPRequest{Mobile: mobile, OTP: otp}, "Verify OTP failed")
}

func (c *Client) SetMPIN(ctx context.Context, mobile, mpin string) (string, error) {
	return c.message(ctx, PathSetMPIN, models.SetMPINRequest{Mobile: mobile, MPIN: mpin}, "Set MPIN failed")
}

func (c *Client) message(ctx context.Context, path string, body interface{}, fallback string) (string, error) {
	var out models.MessageResponse
	if err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     path,
		body:     body,
		out:      &out,
		fallback: fallback,
	}); err != nil {
		return "", err
	}
	return out.Message, nil
}
