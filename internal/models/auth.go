package models

type LoginRequest struct {
	Mobile string `json:"mobile" validate:"mobile"`
	MPIN   string `json:"mpin" validate:"mpin"`
}

type LoginResponse struct {
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
	User      *User  `json:"user,omitempty"`
	Message   string `json:"message"`
}

type OTPRequest struct {
	Mobile string `json:"mobile" validate:"mobile"`
}

// OTPResponse carries the issued code only when the server runs with OTP echo
// enabled. Clients never read it.
type OTPResponse struct {
	OTP     string `json:"otp,omitempty"`
	Message string `json:"message"`
}

type VerifyOTPRequest struct {
	Mobile string `json:"mobile" validate:"mobile"`
	OTP    string `json:"otp" validate:"required,numeric"`
}

type SetMPINRequest struct {
	Mobile string `json:"mobile" validate:"mobile"`
	MPIN   string `json:"mpin" validate:"mpin"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
