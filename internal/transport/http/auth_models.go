package http

import "time"

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid credentials"`
}

// AuthUser models the sanitized user representation returned by auth endpoints.
type AuthUser struct {
	ID            string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email         string    `json:"email" example:"isci@example.com"`
	Name          *string   `json:"name,omitempty" example:"Ali Veli"`
	Phone         *string   `json:"phone,omitempty" example:"+905551234567"`
	ImageURL      *string   `json:"image_url,omitempty" example:"https://cdn.example.com/avatar.png"`
	EmailVerified bool      `json:"email_verified" example:"true"`
	PhoneVerified bool      `json:"phone_verified" example:"true"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

// AuthTokenResponse is returned by endpoints that issue JWT tokens.
type AuthTokenResponse struct {
	Token     string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt string   `json:"expires_at" example:"2024-01-02T09:30:00Z"`
	User      AuthUser `json:"user"`
}

// AuthUserResponse wraps a user object.
type AuthUserResponse struct {
	User AuthUser `json:"user"`
}

// OkResponse acknowledges a request without revealing whether the subject
// exists. DevCode is only populated in development deployments when code
// delivery failed.
type OkResponse struct {
	OK      bool   `json:"ok" example:"true"`
	DevCode string `json:"dev_code,omitempty" example:"123456"`
}

// RegisterRequest carries registration fields.
type RegisterRequest struct {
	Email    string  `json:"email" example:"isci@example.com"`
	Password string  `json:"password" example:"calisan123"`
	Name     *string `json:"name,omitempty" example:"Ali Veli"`
	Phone    string  `json:"phone" example:"0555 123 45 67"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"isci@example.com"`
	Password string `json:"password" example:"calisan123"`
}

// SendEmailCodeRequest asks for an email verification code to be (re)sent.
type SendEmailCodeRequest struct {
	Email string `json:"email" example:"isci@example.com"`
}

// SendPhoneCodeRequest asks for an SMS verification code to be (re)sent.
type SendPhoneCodeRequest struct {
	Phone string `json:"phone" example:"0555 123 45 67"`
}

// VerifyEmailRequest carries the email verification payload.
type VerifyEmailRequest struct {
	Email string `json:"email" example:"isci@example.com"`
	Code  string `json:"code" example:"123456"`
}

// VerifyPhoneRequest carries the phone verification payload.
type VerifyPhoneRequest struct {
	Phone string `json:"phone" example:"0555 123 45 67"`
	Code  string `json:"code" example:"123456"`
}

// PasswordResetRequest captures the payload for requesting a reset code.
type PasswordResetRequest struct {
	Email string `json:"email" example:"isci@example.com"`
}

// PasswordResetConfirmRequest captures the payload for confirming a reset.
type PasswordResetConfirmRequest struct {
	Email       string `json:"email" example:"isci@example.com"`
	Code        string `json:"code" example:"123456"`
	NewPassword string `json:"new_password" example:"yenisifre1"`
}
