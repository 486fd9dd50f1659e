package gateway

import (
	"encoding/json"
	"io"
)

// Endpoint names, used in logs, metrics and errors.
const (
	EndpointRegister             = "register"
	EndpointVerifyEmail          = "verify_email"
	EndpointResendCode           = "resend_code"
	EndpointCompleteProfile      = "complete_profile"
	EndpointLogin                = "login"
	EndpointSocialSignIn         = "social_sign_in"
	EndpointRequestPasswordReset = "request_password_reset"
	EndpointResetPassword        = "reset_password"
)

// Paths of the auth API, relative to the base URL.
const (
	PathRegister             = "/auth/register"
	PathVerifyEmail          = "/api/email-verification/verify"
	PathResendCode           = "/api/email-verification/resend-code"
	PathCompleteProfile      = "/auth/registerComplete/" // + escaped email
	PathLogin                = "/auth/login"
	PathSocialSignIn         = "/auth/google"
	PathRequestPasswordReset = "/auth/password/request-reset"
	PathResetPassword        = "/auth/password/reset"
)

// Envelope is the JSON body every endpoint answers with.
type Envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Data      json.RawMessage   `json:"data,omitempty"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	// Token is a legacy top-level token some endpoints send beside data.
	Token string `json:"token,omitempty"`
}

// Response is a decoded envelope plus the HTTP status. Data is nil when the
// envelope carried none.
type Response[T any] struct {
	Status    int
	Success   bool
	Message   string
	ErrorCode string
	Errors    map[string]string
	Data      *T
}

// OK reports whether the call succeeded, by envelope flag or 2xx status.
func (r *Response[T]) OK() bool {
	return r.Success || (r.Status >= 200 && r.Status < 300)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type RegisterData struct {
	Email                     string `json:"email"`
	EmailVerificationRequired bool   `json:"emailVerificationRequired"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type VerifyData struct {
	Email string `json:"email"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Ack is the empty payload of endpoints that only confirm.
type Ack struct{}

// Photo is an optional profile picture upload.
type Photo struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// CompleteProfileRequest is sent as multipart form data. Values are already
// normalised: digits only, ISO birth date, uppercase codes.
type CompleteProfileRequest struct {
	Email     string `validate:"required,email"`
	Phone     string `validate:"required,len=11,numeric"`
	BirthDate string `validate:"required,datetime=2006-01-02"`
	Gender    string `validate:"required,oneof=M F O"`
	CPF       string `validate:"required,len=11,numeric"`
	State     string `validate:"required,len=2,uppercase"`
	City      string `validate:"required"`
	Photo     *Photo `validate:"-"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SocialSignInRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// TokenData is returned by the endpoints that open a session.
type TokenData struct {
	Token           string `json:"token"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
	PictureURL      string `json:"pictureUrl,omitempty"`
	ProfileComplete *bool  `json:"profileComplete,omitempty"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type PasswordResetData struct {
	Message string `json:"message,omitempty"`
	Email   string `json:"email,omitempty"`
}
