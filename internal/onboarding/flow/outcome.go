package flow

import (
	"fmt"

	"viacarona/internal/onboarding/models"
)

// API error codes the classifiers know about.
const (
	CodeEmailUnverified   = "AUTH_001"
	CodeBadCredentials    = "AUTH_002"
	CodeAuthSystem        = "AUTH_003"
	CodeSessionExpired    = "AUTH_004"
	CodeEmailTaken        = "USER_001"
	CodeUsernameTaken     = "USER_002"
	CodePhoneTaken        = "USER_003"
	CodeCPFTaken          = "USER_004"
	CodeProfileIncomplete = "USER_005"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeUser404           = "USER_404"
	CodeDateFormat        = "VALIDATION_001"
	CodeValidation        = "VALIDATION_ERROR"
	CodeWrongCode         = "VERIFICATION_001"
	CodeExpiredCode       = "VERIFICATION_002"
	CodeEmailDelivery     = "VERIFICATION_003"
	CodeResetDelivery     = "EMAIL_SENDING_ERROR"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeInvalidPassword   = "INVALID_PASSWORD"
)

// Step is a submit-style operation of the flow. Each step has its own
// loading flag.
type Step int

const (
	StepRegister Step = iota
	StepVerifyEmail
	StepResendCode
	StepCompleteProfile
	StepLogin
	StepSocialSignIn
	StepRequestPasswordReset
	StepResetPassword
)

func (s Step) String() string {
	switch s {
	case StepRegister:
		return "register"
	case StepVerifyEmail:
		return "verify_email"
	case StepResendCode:
		return "resend_code"
	case StepCompleteProfile:
		return "complete_profile"
	case StepLogin:
		return "login"
	case StepSocialSignIn:
		return "social_sign_in"
	case StepRequestPasswordReset:
		return "request_password_reset"
	case StepResetPassword:
		return "reset_password"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Result classifies how a step ended.
type Result int

const (
	ResultSuccess Result = iota
	// ResultInvalid: local validation failed; no request was sent.
	ResultInvalid
	// ResultConnectivity: transport failure or a response without JSON.
	ResultConnectivity
	// ResultRejected: the API answered with a business error.
	ResultRejected
	// ResultUnexpected: a 2xx answer lacked a required payload.
	ResultUnexpected
	// ResultRedirect: a recovery redirect to an earlier view was scheduled.
	ResultRedirect
	// ResultDiscarded: the answer arrived after the view changed.
	ResultDiscarded
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultInvalid:
		return "invalid"
	case ResultConnectivity:
		return "connectivity"
	case ResultRejected:
		return "rejected"
	case ResultUnexpected:
		return "unexpected"
	case ResultRedirect:
		return "redirect"
	case ResultDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Outcome is what a step hands back to the host.
type Outcome struct {
	Step    Step
	Result  Result
	Message string
	// Field is the first failing field of a ResultInvalid outcome, for
	// host-chosen feedback. Empty when the failure is not tied to a field.
	Field models.FieldKey
	// ErrorCode is the API error code, when the API sent one.
	ErrorCode string
	// Transition is the navigation the step decided, if any. A non-zero
	// Delay means it is pending and is cancelled by leaving the view.
	Transition *models.Transition
	// ClearCode asks the host to empty the verification code input.
	ClearCode bool
}
