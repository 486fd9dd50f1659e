package sandbox

import (
	"fmt"
	"net/http"
)

// Error codes of the auth API.
const (
	CodeEmailUnverified    = "AUTH_001"
	CodeBadCredentials     = "AUTH_002"
	CodeTokenIssue         = "AUTH_003"
	CodeInvalidSession     = "AUTH_004"
	CodeEmailTaken         = "USER_001"
	CodeUsernameTaken      = "USER_002"
	CodePhoneTaken         = "USER_003"
	CodeCPFTaken           = "USER_004"
	CodeProfileIncomplete  = "USER_005"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeDateFormat         = "VALIDATION_001"
	CodeValidation         = "VALIDATION_ERROR"
	CodeWrongCode          = "VERIFICATION_001"
	CodeExpiredCode        = "VERIFICATION_002"
	CodeEmailDelivery      = "VERIFICATION_003"
	CodeAlreadyVerified    = "VERIFICATION_004"
	CodeProfileComplete    = "USER_006"
	CodeInvalidResetToken  = "INVALID_TOKEN"
	CodeExpiredResetToken  = "TOKEN_EXPIRED"
	CodeInvalidNewPassword = "INVALID_PASSWORD"
)

// APIError is a business failure rendered as an error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func apiError(status int, code, msg string) *APIError {
	return &APIError{Status: status, Code: code, Message: msg}
}

func validationError(fields map[string]string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: "Erro de validação nos campos",
		Fields:  fields,
	}
}

var (
	errUserNotFound = apiError(http.StatusNotFound, CodeUserNotFound, "Usuário não encontrado")
	errInternal     = apiError(http.StatusInternalServerError, "INTERNAL_ERROR", "Erro interno do servidor")
)
