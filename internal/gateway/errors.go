package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a call produced no usable JSON response.
type ErrorKind string

const (
	// KindTransport: the request failed before any response arrived.
	KindTransport ErrorKind = "transport"
	// KindNonJSON: the server answered with something other than JSON.
	KindNonJSON ErrorKind = "non_json"
	// KindDecode: the body claimed to be JSON but did not decode.
	KindDecode ErrorKind = "decode"
	// KindInvalidRequest: the request failed local validation and was not sent.
	KindInvalidRequest ErrorKind = "invalid_request"
)

// Error is returned by the client instead of a Response. Business failures
// (4xx/5xx with a JSON envelope) are not errors; they come back as Responses.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	// Status is the HTTP status when a response was received, else 0.
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("gateway %s [%s]", e.Endpoint, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status %d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, endpoint string, status int, msg string, err error) *Error {
	return &Error{Kind: kind, Endpoint: endpoint, Status: status, Message: msg, Err: err}
}

// KindOf extracts the kind of a gateway error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by a gateway error, or 0.
func StatusOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}

// IsTransport reports whether err means no response was received at all.
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}
