package flow

import (
	"fmt"
	"net/http"
	"slices"

	"viacarona/internal/gateway"
)

// reply is the part of an API answer the classifiers look at.
type reply struct {
	status  int
	ok      bool
	code    string
	message string
	errors  map[string]string
}

func replyOf[T any](r *gateway.Response[T]) reply {
	return reply{
		status:  r.Status,
		ok:      r.OK(),
		code:    r.ErrorCode,
		message: r.Message,
		errors:  r.Errors,
	}
}

// statusReply judges success by HTTP status alone; login answers are read
// this way and a success flag on a non-2xx answer is ignored.
func statusReply[T any](r *gateway.Response[T]) reply {
	rep := replyOf(r)
	rep.ok = r.Status >= http.StatusOK && r.Status < http.StatusMultipleChoices
	return rep
}

func orDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// LoginClass is the classification of a failed login answer.
type LoginClass int

const (
	LoginFailed LoginClass = iota
	LoginInvalidCredentials
	LoginEmailUnverified
	LoginProfileIncomplete
	LoginUserNotFound
)

func (c LoginClass) String() string {
	switch c {
	case LoginInvalidCredentials:
		return "invalid_credentials"
	case LoginEmailUnverified:
		return "email_unverified"
	case LoginProfileIncomplete:
		return "profile_incomplete"
	case LoginUserNotFound:
		return "user_not_found"
	}
	return "failed"
}

type loginRule struct {
	class    LoginClass
	fallback string
	match    func(status int, code string) bool
}

// loginRules is evaluated in order; the first match wins. A 403 without a
// recognised code matches nothing and ends up as LoginFailed.
var loginRules = []loginRule{
	{LoginInvalidCredentials, MsgLoginInvalidCredential, func(status int, code string) bool {
		return status == http.StatusUnauthorized || code == CodeBadCredentials
	}},
	{LoginEmailUnverified, MsgLoginEmailUnverified, func(status int, code string) bool {
		return status == http.StatusForbidden && code == CodeEmailUnverified
	}},
	{LoginProfileIncomplete, MsgLoginProfileIncomplete, func(status int, code string) bool {
		return status == http.StatusForbidden && code == CodeProfileIncomplete
	}},
	{LoginUserNotFound, MsgLoginUserNotFound, func(status int, code string) bool {
		return status == http.StatusNotFound || code == CodeUserNotFound || code == CodeUser404
	}},
}

// ClassifyLogin maps a failed login answer to its class and default message.
func ClassifyLogin(status int, code string) (LoginClass, string) {
	for _, rule := range loginRules {
		if rule.match(status, code) {
			return rule.class, rule.fallback
		}
	}
	return LoginFailed, MsgLoginFailed
}

// registerFailure returns the message of a failed registration.
func registerFailure(r reply) string {
	switch r.status {
	case http.StatusConflict:
		switch r.code {
		case CodeEmailTaken, CodeUsernameTaken, CodePhoneTaken:
			return codeMessages[r.code]
		}
		return orDefault(r.message, MsgRegisterFailed)
	case http.StatusBadRequest:
		switch {
		case r.code == CodeValidation && len(r.errors) > 0:
			field := firstField(r.errors)
			return fmt.Sprintf("%s: %s", field, r.errors[field])
		case r.code == CodeValidation:
			return orDefault(r.message, MsgRegisterInvalid)
		case r.code == CodeDateFormat:
			return codeMessages[CodeDateFormat]
		}
		return orDefault(r.message, MsgRegisterInvalid)
	}
	return orDefault(r.message, MsgRegisterFailed)
}

// firstField picks the alphabetically first key so the choice is stable.
func firstField(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys[0]
}

// verifyFailure returns the message of a failed verification. Every failure
// clears the code input.
func verifyFailure(r reply) string {
	switch r.code {
	case CodeExpiredCode:
		return MsgVerifyExpired
	case CodeWrongCode:
		return MsgVerifyWrong
	}
	return orDefault(r.message, MsgVerifyFailed)
}

func resendFailure(r reply) string {
	switch {
	case r.status == http.StatusNotFound:
		return MsgResendNotFound
	case r.code == CodeEmailDelivery:
		return MsgResendDelivery
	}
	return orDefault(r.message, MsgResendFailed)
}

func profileFailure(r reply) string {
	if r.code != "" {
		return MessageFor(r.code)
	}
	return orDefault(r.message, MsgProfileFailed)
}

func forgotFailure(r reply) string {
	switch r.code {
	case CodeUserNotFound:
		return orDefault(r.message, MsgForgotNotFound)
	case CodeResetDelivery:
		return orDefault(r.message, MsgForgotDelivery)
	case CodeValidation:
		return orDefault(r.message, MsgForgotInvalid)
	}
	return orDefault(r.message, MsgForgotFailed)
}

func resetFailure(r reply) string {
	switch r.code {
	case CodeInvalidToken:
		return orDefault(r.message, MsgResetInvalidToken)
	case CodeTokenExpired:
		return orDefault(r.message, MsgResetExpiredToken)
	case CodeInvalidPassword:
		return orDefault(r.message, MsgResetBadPassword)
	case CodeValidation:
		return orDefault(r.message, MsgResetInvalid)
	}
	return orDefault(r.message, MsgResetFailed)
}

// transportFailure builds the outcome of a call that got no usable answer.
// A response without JSON reports its status; transport errors use the
// step's connectivity message. A request the gateway refused to send is
// reported as invalid.
func transportFailure(step Step, err error, connectivity, nonJSON string) Outcome {
	switch gateway.KindOf(err) {
	case gateway.KindInvalidRequest:
		return Outcome{Step: step, Result: ResultInvalid, Message: MsgGeneric}
	case gateway.KindNonJSON:
		if nonJSON != "" {
			return Outcome{Step: step, Result: ResultConnectivity, Message: fmt.Sprintf(nonJSON, gateway.StatusOf(err))}
		}
	}
	return Outcome{Step: step, Result: ResultConnectivity, Message: connectivity}
}
