package flow

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"viacarona/internal/gateway"
)

func TestClassifyLogin(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   LoginClass
		msg    string
	}{
		{"401 without code", http.StatusUnauthorized, "", LoginInvalidCredentials, MsgLoginInvalidCredential},
		{"AUTH_002 on any status", http.StatusBadRequest, CodeBadCredentials, LoginInvalidCredentials, MsgLoginInvalidCredential},
		{"403 AUTH_001", http.StatusForbidden, CodeEmailUnverified, LoginEmailUnverified, MsgLoginEmailUnverified},
		{"403 USER_005", http.StatusForbidden, CodeProfileIncomplete, LoginProfileIncomplete, MsgLoginProfileIncomplete},
		{"USER_005 needs 403", http.StatusBadRequest, CodeProfileIncomplete, LoginFailed, MsgLoginFailed},
		{"404 without code", http.StatusNotFound, "", LoginUserNotFound, MsgLoginUserNotFound},
		{"USER_NOT_FOUND", http.StatusBadRequest, CodeUserNotFound, LoginUserNotFound, MsgLoginUserNotFound},
		{"USER_404", http.StatusBadRequest, CodeUser404, LoginUserNotFound, MsgLoginUserNotFound},
		{"403 without known code", http.StatusForbidden, "SOMETHING", LoginFailed, MsgLoginFailed},
		{"401 wins over USER_005", http.StatusUnauthorized, CodeProfileIncomplete, LoginInvalidCredentials, MsgLoginInvalidCredential},
		{"500", http.StatusInternalServerError, "", LoginFailed, MsgLoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := ClassifyLogin(tt.status, tt.code)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestRegisterFailure(t *testing.T) {
	tests := []struct {
		name string
		r    reply
		want string
	}{
		{"email taken", reply{status: 409, code: CodeEmailTaken, message: "server"}, codeMessages[CodeEmailTaken]},
		{"username taken", reply{status: 409, code: CodeUsernameTaken}, codeMessages[CodeUsernameTaken]},
		{"phone taken", reply{status: 409, code: CodePhoneTaken}, codeMessages[CodePhoneTaken]},
		{"other conflict uses server message", reply{status: 409, code: "USER_009", message: "Conflito"}, "Conflito"},
		{"field errors report the first field by name", reply{
			status: 400, code: CodeValidation,
			errors: map[string]string{"username": "curto", "email": "inválido"},
		}, "email: inválido"},
		{"validation without fields", reply{status: 400, code: CodeValidation, message: "Erro de validação"}, "Erro de validação"},
		{"date format", reply{status: 400, code: CodeDateFormat, message: "ignored"}, codeMessages[CodeDateFormat]},
		{"bad request default", reply{status: 400}, MsgRegisterInvalid},
		{"server error default", reply{status: 500}, MsgRegisterFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, registerFailure(tt.r))
		})
	}
}

func TestVerifyAndResendFailures(t *testing.T) {
	assert.Equal(t, MsgVerifyExpired, verifyFailure(reply{code: CodeExpiredCode, message: "x"}))
	assert.Equal(t, MsgVerifyWrong, verifyFailure(reply{code: CodeWrongCode}))
	assert.Equal(t, "Servidor", verifyFailure(reply{message: "Servidor"}))
	assert.Equal(t, MsgVerifyFailed, verifyFailure(reply{}))

	assert.Equal(t, MsgResendNotFound, resendFailure(reply{status: 404, code: CodeEmailDelivery}))
	assert.Equal(t, MsgResendDelivery, resendFailure(reply{status: 502, code: CodeEmailDelivery}))
	assert.Equal(t, MsgResendFailed, resendFailure(reply{status: 500}))
}

func TestProfileFailure(t *testing.T) {
	assert.Equal(t, codeMessages[CodeCPFTaken], profileFailure(reply{code: CodeCPFTaken, message: "x"}))
	assert.Equal(t, MsgGeneric, profileFailure(reply{code: "UNKNOWN", message: "x"}))
	assert.Equal(t, "Servidor", profileFailure(reply{message: "Servidor"}))
	assert.Equal(t, MsgProfileFailed, profileFailure(reply{}))
}

func TestPasswordResetFailures(t *testing.T) {
	assert.Equal(t, MsgForgotNotFound, forgotFailure(reply{code: CodeUserNotFound}))
	assert.Equal(t, "Servidor", forgotFailure(reply{code: CodeUserNotFound, message: "Servidor"}))
	assert.Equal(t, MsgForgotDelivery, forgotFailure(reply{code: CodeResetDelivery}))
	assert.Equal(t, MsgForgotInvalid, forgotFailure(reply{code: CodeValidation}))
	assert.Equal(t, MsgForgotFailed, forgotFailure(reply{}))

	assert.Equal(t, MsgResetInvalidToken, resetFailure(reply{code: CodeInvalidToken}))
	assert.Equal(t, MsgResetExpiredToken, resetFailure(reply{code: CodeTokenExpired}))
	assert.Equal(t, MsgResetBadPassword, resetFailure(reply{code: CodeInvalidPassword}))
	assert.Equal(t, MsgResetInvalid, resetFailure(reply{code: CodeValidation}))
	assert.Equal(t, MsgResetFailed, resetFailure(reply{}))
}

func TestTransportFailure(t *testing.T) {
	out := transportFailure(StepLogin, errors.New("dial tcp: refused"), MsgLoginConnectivity, MsgServerNonJSON)
	assert.Equal(t, ResultConnectivity, out.Result)
	assert.Equal(t, MsgLoginConnectivity, out.Message)

	out = transportFailure(StepLogin, &gateway.Error{Kind: gateway.KindNonJSON, Status: 502}, MsgLoginConnectivity, MsgServerNonJSON)
	assert.Equal(t, ResultConnectivity, out.Result)
	assert.Equal(t, "Erro no servidor (502). Verifique se a API está rodando.", out.Message)

	out = transportFailure(StepLogin, &gateway.Error{Kind: gateway.KindInvalidRequest}, MsgLoginConnectivity, MsgServerNonJSON)
	assert.Equal(t, ResultInvalid, out.Result)
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "Este CPF já está cadastrado.", MessageFor(CodeCPFTaken))
	assert.Equal(t, MsgGeneric, MessageFor("NOPE"))
}
