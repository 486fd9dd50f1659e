package flow

// Messages shown to the user. Server messages take precedence where the
// classifiers say so.
const (
	MsgGeneric = "Ocorreu um erro. Tente novamente."

	MsgServerNonJSON = "Erro no servidor (%d). Verifique se a API está rodando."

	MsgLoginFieldsRequired    = "Preencha todos os campos"
	MsgLoginEmailInvalid      = "Email inválido"
	MsgLoginInvalidCredential = "Email ou senha inválidos. Tente novamente."
	MsgLoginEmailUnverified   = "Email não verificado. Redirecionando..."
	MsgLoginProfileIncomplete = "Cadastro incompleto. Redirecionando..."
	MsgLoginUserNotFound      = "Usuário não encontrado. Verifique seu email ou cadastre-se."
	MsgLoginFailed            = "Erro ao fazer login. Tente novamente."
	MsgLoginUnexpected        = "Resposta inesperada do servidor. Tente novamente."
	MsgLoginConnectivity      = "Erro de conexão. Tente novamente."

	MsgRegisterInvalid      = "Dados inválidos. Verifique os campos."
	MsgRegisterFailed       = "Erro ao criar conta. Tente novamente."
	MsgRegisterConnectivity = "Erro de conexão. Verifique sua internet e tente novamente."

	MsgVerifyIncomplete   = "Digite o código completo de 6 dígitos"
	MsgVerifyExpired      = "Código expirado. Clique em 'Reenviar código' para obter um novo."
	MsgVerifyWrong        = "Código inválido. Verifique e tente novamente."
	MsgVerifyFailed       = "Código inválido ou expirado"
	MsgVerifyConnectivity = "Erro de conexão. Tente novamente."

	MsgResendNotFound = "Email não encontrado. Verifique o endereço."
	MsgResendDelivery = "Erro ao enviar email. Tente novamente em alguns instantes."
	MsgResendFailed   = "Erro ao reenviar código"

	MsgSocialFailed       = "Erro ao autenticar"
	MsgSocialIncomplete   = "Complete seu cadastro para continuar"
	MsgSocialUnexpected   = "Resposta inesperada do servidor"
	MsgSocialConnectivity = "Erro de conexão"
	MsgSocialNonJSON      = "Erro no servidor (%d)"

	MsgProfileDone         = "Cadastro concluído!"
	MsgProfileFailed       = "Erro ao completar cadastro. Tente novamente."
	MsgProfileConnectivity = "Erro de conexão. Tente novamente."

	MsgForgotEmailRequired = "Por favor, informe seu email"
	MsgForgotEmailInvalid  = "Email inválido"
	MsgForgotSent          = "Enviamos um email com instruções para redefinir sua senha. Verifique sua caixa de entrada."
	MsgForgotNotFound      = "Usuário não encontrado. Verifique o email informado."
	MsgForgotDelivery      = "Falha ao enviar email. Tente novamente mais tarde."
	MsgForgotInvalid       = "Dados inválidos. Verifique o email informado."
	MsgForgotFailed        = "Erro ao processar solicitação. Tente novamente."
	MsgForgotConnectivity  = "Erro de conexão. Verifique se a API está rodando e tente novamente."

	MsgResetTokenMissing   = "Token inválido ou ausente"
	MsgResetFieldsRequired = "Preencha todos os campos"
	MsgResetMismatch       = "As senhas não coincidem"
	MsgResetDone           = "Sua senha foi alterada com sucesso. Você já pode fazer login com sua nova senha."
	MsgResetInvalidToken   = "Token inválido ou já utilizado"
	MsgResetExpiredToken   = "Token expirado. Solicite um novo link de redefinição"
	MsgResetBadPassword    = "As senhas não coincidem ou são inválidas"
	MsgResetInvalid        = "Dados inválidos. Verifique os campos."
	MsgResetFailed         = "Erro ao redefinir senha. Tente novamente."
	MsgResetConnectivity   = "Erro de conexão. Verifique se a API está rodando e tente novamente."
)

// codeMessages maps API error codes to user messages.
var codeMessages = map[string]string{
	CodeEmailUnverified: "Seu email ainda não foi verificado. Verifique sua caixa de entrada.",
	CodeBadCredentials:  "Email ou senha incorretos. Tente novamente.",
	CodeAuthSystem:      "Erro no sistema de autenticação. Tente novamente.",
	CodeSessionExpired:  "Sessão expirada. Faça login novamente.",
	CodeEmailTaken:      "Este email já está cadastrado. Faça login ou use outro email.",
	CodeUsernameTaken:   "Este nome de usuário já existe. Escolha outro.",
	CodePhoneTaken:      "Este telefone já está cadastrado.",
	CodeCPFTaken:        "Este CPF já está cadastrado.",
	CodeDateFormat:      "Formato de data inválido. Use DD/MM/AAAA.",
	CodeValidation:      "Alguns campos estão incorretos. Verifique os dados.",
	CodeWrongCode:       "Código inválido. Verifique e tente novamente.",
	CodeExpiredCode:     "Código expirado. Clique em 'Reenviar código'.",
	CodeEmailDelivery:   "Erro ao enviar email. Tente novamente em alguns instantes.",
}

// MessageFor returns the user message of an API error code, or MsgGeneric.
func MessageFor(code string) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return MsgGeneric
}
