// Package validation holds the pure field rules of the onboarding forms and
// the immutable per-form state recomputed from them.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"viacarona/internal/onboarding/models"
)

const (
	PhoneDigits       = 11
	NationalIDDigits  = 11
	MinNameLength     = 3
	MinCityLength     = 3
	MinUsernameLength = 3
)

// Field error messages shown to the user.
const (
	MsgPhoneRequired     = "Telefone é obrigatório"
	MsgPhoneLength       = "Telefone deve ter 11 dígitos"
	MsgBirthDateRequired = "Data de nascimento é obrigatória"
	MsgBirthDateInvalid  = "Data inválida"
	MsgBirthDateFuture   = "Data não pode ser no futuro"
	MsgBirthDateTooOld   = "Data muito antiga"
	MsgGenderRequired    = "Gênero é obrigatório"
	MsgGenderInvalid     = "Selecione M, F ou O"
	MsgCPFRequired       = "CPF é obrigatório"
	MsgCPFLength         = "CPF deve ter 11 dígitos"
	MsgCPFInvalid        = "CPF inválido"
	MsgStateRequired     = "Estado é obrigatório"
	MsgStateFormat       = "Digite a sigla do estado (ex: SP)"
	MsgStateUnknown      = "Estado inválido"
	MsgCityRequired      = "Cidade é obrigatória"
	MsgCityShort         = "Nome da cidade muito curto"
	MsgNameRequired      = "Nome é obrigatório"
	MsgNameShort         = "Nome deve ter no mínimo 3 caracteres"
	MsgUsernameRequired  = "Username é obrigatório"
	MsgUsernameShort     = "Username deve ter no mínimo 3 caracteres"
	MsgUsernameCharset   = "Apenas letras minúsculas, números e _"
	MsgEmailRequired     = "Email é obrigatório"
	MsgEmailInvalid      = "Email inválido"
	MsgPasswordRequired  = "Senha é obrigatória"
	MsgPasswordShort     = "Senha deve ter no mínimo 8 caracteres"
	MsgConfirmRequired   = "Confirmação de senha é obrigatória"
	MsgPasswordMismatch  = "As senhas não coincidem"
	MsgUnknownField      = "Campo desconhecido"
)

var (
	emailShape   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameSet  = regexp.MustCompile(`^[a-z0-9_]+$`)
	stateLetters = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Context carries what a rule needs beyond the raw value.
type Context struct {
	// PriorPassword is the current password value, for confirmPassword.
	PriorPassword string
	// KnownStateCodes is the reference set of state codes; nil or empty means
	// the set has not been loaded and only the format is checked.
	KnownStateCodes map[string]struct{}
	// Now anchors birth date bounds; zero means time.Now().
	Now time.Time
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Verdict is the outcome of validating one field value.
type Verdict struct {
	Error string
	Valid bool
}

func ok() Verdict { return Verdict{Valid: true} }

func fail(msg string) Verdict { return Verdict{Error: msg} }

// Validate applies the rule for field to value. It has no side effects.
func Validate(field models.FieldKey, value string, vctx Context) Verdict {
	switch field {
	case models.FieldPhone:
		return validatePhone(value)
	case models.FieldBirthDate:
		return validateBirthDate(value, vctx.now())
	case models.FieldGender:
		return validateGender(value)
	case models.FieldNationalID:
		return validateNationalID(value)
	case models.FieldStateCode:
		return validateStateCode(value, vctx.KnownStateCodes)
	case models.FieldCity:
		return validateMinTrimmed(value, MinCityLength, MsgCityRequired, MsgCityShort)
	case models.FieldName:
		return validateMinTrimmed(value, MinNameLength, MsgNameRequired, MsgNameShort)
	case models.FieldUsername:
		return validateUsername(value)
	case models.FieldEmail:
		return validateEmail(value)
	case models.FieldPassword:
		return validatePassword(value)
	case models.FieldConfirmPassword:
		return validateConfirmPassword(value, vctx.PriorPassword)
	}
	return fail(MsgUnknownField)
}

// ValidEmail reports whether value has the local@domain.tld shape.
func ValidEmail(value string) bool {
	return emailShape.MatchString(value)
}

// NormalizePhone strips formatting from a phone number.
func NormalizePhone(value string) string {
	return onlyDigits(value)
}

// NormalizeNationalID strips formatting from a CPF.
func NormalizeNationalID(value string) string {
	return onlyDigits(value)
}

func validatePhone(value string) Verdict {
	digits := onlyDigits(value)
	switch {
	case digits == "":
		return fail(MsgPhoneRequired)
	case len(digits) != PhoneDigits:
		return fail(MsgPhoneLength)
	}
	return ok()
}

func validateBirthDate(value string, now time.Time) Verdict {
	if value == "" {
		return fail(MsgBirthDateRequired)
	}
	_, err := CheckBirthDate(value, now)
	switch {
	case err == nil:
		return ok()
	case errors.Is(err, ErrBirthDateFuture):
		return fail(MsgBirthDateFuture)
	case errors.Is(err, ErrBirthDateTooOld):
		return fail(MsgBirthDateTooOld)
	}
	return fail(MsgBirthDateInvalid)
}

func validateGender(value string) Verdict {
	if value == "" {
		return fail(MsgGenderRequired)
	}
	switch strings.ToUpper(value) {
	case "M", "F", "O":
		return ok()
	}
	return fail(MsgGenderInvalid)
}

func validateNationalID(value string) Verdict {
	digits := onlyDigits(value)
	switch {
	case digits == "":
		return fail(MsgCPFRequired)
	case len(digits) != NationalIDDigits:
		return fail(MsgCPFLength)
	case allSameDigit(digits):
		return fail(MsgCPFInvalid)
	case !ValidCPFChecksum(digits):
		return fail(MsgCPFInvalid)
	}
	return ok()
}

func validateStateCode(value string, known map[string]struct{}) Verdict {
	if strings.TrimSpace(value) == "" {
		return fail(MsgStateRequired)
	}
	code := strings.ToUpper(value)
	if !stateLetters.MatchString(code) {
		return fail(MsgStateFormat)
	}
	if len(known) > 0 {
		if _, found := known[code]; !found {
			return fail(MsgStateUnknown)
		}
	}
	return ok()
}

func validateMinTrimmed(value string, minLen int, required, short string) Verdict {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		return fail(required)
	case utf8.RuneCountInString(trimmed) < minLen:
		return fail(short)
	}
	return ok()
}

func validateUsername(value string) Verdict {
	switch {
	case strings.TrimSpace(value) == "":
		return fail(MsgUsernameRequired)
	case utf8.RuneCountInString(value) < MinUsernameLength:
		return fail(MsgUsernameShort)
	case !usernameSet.MatchString(value):
		return fail(MsgUsernameCharset)
	}
	return ok()
}

func validateEmail(value string) Verdict {
	switch {
	case strings.TrimSpace(value) == "":
		return fail(MsgEmailRequired)
	case !ValidEmail(value):
		return fail(MsgEmailInvalid)
	}
	return ok()
}

func validatePassword(value string) Verdict {
	switch {
	case value == "":
		return fail(MsgPasswordRequired)
	case !LongEnoughPassword(value):
		return fail(MsgPasswordShort)
	}
	return ok()
}

func validateConfirmPassword(value, password string) Verdict {
	switch {
	case value == "":
		return fail(MsgConfirmRequired)
	case value != password:
		return fail(MsgPasswordMismatch)
	}
	return ok()
}
