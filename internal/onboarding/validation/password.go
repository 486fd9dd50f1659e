package validation

import (
	"regexp"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8

	// StrongPasswordPolicy describes the reset-password rule for users.
	StrongPasswordPolicy = "A senha deve ter no mínimo 8 caracteres, incluindo letra maiúscula, minúscula, número e caractere especial"
)

var (
	strongPasswordChars = regexp.MustCompile(`^[A-Za-z\d@$!%*?&#]{8,}$`)
	hasLower            = regexp.MustCompile(`[a-z]`)
	hasUpper            = regexp.MustCompile(`[A-Z]`)
	hasDigit            = regexp.MustCompile(`\d`)
	hasSpecial          = regexp.MustCompile(`[@$!%*?&#]`)
)

// LongEnoughPassword is the registration policy: length only.
func LongEnoughPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// StrongPassword is the reset-password policy: at least 8 characters drawn
// from letters, digits and @$!%*?&#, with one of each class.
func StrongPassword(password string) bool {
	return strongPasswordChars.MatchString(password) &&
		hasLower.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasDigit.MatchString(password) &&
		hasSpecial.MatchString(password)
}
