package validation

import (
	"errors"
	"strings"
)

// ErrInvalidSeed is returned by CompleteCPF when the seed is not nine digits.
var ErrInvalidSeed = errors.New("cpf seed must be exactly 9 digits")

// ValidCPFChecksum runs the two-pass mod-11 check over an 11-digit CPF.
// Callers are expected to have stripped formatting and checked the length;
// anything that is not 11 ASCII digits is rejected.
func ValidCPFChecksum(cpf string) bool {
	if !isDigits(cpf, 11) {
		return false
	}
	first, second := cpfRemainders(cpf)
	return normalizeRemainder(first) == digitAt(cpf, 9) &&
		normalizeRemainder(second) == digitAt(cpf, 10)
}

// CompleteCPF appends both check digits to a 9-digit seed.
func CompleteCPF(seed string) (string, error) {
	if !isDigits(seed, 9) {
		return "", ErrInvalidSeed
	}
	first := normalizeRemainder(weightedRemainder(seed, 9, 10))
	withFirst := seed + string(rune('0'+first))
	second := normalizeRemainder(weightedRemainder(withFirst, 10, 11))
	return withFirst + string(rune('0'+second)), nil
}

// cpfRemainders returns the raw remainders of both passes, before 10 and 11
// are folded to 0.
func cpfRemainders(cpf string) (first, second int) {
	return weightedRemainder(cpf, 9, 10), weightedRemainder(cpf, 10, 11)
}

// weightedRemainder sums the first n digits with weights descending from
// top to 2 and returns (sum*10) mod 11.
func weightedRemainder(digits string, n, top int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += digitAt(digits, i) * (top - i)
	}
	return (sum * 10) % 11
}

func normalizeRemainder(rem int) int {
	if rem == 10 || rem == 11 {
		return 0
	}
	return rem
}

func allSameDigit(digits string) bool {
	return digits != "" && strings.Count(digits, digits[:1]) == len(digits)
}

func digitAt(s string, i int) int {
	return int(s[i] - '0')
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// onlyDigits strips every non-digit character.
func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
