package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"ana.souza@example.com":         "Ana Souza",
		"ana.souza+caronas@example.com": "Ana Souza",
		"JOAO_pedro-lima@example.com":   "Joao Pedro Lima",
		"ícaro@example.com":             "Ícaro",
		"+tag@example.com":              "",
		"@example.com":                  "",
		"plain":                         "Plain",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, DisplayName(in))
		})
	}
}
