package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "empty", input: []string{}, want: []string{}},
		{name: "blanks dropped", input: []string{" ", "", "SP"}, want: []string{"SP"}},
		{name: "first occurrence kept", input: []string{" SP", "RJ ", "SP"}, want: []string{"SP", "RJ"}},
		{name: "case sensitive", input: []string{"sp", "SP"}, want: []string{"sp", "SP"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeFold(t *testing.T) {
	got := DedupeFold([]string{"sp", " SP ", "rj", "Rj", "  "}, strings.ToUpper)
	assert.Equal(t, []string{"SP", "RJ"}, got)
}
