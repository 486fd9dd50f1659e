package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("plain error falls back to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("wrapped coded error keeps its code", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeBusy, "request in flight"))
		assert.Equal(t, CodeBusy, CodeOf(err))
		assert.True(t, HasCode(err, CodeBusy))
		assert.False(t, HasCode(err, CodeOutOfOrder))
	})

	t.Run("wrap preserves the cause", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := Wrap(cause, CodeUnavailable, "gateway unreachable")
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "gateway unreachable")
	})
}
