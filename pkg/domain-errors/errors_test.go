package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	t.Run("new error carries code and message", func(t *testing.T) {
		err := New(CodeInvalidInput, "coverage must be positive")
		assert.True(t, HasCode(err, CodeInvalidInput))
		assert.Equal(t, "coverage must be positive", err.Error())
	})

	t.Run("wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeTransferFailed, "payout failed")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, CodeTransferFailed, CodeOf(err))
		assert.Equal(t, "payout failed: connection reset", err.Error())
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "policy not found")
		outer := Wrap(inner, CodeInternal, "load failed")
		assert.True(t, Is(outer, CodeInternal))
		assert.False(t, Is(outer, CodeNotFound))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("cancel: %w", New(CodeAlreadyInactive, "policy already inactive"))
		assert.True(t, HasCode(err, CodeAlreadyInactive))
	})

	t.Run("plain errors map to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestErrorsIsMatchesCodeAndMessage(t *testing.T) {
	err := fmt.Errorf("open: %w", New(CodeInvalidInput, "deposit below minimum premium"))
	require.ErrorIs(t, err, New(CodeInvalidInput, "deposit below minimum premium"))
	require.ErrorIs(t, err, &Error{Code: CodeInvalidInput})
	assert.NotErrorIs(t, err, New(CodeInvalidInput, "coverage must be positive"))
}
