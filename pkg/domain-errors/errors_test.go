package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("load certificate: %w", Wrap(base, CodeInternal, "failed to load certificate"))

	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(nil, CodeInternal))
	assert.ErrorIs(t, err, base)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "certificate not found")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestErrorsIsMatchesCode(t *testing.T) {
	err := New(CodeExpired, "verification token expired")

	assert.ErrorIs(t, err, New(CodeExpired, ""))
	assert.ErrorIs(t, err, New(CodeExpired, "verification token expired"))
	assert.NotErrorIs(t, err, New(CodeExpired, "other message"))
	assert.NotErrorIs(t, err, New(CodeNotFound, ""))
}
