package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_KindSurvivesWrapping(t *testing.T) {
	base := Conflictf("table", "3", "table already has an open session")
	wrapped := fmt.Errorf("open session: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(wrapped, KindNotFound))
}

func TestErrors_UnknownIsUnavailable(t *testing.T) {
	assert.Equal(t, KindUnavailable, KindOf(errors.New("connection reset")))
}

func TestErrors_UnavailableKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Unavailable("session", cause)

	assert.True(t, IsKind(err, KindUnavailable))
	assert.ErrorIs(t, err, cause)
}

func TestErrors_Message(t *testing.T) {
	assert.Equal(t, "not_found: draft 12: not found", NotFoundf("draft", "12").Error())
	assert.Equal(t, "validation_error: money: invalid amount \"x\"",
		Validationf("money", "", "invalid amount %q", "x").Error())
}
