package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := New(CodeNotFound, "policy missing")
	wrapped := Wrap(base, CodeBadRequest, "cannot route")
	outer := fmt.Errorf("handler: %w", wrapped)

	assert.True(t, HasCode(outer, CodeBadRequest))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(fmt.Errorf("x: %w", New(CodeConflict, "dup"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(errors.New("connection refused"), CodeUnavailable, "history store")
	assert.Equal(t, "history store: connection refused", err.Error())
	assert.Equal(t, "bad input", New(CodeBadRequest, "bad input").Error())
}
