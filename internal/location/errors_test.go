package location

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewLocationNotFound("c1")
	assert.Equal(t, "NOT_FOUND: customerLocation does not exist.", err.Error())
	assert.Equal(t, "c1", err.CustomerLocationID)
}

func TestError_IsMatchesCode(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NewLocationNotFound("c1"))

	assert.True(t, errors.Is(wrapped, &Error{Code: CodeNotFound}))
	assert.False(t, errors.Is(wrapped, &Error{Code: CodeAlreadyExists}))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsAlreadyExists(wrapped))
	assert.False(t, IsInvalidArgument(wrapped))
}

func TestAsError(t *testing.T) {
	e, ok := AsError(fmt.Errorf("outer: %w", NewInvalidArgument("c1", "bad")))
	assert.True(t, ok)
	assert.Equal(t, CodeInvalidArgument, e.Code)
	assert.Equal(t, "bad", e.Message)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsNotFound(nil))
}
