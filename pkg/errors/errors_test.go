package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.Equal(t, TokenNotFound, Get("TOKEN_NOT_FOUND"))
	assert.Equal(t, "Unexpected error", Get("NOPE").Message)
}

func TestWrappedDefinitionIsMatched(t *testing.T) {
	err := fmt.Errorf("send failed: %w", FetchError)

	assert.True(t, stderrors.Is(err, FetchError))
	assert.False(t, stderrors.Is(err, ParseJSONError))
	assert.Equal(t, "FETCH_ERROR", CodeOf(err))
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
}

func TestIsSkipMessageError(t *testing.T) {
	err := fmt.Errorf("consume: %w", &SkipMessageError{Reason: "duplicate"})
	assert.True(t, IsSkipMessageError(err))
	assert.Contains(t, err.Error(), "duplicate")
	assert.False(t, IsSkipMessageError(FetchError))
}
