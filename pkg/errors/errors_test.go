package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInsufficientData(t *testing.T) {
	err := NewInsufficientData("sales", 3, 5)

	assert.True(t, IsInsufficientData(err))
	assert.False(t, IsModelFailure(err))
	assert.Equal(t, CodeInsufficientData, GetCode(err))
	assert.Contains(t, err.Error(), "metric=sales")
	assert.Contains(t, err.Error(), "need at least 5 observations, have 3")
}

func TestNewModelFailure_WrapsCause(t *testing.T) {
	cause := errors.New("series too short for two full periods")
	err := NewModelFailure("seasonal", "traffic", cause)

	assert.True(t, IsModelFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `model "seasonal" failed to fit`)
}

func TestNewConfiguration(t *testing.T) {
	err := NewConfiguration("unknown forecast model: prophet")

	assert.True(t, IsConfiguration(err))
	assert.Equal(t, CodeConfiguration, GetCode(err))
	assert.NotContains(t, err.Error(), "metric=")
}

func TestIsPredicates_MatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("forecast pass failed: %w", NewInsufficientData("orders", 1, 5))

	assert.True(t, IsInsufficientData(wrapped))
	assert.Equal(t, CodeInsufficientData, GetCode(wrapped))
}

func TestIsPredicates_ForeignErrors(t *testing.T) {
	err := errors.New("plain error")

	assert.False(t, IsInsufficientData(err))
	assert.False(t, IsModelFailure(err))
	assert.False(t, IsConfiguration(err))
	assert.Equal(t, Code(""), GetCode(err))
	assert.False(t, IsInsufficientData(nil))
}

func TestIs_MatchesOnCodeNotMessage(t *testing.T) {
	a := NewInsufficientData("a", 1, 5)
	b := NewInsufficientData("b", 2, 10)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, ErrModelFailure))
}
