package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("loading goal: %w", NotFound("goal", 7))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "loading goal: goal not found with id 7", err.Error())

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "goal not found with id 7", appErr.Message)
}

func TestValidationFailedCarriesField(t *testing.T) {
	err := ValidationFailed("email", "A user with this email already exists")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "email", err.Field)
}
