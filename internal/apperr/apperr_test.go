package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

func TestNotFound(t *testing.T) {
	err := apperr.NotFound("savings plan")

	assert.Equal(t, "savings plan not found", err.Error())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("depositing: %w", err), apperr.ErrNotFound)
}

func TestValidator(t *testing.T) {
	var v apperr.Validator
	require.NoError(t, v.Err())

	v.Check(true, "name", "is required")
	v.Check(false, "amount", "must be greater than zero")
	v.Add("amount", "second message is ignored")
	v.Add("date", "must be a valid date (YYYY-MM-DD)")

	err := v.Err()
	require.Error(t, err)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"amount": "must be greater than zero",
		"date":   "must be a valid date (YYYY-MM-DD)",
	}, verr.Fields)
	assert.Equal(t, "validation failed: amount: must be greater than zero; date: must be a valid date (YYYY-MM-DD)", err.Error())
	assert.True(t, apperr.IsValidation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, apperr.IsValidation(apperr.ErrNotFound))
}
