package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataFetchNamesQueryContext(t *testing.T) {
	cause := errors.New("connection reset")
	err := DataFetch(cause, "student_courses", "student_id=42")

	assert.Equal(t, ErrDataFetch.Code, err.Code)
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.Contains(t, err.Message, "student_courses")
	assert.Contains(t, err.Message, "student_id=42")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestPartialWriteCarriesDetails(t *testing.T) {
	details := []string{"subject-3"}
	err := PartialWrite(errors.New("boom"), details)

	assert.True(t, errors.Is(err, ErrPartialWrite))
	assert.False(t, errors.Is(err, ErrDataFetch))
	assert.Equal(t, details, err.Details)
}

func TestFromErrorNormalisesPlainErrors(t *testing.T) {
	appErr := FromError(errors.New("plain"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)

	wrapped := Clone(ErrValidation, "studentId is required")
	assert.Same(t, wrapped, FromError(wrapped))
	assert.Equal(t, "validation failed", ErrValidation.Message)
}
