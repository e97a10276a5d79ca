package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	base := NewConflict("username taken", nil)
	wrapped := fmt.Errorf("register: %w", base)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeConflict, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	require.NotNil(t, de)
	assert.Equal(t, CodeInternalError, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.Nil(t, ToDomainError(nil))
}

func TestIOFailure_HidesCauseFromMessage(t *testing.T) {
	cause := errors.New("open /var/lib/eventpass/tickets_data.json: permission denied")
	err := NewIOFailure("purchase", "ann@x.com", cause)

	de := ToDomainError(err)
	assert.Equal(t, CodeIOFailure, de.Code)
	assert.Equal(t, "internal server error", de.Message)
	assert.NotContains(t, de.Message, "/var/lib")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "purchase", de.Details["operation"])
}

func TestFromStatus(t *testing.T) {
	de := FromStatus(http.StatusMethodNotAllowed, "")
	assert.Equal(t, CodeMethodNotAllowed, de.Code)
	assert.Equal(t, "Method Not Allowed", de.Message)

	de = FromStatus(http.StatusTeapot, "short and stout")
	assert.Equal(t, CodeInternalError, de.Code)
	assert.Equal(t, http.StatusTeapot, de.HTTPStatus)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(fmt.Errorf("x: %w", NewNotFound("user", nil)), CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(NewGenerationFailure("t", nil), CodeIOFailure))
}
