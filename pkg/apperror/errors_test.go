package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("all fields are required"), http.StatusBadRequest},
		{NotFound("patient"), http.StatusNotFound},
		{Unauthorized("invalid credentials"), http.StatusUnauthorized},
		{Persistence(errors.New("constraint violation")), http.StatusBadRequest},
		{Notification(errors.New("smtp unreachable")), http.StatusBadGateway},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.EqualError(t, NotFound("doctor"), "doctor not found")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Persistence(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("scheduling: %w", NotFound("patient"))

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}
