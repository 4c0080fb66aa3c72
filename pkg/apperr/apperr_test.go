package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation("x").HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, Authentication("x").HTTPStatus())
	assert.Equal(t, http.StatusForbidden, Authorization("x").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound("x").HTTPStatus())
	assert.Equal(t, http.StatusConflict, Conflict("x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom"), "x").HTTPStatus())
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause, "load project %d", 7)

	assert.Equal(t, "load project 7: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := Conflict("already decided")
	wrapped := fmt.Errorf("process approval: %w", err)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(wrapped, KindValidation))

	// Anything untyped is treated as internal.
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
