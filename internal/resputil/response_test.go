package resputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-lab/girder/pkg/apperr"
)

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response[any] {
	t.Helper()
	var resp Response[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccessEnvelope(t *testing.T) {
	w := record(func(c *gin.Context) { Success(c, "done") })

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, OK, resp.Code)
	assert.Equal(t, "done", resp.Data)
	assert.Empty(t, resp.Msg)
}

func TestWrapServiceErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{apperr.Validation("bad input"), http.StatusBadRequest, InvalidRequest},
		{apperr.Authentication("bad token"), http.StatusUnauthorized, TokenInvalid},
		{apperr.Authorization("not yours"), http.StatusForbidden, UserNotAllowed},
		{apperr.NotFound("missing"), http.StatusNotFound, ResourceNotFound},
		{apperr.Conflict("taken"), http.StatusConflict, ResourceConflict},
		{apperr.Internal(errors.New("boom"), "db"), http.StatusInternalServerError, NotSpecified},
	}
	for _, tc := range cases {
		w := record(func(c *gin.Context) { WrapServiceError(c, tc.err) })
		assert.Equalf(t, tc.status, w.Code, "%v", tc.err)
		assert.Equalf(t, tc.code, decode(t, w).Code, "%v", tc.err)
	}
}

func TestWrapServiceErrorUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("process approval: %w", apperr.Conflict("already decided"))
	w := record(func(c *gin.Context) { WrapServiceError(c, err) })

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decode(t, w)
	assert.Equal(t, ResourceConflict, resp.Code)
	assert.Equal(t, "already decided", resp.Msg)
}

func TestWrapServiceErrorFallsBackForUntypedErrors(t *testing.T) {
	w := record(func(c *gin.Context) { WrapServiceError(c, errors.New("plain failure")) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, NotSpecified, resp.Code)
	assert.Equal(t, "plain failure", resp.Msg)
}
