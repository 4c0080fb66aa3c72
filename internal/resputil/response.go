package resputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/build-lab/girder/pkg/apperr"
)

// Response is the uniform envelope. The generic parameter exists for the
// swagger annotations; handlers pass any data.
type Response[T any] struct {
	Code ErrorCode `json:"code"`
	Data T         `json:"data"`
	Msg  string    `json:"msg"`
}

func wrapResponse(c *gin.Context, httpCode int, msg string, data any, code ErrorCode) {
	c.JSON(httpCode, Response[any]{
		Code: code,
		Data: data,
		Msg:  msg,
	})
}

func Success(c *gin.Context, data any) {
	wrapResponse(c, http.StatusOK, "", data, OK)
}

func Error(c *gin.Context, msg string, errorCode ErrorCode) {
	wrapResponse(c, http.StatusInternalServerError, msg, nil, errorCode)
}

func BadRequestError(c *gin.Context, msg string) {
	wrapResponse(c, http.StatusBadRequest, msg, nil, InvalidRequest)
}

func HTTPError(c *gin.Context, httpCode int, msg string, errorCode ErrorCode) {
	wrapResponse(c, httpCode, msg, nil, errorCode)
}

// WrapServiceError maps a typed engine error to its HTTP status and code.
func WrapServiceError(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		Error(c, err.Error(), NotSpecified)
		return
	}
	wrapResponse(c, e.HTTPStatus(), e.Message, nil, codeForKind(e.Kind))
}

func codeForKind(kind apperr.Kind) ErrorCode {
	switch kind {
	case apperr.KindValidation:
		return InvalidRequest
	case apperr.KindAuthentication:
		return TokenInvalid
	case apperr.KindAuthorization:
		return UserNotAllowed
	case apperr.KindNotFound:
		return ResourceNotFound
	case apperr.KindConflict:
		return ResourceConflict
	default:
		return NotSpecified
	}
}
