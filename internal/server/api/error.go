package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/errcode"
)

// Error is the wire shape of a platform error.
type Error struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// ErrorResponse wraps an Error for the response body.
type ErrorResponse struct {
	Error Error `json:"Error"`
}

// JSONError writes err in the standard error shape and records it on the
// gin context for access logging. Non-platform errors map to 500 without
// leaking their text.
func JSONError(c *gin.Context, err error) {
	_ = c.Error(err)

	body := Error{
		Code:    errcode.ServerFault.Code,
		Message: http.StatusText(http.StatusInternalServerError),
	}
	if e, ok := errcode.From(err); ok {
		body.Code = e.Code
		body.Message = e.Error()
	}

	c.JSON(errcode.StatusOf(err), ErrorResponse{Error: body})
}
