package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/errcode"
)

type errorBody struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type errorResponse struct {
	Error errorBody `json:"Error"`
}

// AbortWithError aborts the request with the JSON error shape and records
// the error on the gin context for access logging.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	body := errorBody{
		Code:    "CH500-CM-0001",
		Message: http.StatusText(http.StatusInternalServerError),
	}
	if e, ok := errcode.From(err); ok {
		body.Code = e.Code
		body.Message = e.Error()
	}

	c.AbortWithStatusJSON(errcode.StatusOf(err), errorResponse{Error: body})
}
