package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/log"
)

// Recovery turns handler panics into 500 responses with a logged stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered",
					log.Any("panic", r),
					log.String("path", c.Request.URL.Path),
					log.String("stack", string(debug.Stack())))

				AbortWithError(c, errcode.ServerFault)
			}
		}()

		c.Next()
	}
}
