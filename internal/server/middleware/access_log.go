package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/contexts"
	"github.com/looplj/cellhub/internal/log"
	"github.com/looplj/cellhub/internal/tracing"
)

// AccessLog logs failed requests: error status or handler errors. Healthy
// traffic stays out of the log.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ctx := c.Request.Context()

		var errMsgs []string
		for _, e := range c.Errors {
			errMsgs = append(errMsgs, e.Error())
		}

		for _, e := range contexts.GetErrors(ctx) {
			errMsgs = append(errMsgs, e.Error())
		}

		status := c.Writer.Status()
		if status < 400 && len(errMsgs) == 0 {
			return
		}

		fields := []log.Field{
			log.Int("status", status),
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.Duration("latency", time.Since(start)),
			log.String("client_ip", c.ClientIP()),
		}

		if opName, ok := tracing.GetOperationName(ctx); ok {
			fields = append(fields, log.String("operation", opName))
		}

		if len(errMsgs) > 0 {
			fields = append(fields, log.Strings("errors", errMsgs))
		}

		log.Error(ctx, "[ACCESS]", fields...)
	}
}
