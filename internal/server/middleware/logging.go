package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/tracing"
)

// WithLoggingTracing saves the trace ID and request ID to the request
// context so downstream log lines carry them.
func WithLoggingTracing(config tracing.Config) gin.HandlerFunc {
	traceHeader := config.TraceHeader
	if traceHeader == "" {
		traceHeader = tracing.DefaultTraceHeader
	}

	requestHeader := config.RequestHeader
	if requestHeader == "" {
		requestHeader = tracing.DefaultRequestHeader
	}

	return func(c *gin.Context) {
		// Use the trace header from the request first.
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = tracing.GenerateTraceID()
		}

		requestID := tracing.GenerateRequestID()
		c.Header(requestHeader, requestID)

		ctx := tracing.WithTraceID(c.Request.Context(), traceID)
		ctx = tracing.WithRequestID(ctx, requestID)
		ctx = tracing.WithOperationName(ctx, fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()))

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
