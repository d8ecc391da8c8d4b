package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fatflowers/memberlink/pkg/logctx"
)

const HeaderRequestID = "X-Request-ID"

// TraceMiddleware adds a trace ID to the request context and opens a server
// span around the request. It reads X-Request-ID if provided by the client;
// otherwise generates a UUID. The trace ID is stored in both gin.Context
// (key: "traceID") and the request's context.Context.
func TraceMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderRequestID)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(logctx.GinTraceIDKey, traceID)
		ctx := context.WithValue(c.Request.Context(), logctx.TraceIDKey, traceID)

		var span trace.Span
		if tracer != nil {
			ctx, span = tracer.Start(ctx, c.Request.Method+" "+c.Request.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", c.Request.Method),
					attribute.String("request.id", traceID),
				))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if span != nil {
			status := c.Writer.Status()
			span.SetAttributes(attribute.Int("http.status_code", status))
			if route := c.FullPath(); route != "" {
				span.SetAttributes(attribute.String("http.route", route))
			}
			if status >= 500 {
				span.SetStatus(codes.Error, "server error")
			}
			span.End()
		}
	}
}
