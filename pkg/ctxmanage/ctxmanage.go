package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type key string

// TraceIDKey is where the logging middleware stores the per-request trace id.
const TraceIDKey key = "trace_id"

// GetTraceIdOfRequest returns the trace id set by the logging middleware,
// generating a fresh one if the middleware did not run (e.g. in tests).
func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Request.Context().Value(TraceIDKey).(string)
	if !ok {
		return uuid.NewString()
	}
	return traceId
}
