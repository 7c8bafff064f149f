package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader is the HTTP header carrying the request trace id
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the context key the trace id is stored under
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags every request with a trace id, minting one when the
// caller did not supply it. The id is echoed back in the response header so
// clients can quote it in support requests.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

// GetCorrelationID returns the request's trace id, or "" when the
// correlation middleware did not run
func GetCorrelationID(c *gin.Context) string {
	v, exists := c.Get(CorrelationIDKey)
	if !exists {
		return ""
	}
	id, ok := v.(string)
	if !ok {
		return ""
	}
	return id
}
