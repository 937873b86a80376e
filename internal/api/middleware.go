package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionHeader carries the client's session id. Responses always echo it.
const SessionHeader = "X-Session-ID"

const sessionKey = "session_id"

// sessionMiddleware issues a fresh id to clients that did not send one.
func sessionMiddleware(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(sessionKey, id)
	c.Header(SessionHeader, id)
	c.Next()
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func logRequestMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	log.Debug().
		Str("method", c.Request.Method).
		Str("route", c.FullPath()).
		Str("ip", c.ClientIP()).
		Int("status", c.Writer.Status()).
		Dur("duration", time.Since(start)).
		Msg("Handled request")
}
