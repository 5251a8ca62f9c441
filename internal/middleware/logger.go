package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Context keys handlers set so the request log line can tie an HTTP request
// to the processor event and settlement outcome it carried.
const (
	EventIDKey   = "event_id"
	EventTypeKey = "event_type"
	OutcomeKey   = "outcome"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		if eventID := c.GetString(EventIDKey); eventID != "" {
			event = event.
				Str("event_id", eventID).
				Str("event_type", c.GetString(EventTypeKey))
		}
		if outcome := c.GetString(OutcomeKey); outcome != "" {
			event = event.Str("outcome", outcome)
		}

		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
