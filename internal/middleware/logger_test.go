package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })
	return &buf
}

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("happy: request line carries event identity", func(t *testing.T) {
		buf := captureLog(t)

		router := gin.New()
		router.Use(Logger())
		router.POST("/webhook", func(c *gin.Context) {
			c.Set(EventIDKey, "evt_req_log")
			c.Set(EventTypeKey, "charge.succeeded")
			c.Set(OutcomeKey, "settled")
			c.String(http.StatusOK, "OK")
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/webhook", nil)
		router.ServeHTTP(w, req)

		assert.Contains(t, buf.String(), `"event_id":"evt_req_log"`)
		assert.Contains(t, buf.String(), `"event_type":"charge.succeeded"`)
		assert.Contains(t, buf.String(), `"outcome":"settled"`)
	})

	t.Run("happy: plain request omits event fields", func(t *testing.T) {
		buf := captureLog(t)

		router := gin.New()
		router.Use(Logger())
		router.GET("/health", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		assert.Contains(t, buf.String(), `"path":"/health"`)
		assert.NotContains(t, buf.String(), "event_id")
	})
}
