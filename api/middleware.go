package api

import (
	"net/http"
	"strings"
	"time"

	"rifa/application"
	"rifa/infrastructure/observability"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	// SessionHeader selects the raffle session of an API client
	SessionHeader = "X-Session-ID"

	sessionContextKey = "rifa.session"
)

// requestLogger logs and counts every request by route template
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		observability.GetMetrics().RecordHTTPRequest(c.Request.Method, route, status)

		entry := log.WithFields(log.Fields{
			"method":      c.Request.Method,
			"route":       route,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("HTTP request failed")
			return
		}
		entry.Debug("HTTP request")
	}
}

// requireSession resolves the X-Session-ID header into a live session
func requireSession(sessions *application.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			abortWithError(c, http.StatusBadRequest, codeMissingSession, messageMissingSession)
			return
		}

		sess, err := sessions.Get(application.HTTPSessionKey(id))
		if err != nil {
			handleError(c, err)
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *application.Session {
	return c.MustGet(sessionContextKey).(*application.Session)
}
