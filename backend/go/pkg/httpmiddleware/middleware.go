// Package httpmiddleware holds the gin middleware shared by the HTTP services.
package httpmiddleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"country_facts/backend/go/internal/models"
	"country_facts/backend/go/pkg/logger"
	"country_facts/backend/go/pkg/ratelimiter"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	loggerKey       = "logger"
)

// RequestID reuses an incoming X-Request-ID or generates one, and stores a
// logger traced with it in the context.
func RequestID(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Set(loggerKey, log.WithTrace(id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// GetLogger returns the request-scoped logger, falling back to fallback.
func GetLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return fallback
}

// AccessLog writes one line per request once the handler has finished.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := GetLogger(c, log).WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     status,
			LatencyMS:  time.Since(start).Milliseconds(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request completed with server error")
		case status >= http.StatusBadRequest:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// Recovery turns a handler panic into a JSON 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		GetLogger(c, log).WithError(models.ErrorInfo{
			Message:    fmt.Sprint(recovered),
			Type:       models.ErrorTypeInternal,
			StatusCode: http.StatusInternalServerError,
		}).Error("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

// CORS allows the listed origins, or any origin when the list is empty.
// Preflight requests are answered directly.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowed) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimit rejects requests over the client's budget with 429. Clients are
// keyed by IP. If the limiter's store fails the request is let through.
func RateLimit(limiter ratelimiter.KeyedLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			GetLogger(c, log).WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrorTypeUnavailable}).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
