package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"farm_store/internal/errs"
	"farm_store/internal/redis"
	"farm_store/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sessionKey      = "admin_session"
	tokenKey        = "admin_token"
)

// RequestID reuses an inbound X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	return "unknown"
}

// Logger writes one line per request once the handler chain has finished.
func Logger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest:
			evt = logger.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("error", c.Errors.String())
		}
		if session := GetSession(c); session != nil {
			evt = evt.Str("admin", session.Username)
		}
		evt.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

// Recovery turns a handler panic into a 500 envelope and logs it.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("request_id", GetRequestID(c)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("panic", fmt.Sprint(r)).
					Msg("request panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// AdminAuth gates admin routes on a Bearer session token.
func AdminAuth(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		session, err := auth.Authorize(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(errs.HTTPStatus(err), gin.H{
				"success": false,
				"error":   errs.PublicMessage(err),
			})
			return
		}
		c.Set(sessionKey, session)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func GetSession(c *gin.Context) *redis.SessionData {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(*redis.SessionData); ok {
			return session
		}
	}
	return nil
}
