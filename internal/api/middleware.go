package api

import (
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/t77yq/alert-dashboard/internal/apperr"
	"github.com/t77yq/alert-dashboard/internal/config"
	"github.com/t77yq/alert-dashboard/internal/metrics"
)

const (
	requestIDHeader  = "X-Request-ID"
	requestIDKey     = "request_id"
	totalCountHeader = "X-Total-Count"
)

// requestID propagates the caller's X-Request-ID or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// accessLog writes one line per request
func (s *Server) accessLog() gin.HandlerFunc {
	logger := s.logger.Named("access")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", requestIDFrom(c)),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if claims, ok := claimsFrom(c); ok {
			fields = append(fields, zap.String("subject", claims.Subject))
		}

		switch {
		case len(c.Errors) > 0:
			logger.Error(c.Errors.String(), fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// recovery turns a handler panic into a 500 response
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if isBrokenPipe(r) {
				s.logger.Warn("Client connection lost",
					zap.String("request_id", requestIDFrom(c)),
					zap.Any("error", r))
				c.Abort()
				return
			}

			s.logger.Error("Recovered from panic",
				zap.String("request_id", requestIDFrom(c)),
				zap.Any("panic", r),
				zap.Stack("stack"))
			s.writeError(c, apperr.New(apperr.CodeInternal, "Internal server error", nil))
		}()
		c.Next()
	}
}

func isBrokenPipe(r any) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}

// securityHeaders sets the hardening headers browsers honour for API responses
func securityHeaders() gin.HandlerFunc {
	return secure.New(secure.Config{
		STSSeconds:              15552000,
		STSIncludeSubdomains:    true,
		CustomFrameOptionsValue: "SAMEORIGIN",
		ContentTypeNosniff:      true,
		IENoOpen:                true,
		ReferrerPolicy:          "no-referrer",
		ContentSecurityPolicy:   "default-src 'none'; frame-ancestors 'self'",
	})
}

// corsMiddleware returns nil when no origin is allowed
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowedOrigins) == 0 {
		return nil
	}

	corsConfig := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{totalCountHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			corsConfig.AllowAllOrigins = true
			corsConfig.AllowCredentials = false
			return cors.New(corsConfig)
		}
	}
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	return cors.New(corsConfig)
}

// observe records request count and latency per route
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
