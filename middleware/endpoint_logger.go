package middleware

import (
	"strconv"
	"time"

	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger writes one structured line per request and feeds the HTTP
// metrics. metrics and geo may be nil.
func RequestLogger(logger *zap.Logger, metrics *util.Metrics, geo *util.GeoLocator) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), duration)

		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}
		ce := logger.Check(level, "request")
		if ce == nil {
			return
		}

		ip := c.ClientIP()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", util.SanitizeLogValue(c.Request.URL.Path)),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", util.SanitizeLogValue(ip)),
			zap.String("user_agent", util.SanitizeLogValue(c.Request.UserAgent())),
		}
		if loc := geo.Locate(ip); loc != "" {
			fields = append(fields, zap.String("location", util.SanitizeLogValue(loc)))
		}
		if s, ok := GetSession(c); ok {
			fields = append(fields, zap.String("session_id", s.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", util.SanitizeLogValue(c.Errors.String())))
		}
		ce.Write(fields...)
	}
}
