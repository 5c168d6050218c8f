package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

// LogWithWriter logs one line per request through the package logger.
func LogWithWriter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path
		ctx.Next()

		status := ctx.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			Errorf(ctx, "%s %s %d %s errs: %s", ctx.Request.Method, path, status, latency, ctx.Errors.String())
		case status >= 400:
			Warnf(ctx, "%s %s %d %s", ctx.Request.Method, path, status, latency)
		default:
			Infof(ctx, "%s %s %d %s", ctx.Request.Method, path, status, latency)
		}
	}
}
