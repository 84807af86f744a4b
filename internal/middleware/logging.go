package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// requestLog is the global logger tagged with what identifies this request.
func requestLog(c *gin.Context) zerolog.Logger {
	lc := log.With().
		Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("route", c.FullPath())
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			lc = lc.Str("family_id", id.FamilyID.String())
		}
	}
	return lc.Logger()
}

// internalError is the only 500 body clients see; request_id lets them quote the
// failure without the server leaking it.
func internalError(c *gin.Context) *apierror.APIError {
	return apierror.WithDetails("Internal server error", gin.H{"request_id": c.GetString(RequestIDKey)})
}

// ErrorHandler answers 500 for errors attached with c.Error once the handler
// chain is done, unless something was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}

		l := requestLog(c)
		for _, e := range c.Errors {
			l.Error().Err(e.Err).Msg("http: handler error")
		}
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, internalError(c))
		}
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}
			l := requestLog(c)
			l.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("http: panic recovered")
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalError(c))
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}

// Logger writes one line per request; the level follows the status class.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := requestLog(c)
		ev := l.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		ev.Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("http: request")
	}
}
