package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// InitSentry configures the global Sentry client. With an empty DSN it is a no-op.
// The returned func flushes buffered events and should run on shutdown.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErrors reports errors attached to the gin context with c.Error once the
// handler chain has finished. Panics are recovered, reported and re-raised.
func CaptureErrors(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)

		defer func() {
			if r := recover(); r != nil {
				hub.RecoverWithContext(c.Request.Context(), r)
				panic(r)
			}
		}()

		c.Next()

		for _, ginErr := range c.Errors {
			log.Error().
				Err(ginErr.Err).
				Str("request_id", c.GetString("request_id")).
				Str("route", c.FullPath()).
				Msg("Request failed")
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("route", c.FullPath())
				scope.SetTag("request_id", c.GetString("request_id"))
				hub.CaptureException(ginErr.Err)
			})
		}
	}
}
