package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// InitSentry initializes the Sentry SDK. An empty DSN leaves Sentry disabled
// and every capture call becomes a no-op.
func InitSentry(cfg config.SentryConfig, serviceName string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}

	env := cfg.Environment
	if env == "" {
		env = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      env,
		Release:          cfg.Release,
		TracesSampleRate: 0.2,
		AttachStacktrace: true,
		Tags: map[string]string{
			"service": serviceName,
		},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return scrubPII(event)
		},
	})
	if err != nil {
		return false, fmt.Errorf("sentry.Init: %w", err)
	}

	return true, nil
}

// CaptureError sends an error to Sentry with context tags
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered Sentry events to be sent
func Flush() {
	sentry.Flush(2 * time.Second)
}

// Recovery catches handler panics, reports them to Sentry and aborts with
// 500. onPanic renders the response so HTML and JSON routes can differ.
func Recovery(serviceName string, onPanic func(c *gin.Context, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			var err error
			switch v := rec.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("panic: %v", v)
			}

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(c.Request)
			hub.Scope().SetTag("service", serviceName)
			hub.Scope().SetTag("panic", "true")
			hub.CaptureException(err)
			hub.Flush(2 * time.Second)

			if onPanic != nil {
				onPanic(c, err)
			}
			if !c.IsAborted() {
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()

		c.Next()
	}
}

// scrubPII removes personal data from events before they leave the process
func scrubPII(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}

	if event.User.Email != "" {
		event.User.Email = "[redacted]"
	}
	event.User.IPAddress = ""

	if event.Request != nil {
		for k := range event.Request.Headers {
			switch k {
			case "Authorization", "Cookie", "X-Api-Key", "Stripe-Signature":
				event.Request.Headers[k] = "[redacted]"
			}
		}
		event.Request.Data = ""
	}

	return event
}
