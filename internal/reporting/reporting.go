package reporting

import (
	"fmt"
	"time"

	apperrors "listentg/internal/errors"
	"listentg/internal/models"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// Reporter forwards unexpected errors to an external error tracker
type Reporter interface {
	CaptureError(err error, fields map[string]interface{})
	CaptureMessage(message string, fields map[string]interface{})
	Flush(timeout time.Duration) bool
}

// Nop discards every report. It is used when error reporting is disabled.
type Nop struct{}

func (Nop) CaptureError(error, map[string]interface{})    {}
func (Nop) CaptureMessage(string, map[string]interface{}) {}
func (Nop) Flush(time.Duration) bool                      { return true }

// SentryReporter reports to any Sentry-protocol endpoint (Sentry, BugSink,
// GlitchTip) through its own hub.
type SentryReporter struct {
	hub *sentry.Hub
}

// New returns a Sentry reporter when reporting is enabled and a DSN is set,
// and a Nop reporter otherwise.
func New(cfg models.ErrorReportingConfig, logger *logrus.Logger) (Reporter, error) {
	if !cfg.Enabled {
		logger.Debug("Error reporting is disabled")
		return Nop{}, nil
	}
	if cfg.DSN == "" {
		logger.Warn("Error reporting enabled but no DSN provided, disabling")
		return Nop{}, nil
	}

	reporter, err := newSentryReporter(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
		BeforeSend:       tagService,
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"release":     cfg.Release,
	}).Info("Error reporting initialized")
	return reporter, nil
}

func newSentryReporter(opts sentry.ClientOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize error reporting: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func tagService(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Tags == nil {
		event.Tags = make(map[string]string)
	}
	event.Tags["service"] = "listentg"
	return event
}

// CaptureError reports err with the given fields. The code and context of
// an AppError are attached as a tag and extra context.
func (r *SentryReporter) CaptureError(err error, fields map[string]interface{}) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		if appErr, ok := apperrors.As(err); ok {
			scope.SetTag("error_code", string(appErr.Code))
			if len(appErr.Context) > 0 {
				scope.SetContext("error_context", sentry.Context(appErr.Context))
			}
		}
		if len(fields) > 0 {
			scope.SetContext("fields", sentry.Context(fields))
		}
		r.hub.CaptureException(err)
	})
}

// CaptureMessage reports an informational message
func (r *SentryReporter) CaptureMessage(message string, fields map[string]interface{}) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelInfo)
		if len(fields) > 0 {
			scope.SetContext("fields", sentry.Context(fields))
		}
		r.hub.CaptureMessage(message)
	})
}

// Flush waits up to timeout for queued events to be delivered
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}

// Recover reports a recovered panic without re-panicking. It must be
// deferred directly.
func Recover(r Reporter, logger logrus.FieldLogger) {
	if v := recover(); v != nil {
		err := fmt.Errorf("panic recovered: %v", v)
		r.CaptureError(err, map[string]interface{}{"panic": true})
		logger.WithField("panic", fmt.Sprintf("%v", v)).Error("Recovered from panic")
	}
}
