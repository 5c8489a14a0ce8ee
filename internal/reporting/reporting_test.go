package reporting

import (
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "listentg/internal/errors"
	"listentg/internal/models"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (c *capturedEvents) beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, tagService(event, hint))
	return nil
}

func (c *capturedEvents) all() []*sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*sentry.Event(nil), c.events...)
}

func newTestReporter(t *testing.T) (*SentryReporter, *capturedEvents) {
	t.Helper()
	captured := &capturedEvents{}
	reporter, err := newSentryReporter(sentry.ClientOptions{
		Dsn:        "https://public@example.com/1",
		BeforeSend: captured.beforeSend,
	})
	require.NoError(t, err)
	return reporter, captured
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestNew_DisabledReturnsNop(t *testing.T) {
	reporter, err := New(models.ErrorReportingConfig{Enabled: false}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, reporter)

	reporter, err = New(models.ErrorReportingConfig{Enabled: true}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, reporter)
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(models.ErrorReportingConfig{Enabled: true, DSN: "::not a dsn"}, quietLogger())
	assert.Error(t, err)
}

func TestSentryReporter_CaptureAppError(t *testing.T) {
	reporter, captured := newTestReporter(t)

	err := apperrors.NewForwardError(-1001, -100555, 42, errors.New("chat not found"))
	reporter.CaptureError(err, map[string]interface{}{"queue_size": 3})

	events := captured.all()
	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "FORWARD", event.Tags["error_code"])
	assert.Equal(t, "listentg", event.Tags["service"])
	assert.Equal(t, int64(-100555), event.Contexts["error_context"]["chat_id"])
	assert.Equal(t, 3, event.Contexts["fields"]["queue_size"])
}

func TestSentryReporter_CaptureMessageAndNil(t *testing.T) {
	reporter, captured := newTestReporter(t)

	reporter.CaptureError(nil, nil)
	reporter.CaptureMessage("pipeline started", nil)

	events := captured.all()
	require.Len(t, events, 1)
	assert.Equal(t, "pipeline started", events[0].Message)
	assert.True(t, reporter.Flush(10*time.Millisecond))
}

func TestRecover(t *testing.T) {
	reporter, captured := newTestReporter(t)

	func() {
		defer Recover(reporter, quietLogger())
		panic("boom")
	}()

	events := captured.all()
	require.Len(t, events, 1)
}

func TestNop(t *testing.T) {
	var r Reporter = Nop{}
	r.CaptureError(errors.New("x"), nil)
	r.CaptureMessage("x", nil)
	assert.True(t, r.Flush(time.Millisecond))
}
