package service

import (
	"context"
	"errors"
	"time"

	apperrors "listentg/internal/errors"
	"listentg/internal/metrics"
	"listentg/internal/models"
	"listentg/internal/reporting"
	"listentg/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/ratelimit"
)

// Forwarder drains the delivery queue, forwarding each entry to the target
// group with at least delay between consecutive attempts. Failed forwards
// are logged and dropped.
type Forwarder struct {
	client      MessengerClient
	queue       *DeliveryQueue
	destination int64
	delay       time.Duration
	reporter    reporting.Reporter
	logger      *logrus.Logger
}

func NewForwarder(client MessengerClient, queue *DeliveryQueue, destination int64, delay time.Duration, reporter reporting.Reporter, logger *logrus.Logger) *Forwarder {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return &Forwarder{
		client:      client,
		queue:       queue,
		destination: destination,
		delay:       delay,
		reporter:    reporter,
		logger:      logger,
	}
}

// ctxClock is the limiter clock. Sleep returns early once ctx is done so
// shutdown is not held up by the forwarding delay.
type ctxClock struct {
	ctx context.Context
}

func (c ctxClock) Now() time.Time {
	return time.Now()
}

func (c ctxClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.ctx.Done():
	case <-timer.C:
	}
}

func (f *Forwarder) newLimiter(ctx context.Context) ratelimit.Limiter {
	if f.delay <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(1,
		ratelimit.Per(f.delay),
		ratelimit.WithoutSlack,
		ratelimit.WithClock(ctxClock{ctx: ctx}),
	)
}

// Run forwards entries until ctx is done or the queue is closed and drained.
// It returns an error only when the client can no longer forward at all.
func (f *Forwarder) Run(ctx context.Context) error {
	limiter := f.newLimiter(ctx)

	f.logger.WithFields(logrus.Fields{
		LogFieldDestinationID: maskedID(ctx, f.destination),
		"delay":               f.delay,
	}).Info("Starting forwarder")

	for {
		entry, err := f.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				f.logger.Info("Forwarder stopped")
				return nil
			}
			return err
		}

		limiter.Take()
		if ctx.Err() != nil {
			fields := refFields(ctx, entry.Ref)
			fields[LogFieldAbandoned] = true
			f.logger.WithFields(fields).Info("Skipping forward: shutting down")
			f.queue.Done()
			return nil
		}

		// An attempt that has started runs to completion even if shutdown
		// begins meanwhile.
		err = f.forward(context.WithoutCancel(ctx), entry)
		f.queue.Done()
		if apperrors.IsFatal(err) {
			return err
		}
	}
}

func (f *Forwarder) forward(ctx context.Context, entry models.DeliveryEntry) error {
	ctx, span := tracing.StartSpan(ctx, "forward_message",
		attribute.Int64("chat_id", entry.Ref.ChatID),
		attribute.Int64("message_id", entry.Ref.MessageID),
	)
	defer span.End()

	start := time.Now()
	err := f.client.Forward(ctx, f.destination, entry.Ref)
	metrics.RecordDuration("forward_duration_seconds", time.Since(start), nil)

	fields := refFields(ctx, entry.Ref)
	fields[LogFieldDestinationID] = maskedID(ctx, f.destination)

	if err == nil {
		metrics.IncrementCounter("messages_forwarded_total", map[string]string{"status": "success"})
		span.SetStatus(codes.Ok, "")
		fields[LogFieldQueueSize] = f.queue.Len()
		f.logger.WithFields(fields).Info("Message forwarded")
		return nil
	}

	tracing.RecordError(ctx, err)

	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeForwardRestricted):
		metrics.IncrementCounter("messages_forwarded_total", map[string]string{"status": "restricted"})
		f.logger.WithError(err).WithFields(fields).Warn("Skipping forward: source chat restricts forwarding")
		return nil
	case apperrors.IsFatal(err):
		metrics.IncrementCounter("messages_forwarded_total", map[string]string{"status": "unavailable"})
		apperrors.LogError(f.logger, err, "Messaging client unavailable", fields)
		f.reporter.CaptureError(err, fields)
		return err
	}

	metrics.IncrementCounter("messages_forwarded_total", map[string]string{"status": "error"})
	fwdErr := apperrors.NewForwardError(f.destination, entry.Ref.ChatID, entry.Ref.MessageID, err)
	apperrors.LogError(f.logger, fwdErr, "Failed to forward message", fields)
	f.reporter.CaptureError(fwdErr, fields)
	return fwdErr
}
