package service

import (
	"context"
	"time"

	apperrors "listentg/internal/errors"
	"listentg/internal/metrics"
	"listentg/internal/models"
	"listentg/internal/reporting"
	"listentg/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Ingestor handles each inbound event: filter, persist, log and enqueue
// for forwarding. It is driven serially by the subscription so events of
// one chat keep their arrival order.
type Ingestor struct {
	filter   *Filter
	store    MessageStore
	queue    *DeliveryQueue
	acker    ReadAcknowledger
	loc      *time.Location
	reporter reporting.Reporter
	logger   *logrus.Logger
}

// NewIngestor creates an ingestor. acker may be nil when read
// acknowledgements are disabled or unsupported.
func NewIngestor(filter *Filter, store MessageStore, queue *DeliveryQueue, acker ReadAcknowledger, loc *time.Location, reporter reporting.Reporter, logger *logrus.Logger) *Ingestor {
	if loc == nil {
		loc = time.UTC
	}
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return &Ingestor{
		filter:   filter,
		store:    store,
		queue:    queue,
		acker:    acker,
		loc:      loc,
		reporter: reporter,
		logger:   logger,
	}
}

// Handle processes one event. Storage failures are logged and reported but
// do not stop the event being forwarded. It returns an error only when the
// event could not be queued.
func (i *Ingestor) Handle(ctx context.Context, event *models.EventView) error {
	ctx, span := tracing.StartSpan(ctx, "ingest_message",
		attribute.Int64("chat_id", event.ChatID),
		attribute.Int64("message_id", event.MessageID),
	)
	defer span.End()

	ref := event.Ref()
	fields := refFields(ctx, ref)

	i.markRead(ctx, ref, fields)

	senderID := event.SenderID()
	if !i.filter.Allow(event.ChatID, senderID) {
		metrics.IncrementCounter("messages_received_total", map[string]string{"status": "skipped"})
		fields[LogFieldReason] = i.filter.Reason(event.ChatID, senderID)
		if senderID != nil {
			fields[LogFieldSenderID] = maskedID(ctx, *senderID)
		}
		i.logger.WithFields(fields).Info("Skipping message: excluded")
		return nil
	}
	metrics.IncrementCounter("messages_received_total", map[string]string{"status": "accepted"})

	record := models.NewMessageRecord(event)
	if err := i.store.SaveMessage(ctx, record); err != nil {
		metrics.IncrementCounter("messages_persist_failures_total", nil)
		tracing.RecordError(ctx, err)
		apperrors.LogError(i.logger, err, "Failed to persist message", fields)
		i.reporter.CaptureError(err, fields)
	}

	if line, ok := FormatMessage(event, i.loc); ok {
		i.logger.Info(line)
	}

	if err := i.queue.Enqueue(ctx, models.DeliveryEntry{Ref: ref}); err != nil {
		i.logger.WithError(err).WithFields(fields).Warn("Failed to queue message for forwarding")
		return err
	}
	metrics.SetGauge("delivery_queue_length", float64(i.queue.Len()), nil)

	fields[LogFieldQueueSize] = i.queue.Len()
	i.logger.WithFields(fields).Info("Message queued for forwarding")
	return nil
}

// markRead acknowledges the event before filtering, so excluded chats are
// also cleared. Failures only get logged.
func (i *Ingestor) markRead(ctx context.Context, ref models.MessageRef, fields logrus.Fields) {
	if i.acker == nil {
		return
	}
	if err := i.acker.MarkRead(ctx, ref); err != nil {
		i.logger.WithError(err).WithFields(fields).Debug("Failed to mark message as read")
	}
}
