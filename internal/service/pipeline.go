package service

import (
	"context"
	"errors"

	"listentg/internal/models"

	"github.com/sirupsen/logrus"
)

// EventHandler receives each inbound message event
type EventHandler = func(ctx context.Context, event *models.EventView)

// MessengerClient is the messaging platform as seen by the pipeline
type MessengerClient interface {
	// Subscribe delivers events to handler until ctx is done
	Subscribe(ctx context.Context, handler EventHandler) error
	// Forward re-posts the referenced message into destination
	Forward(ctx context.Context, destination int64, ref models.MessageRef) error
}

// ReadAcknowledger is implemented by clients that can mark messages as read
type ReadAcknowledger interface {
	MarkRead(ctx context.Context, ref models.MessageRef) error
}

// MessageStore persists accepted messages
type MessageStore interface {
	SaveMessage(ctx context.Context, record *models.MessageRecord) error
}

// Pipeline wires the subscription, ingestor and forwarder around one
// delivery queue
type Pipeline struct {
	client    MessengerClient
	ingestor  *Ingestor
	forwarder *Forwarder
	queue     *DeliveryQueue
	logger    *logrus.Logger
}

func NewPipeline(client MessengerClient, ingestor *Ingestor, forwarder *Forwarder, queue *DeliveryQueue, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		client:    client,
		ingestor:  ingestor,
		forwarder: forwarder,
		queue:     queue,
		logger:    logger,
	}
}

// Run receives events until ctx is done, then abandons whatever is still
// queued. An unrecoverable client error from the forwarder stops the
// subscription and is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	forwarderDone := make(chan error, 1)
	go func() {
		err := p.forwarder.Run(ctx)
		if err != nil {
			cancel()
		}
		forwarderDone <- err
	}()

	subErr := p.client.Subscribe(ctx, func(ctx context.Context, event *models.EventView) {
		// Enqueue only fails once shutdown has started
		_ = p.ingestor.Handle(ctx, event)
	})
	cancel()

	if abandoned := p.queue.Close(); abandoned > 0 {
		p.logger.WithField(LogFieldAbandoned, abandoned).Warn("Abandoned queued forwards on shutdown")
	}

	if err := <-forwarderDone; err != nil {
		return err
	}
	if subErr != nil && !errors.Is(subErr, context.Canceled) {
		return subErr
	}
	return nil
}
