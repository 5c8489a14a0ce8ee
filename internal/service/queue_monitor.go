package service

import (
	"context"
	"time"

	"listentg/internal/constants"
	"listentg/internal/metrics"

	"github.com/sirupsen/logrus"
)

// QueueStats reports the delivery queue depth
type QueueStats interface {
	Len() int
	Pending() int
}

// QueueMonitor periodically publishes the queue depth and warns when the
// backlog grows past a threshold
type QueueMonitor struct {
	queue            QueueStats
	checkInterval    time.Duration
	backlogThreshold int
	logger           *logrus.Logger
	stopCh           chan struct{}
}

func NewQueueMonitor(queue QueueStats, checkInterval time.Duration, backlogThreshold int, logger *logrus.Logger) *QueueMonitor {
	if checkInterval <= 0 {
		checkInterval = time.Duration(constants.DefaultQueueMonitorSec) * time.Second
	}
	return &QueueMonitor{
		queue:            queue,
		checkInterval:    checkInterval,
		backlogThreshold: backlogThreshold,
		logger:           logger,
		stopCh:           make(chan struct{}),
	}
}

func (m *QueueMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	m.logger.WithFields(logrus.Fields{
		"check_interval":    m.checkInterval,
		"backlog_threshold": m.backlogThreshold,
	}).Info("Starting queue monitor")

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.checkBacklog()
		}
	}
}

func (m *QueueMonitor) Stop() {
	close(m.stopCh)
}

func (m *QueueMonitor) checkBacklog() {
	length, pending := m.queue.Len(), m.queue.Pending()
	metrics.SetGauge("delivery_queue_length", float64(length), nil)
	metrics.SetGauge("delivery_queue_pending", float64(pending), nil)
	if m.backlogThreshold > 0 && length > m.backlogThreshold {
		m.logger.WithFields(logrus.Fields{
			LogFieldQueueSize: length,
			LogFieldPending:   pending,
			"threshold":       m.backlogThreshold,
		}).Warn("Delivery queue backlog above threshold")
	}
}
