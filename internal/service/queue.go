package service

import (
	"context"
	"errors"
	"sync"

	"listentg/internal/models"
)

// ErrQueueClosed is returned by Enqueue and Dequeue once the queue is closed
var ErrQueueClosed = errors.New("delivery queue closed")

// DeliveryQueue is a FIFO of pending forwards shared by the ingestor
// (producer) and the forwarder (consumer). A capacity of zero means unbounded.
type DeliveryQueue struct {
	mu       sync.Mutex
	items    []models.DeliveryEntry
	pending  int
	capacity int
	closed   bool

	notEmpty chan struct{}
	notFull  chan struct{}
	closedCh chan struct{}
}

func NewDeliveryQueue(capacity int) *DeliveryQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &DeliveryQueue{
		capacity: capacity,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
}

// Enqueue appends entry at the tail. When the queue is bounded and full it
// blocks until room is made, ctx is done or the queue is closed.
func (q *DeliveryQueue) Enqueue(ctx context.Context, entry models.DeliveryEntry) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrQueueClosed
		}
		if q.capacity == 0 || len(q.items) < q.capacity {
			q.items = append(q.items, entry)
			if q.capacity == 0 || len(q.items) < q.capacity {
				signal(q.notFull)
			}
			q.mu.Unlock()
			signal(q.notEmpty)
			return nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.closedCh:
		case <-q.notFull:
		}
	}
}

// Dequeue removes the head entry, blocking while the queue is empty. The
// caller must call Done once it has finished with the entry.
func (q *DeliveryQueue) Dequeue(ctx context.Context) (models.DeliveryEntry, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			entry := q.items[0]
			q.items[0] = models.DeliveryEntry{}
			q.items = q.items[1:]
			q.pending++
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				signal(q.notEmpty)
			}
			signal(q.notFull)
			return entry, nil
		}
		if q.closed {
			q.mu.Unlock()
			return models.DeliveryEntry{}, ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.DeliveryEntry{}, ctx.Err()
		case <-q.closedCh:
		case <-q.notEmpty:
		}
	}
}

// Done marks a dequeued entry as processed
func (q *DeliveryQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending > 0 {
		q.pending--
	}
}

// Len returns the number of entries waiting to be dequeued
func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns the number of dequeued entries not yet marked done
func (q *DeliveryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Close stops the queue and abandons the entries still waiting, returning
// how many were dropped. Later calls return zero.
func (q *DeliveryQueue) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.closed = true
	close(q.closedCh)
	abandoned := len(q.items)
	q.items = nil
	return abandoned
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
