package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "listentg/internal/errors"
	"listentg/internal/models"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestIngestor(store MessageStore, q *DeliveryQueue, acker ReadAcknowledger, filters models.FilterConfig) *Ingestor {
	return NewIngestor(NewFilter(filters), store, q, acker, time.UTC, nil, testLogger())
}

func TestIngestor_PersistsAndQueues(t *testing.T) {
	store := &mockStore{}
	q := NewDeliveryQueue(0)
	ing := newTestIngestor(store, q, nil, models.FilterConfig{})

	var saved *models.MessageRecord
	store.On("SaveMessage", mock.Anything, mock.AnythingOfType("*models.MessageRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.MessageRecord) }).
		Return(nil).Once()

	require.NoError(t, ing.Handle(context.Background(), textEvent(-100777, 11, int64Ptr(7), "hello")))

	store.AssertExpectations(t)
	require.NotNil(t, saved)
	assert.Equal(t, int64(-100777), saved.ChatID)
	assert.Equal(t, "Alice", saved.SenderName)
	require.NotNil(t, saved.Text)
	assert.Equal(t, "hello", *saved.Text)

	require.Equal(t, 1, q.Len())
	e, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.MessageRef{ChatID: -100777, MessageID: 11}, e.Ref)
}

func TestIngestor_ExcludedEventIsNotStoredOrQueued(t *testing.T) {
	store := &mockStore{}
	q := NewDeliveryQueue(0)
	ing := newTestIngestor(store, q, nil, models.FilterConfig{
		ExcludeChatIDs:   []int64{-100555},
		ExcludeSenderIDs: []int64{42},
	})

	require.NoError(t, ing.Handle(context.Background(), textEvent(-100555, 1, int64Ptr(7), "hidden")))
	require.NoError(t, ing.Handle(context.Background(), textEvent(-100777, 2, int64Ptr(42), "hidden")))

	store.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
	assert.Equal(t, 0, q.Len())
}

func TestIngestor_ExcludedEventIsLoggedAtInfo(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	store := &mockStore{}
	q := NewDeliveryQueue(0)
	ing := NewIngestor(NewFilter(models.FilterConfig{ExcludeChatIDs: []int64{-100555}}),
		store, q, nil, time.UTC, nil, logger)

	require.NoError(t, ing.Handle(context.Background(), textEvent(-100555, 1, int64Ptr(7), "hidden")))

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Skipping message: excluded", entry.Message)
	assert.Equal(t, "excluded chat", entry.Data[LogFieldReason])
	store.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
	assert.Equal(t, 0, q.Len())
}

func TestIngestor_StorageFailureStillQueues(t *testing.T) {
	store := &mockStore{}
	q := NewDeliveryQueue(0)
	ing := newTestIngestor(store, q, nil, models.FilterConfig{})

	store.On("SaveMessage", mock.Anything, mock.Anything).
		Return(apperrors.NewStorageError("insert message", errors.New("disk full"))).Once()

	require.NoError(t, ing.Handle(context.Background(), textEvent(-100777, 3, int64Ptr(7), "hello")))

	store.AssertExpectations(t)
	assert.Equal(t, 1, q.Len())
}

func TestIngestor_MarksReadBeforeFiltering(t *testing.T) {
	store := &mockStore{}
	acker := &mockAcker{}
	q := NewDeliveryQueue(0)
	ing := newTestIngestor(store, q, acker, models.FilterConfig{ExcludeChatIDs: []int64{-100555}})

	acker.On("MarkRead", mock.Anything, models.MessageRef{ChatID: -100555, MessageID: 1}).Return(nil).Once()
	acker.On("MarkRead", mock.Anything, models.MessageRef{ChatID: -100777, MessageID: 2}).Return(errors.New("not allowed")).Once()
	store.On("SaveMessage", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, ing.Handle(context.Background(), textEvent(-100555, 1, nil, "skip")))
	require.NoError(t, ing.Handle(context.Background(), textEvent(-100777, 2, nil, "keep")))

	acker.AssertExpectations(t)
	store.AssertExpectations(t)
	assert.Equal(t, 1, q.Len())
}

func TestIngestor_EnqueueFailsAfterClose(t *testing.T) {
	store := &mockStore{}
	q := NewDeliveryQueue(0)
	q.Close()
	ing := newTestIngestor(store, q, nil, models.FilterConfig{})

	store.On("SaveMessage", mock.Anything, mock.Anything).Return(nil).Once()

	err := ing.Handle(context.Background(), textEvent(-100777, 4, nil, "late"))
	assert.ErrorIs(t, err, ErrQueueClosed)
}
