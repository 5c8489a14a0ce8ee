package service

import (
	"context"
	"sync"
	"time"

	"listentg/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func int64Ptr(v int64) *int64 { return &v }

// fakeMessenger replays a fixed set of events and records forwards
type fakeMessenger struct {
	mu           sync.Mutex
	events       []*models.EventView
	forwarded    []models.MessageRef
	forwardTimes []time.Time
	errs         map[int64]error
	forwardedCh  chan models.MessageRef
}

func newFakeMessenger(events ...*models.EventView) *fakeMessenger {
	return &fakeMessenger{
		events:      events,
		errs:        make(map[int64]error),
		forwardedCh: make(chan models.MessageRef, 100),
	}
}

func (f *fakeMessenger) Subscribe(ctx context.Context, handler EventHandler) error {
	for _, ev := range f.events {
		handler(ctx, ev)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeMessenger) Forward(ctx context.Context, destination int64, ref models.MessageRef) error {
	f.mu.Lock()
	f.forwarded = append(f.forwarded, ref)
	f.forwardTimes = append(f.forwardTimes, time.Now())
	err := f.errs[ref.MessageID]
	f.mu.Unlock()

	select {
	case f.forwardedCh <- ref:
	default:
	}
	return err
}

func (f *fakeMessenger) setError(messageID int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[messageID] = err
}

func (f *fakeMessenger) Forwarded() []models.MessageRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MessageRef(nil), f.forwarded...)
}

func (f *fakeMessenger) ForwardTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.forwardTimes...)
}

// waitForwarded blocks until n forwards were observed or timeout elapses
func (f *fakeMessenger) waitForwarded(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-f.forwardedCh:
		case <-deadline:
			return false
		}
	}
	return true
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveMessage(ctx context.Context, record *models.MessageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type mockAcker struct {
	mock.Mock
}

func (m *mockAcker) MarkRead(ctx context.Context, ref models.MessageRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

type mockStatsStore struct {
	mock.Mock
}

func (m *mockStatsStore) Location() *time.Location {
	args := m.Called()
	return args.Get(0).(*time.Location)
}

func (m *mockStatsStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStatsStore) TopChatsSince(ctx context.Context, since time.Time, chatTypes []models.ChatType, limit int) ([]models.ChatCount, error) {
	args := m.Called(ctx, since, chatTypes, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatCount), args.Error(1)
}

func (m *mockStatsStore) DailyCountsSince(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DailyCount), args.Error(1)
}

func (m *mockStatsStore) HourlyActivitySince(ctx context.Context, since time.Time) ([]models.HourlyCount, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HourlyCount), args.Error(1)
}

func (m *mockStatsStore) TopSendersSince(ctx context.Context, since time.Time, limit int) ([]models.SenderCount, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SenderCount), args.Error(1)
}

func (m *mockStatsStore) TopSenderSince(ctx context.Context, since time.Time) (*models.SenderCount, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SenderCount), args.Error(1)
}

func (m *mockStatsStore) Search(ctx context.Context, q string) ([]models.SearchResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchResult), args.Error(1)
}

func textEvent(chatID, messageID int64, senderID *int64, text string) *models.EventView {
	ev := &models.EventView{
		MessageID: messageID,
		ChatID:    chatID,
		Chat:      &models.ChatInfo{ID: chatID, Title: "Test Group", Kind: models.ChatTypeGroup},
		Text:      text,
		Date:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if senderID != nil {
		ev.Sender = &models.SenderInfo{ID: *senderID, FirstName: "Alice", Username: "alice"}
	}
	return ev
}
