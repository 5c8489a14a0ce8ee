package service

import (
	"context"
	"time"
	"unicode/utf8"

	"listentg/internal/constants"
	"listentg/internal/models"
)

// StatsStore is the read side of the message store
type StatsStore interface {
	Location() *time.Location
	CountSince(ctx context.Context, since time.Time) (int64, error)
	TopChatsSince(ctx context.Context, since time.Time, chatTypes []models.ChatType, limit int) ([]models.ChatCount, error)
	DailyCountsSince(ctx context.Context, since time.Time) ([]models.DailyCount, error)
	HourlyActivitySince(ctx context.Context, since time.Time) ([]models.HourlyCount, error)
	TopSendersSince(ctx context.Context, since time.Time, limit int) ([]models.SenderCount, error)
	TopSenderSince(ctx context.Context, since time.Time) (*models.SenderCount, error)
	Search(ctx context.Context, q string) ([]models.SearchResult, error)
}

// groupChatTypes are the chat kinds ranked in the top chat lists
var groupChatTypes = []models.ChatType{models.ChatTypeGroup, models.ChatTypeChannel}

// StatsService assembles the read API payloads
type StatsService struct {
	store StatsStore
	now   func() time.Time
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// startOfDay returns local midnight of the day containing t
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Dashboard returns today's count, the 7-day top chats, daily totals and
// top talker
func (s *StatsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now()
	today := startOfDay(now, s.store.Location())
	weekAgo := now.Add(-time.Duration(constants.StatsWindowDays) * 24 * time.Hour)

	todayCount, err := s.store.CountSince(ctx, today)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.TopChatsSince(ctx, weekAgo, groupChatTypes, constants.TopChatsLimit)
	if err != nil {
		return nil, err
	}
	daily, err := s.store.DailyCountsSince(ctx, today.AddDate(0, 0, -constants.StatsWindowDays))
	if err != nil {
		return nil, err
	}
	talker, err := s.store.TopSenderSince(ctx, weekAgo)
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		TodayMessageCount:  todayCount,
		SevenDayGroupStats: groups,
		SevenDayTotalStats: daily,
		SevenDayTopTalker:  talker,
	}, nil
}

// Activity returns today's top chats, the 7-day top talkers and 30 days of
// hourly activity
func (s *StatsService) Activity(ctx context.Context) (*models.ActivityStats, error) {
	now := s.now()
	today := startOfDay(now, s.store.Location())

	groups, err := s.store.TopChatsSince(ctx, today, groupChatTypes, constants.TopChatsLimit)
	if err != nil {
		return nil, err
	}
	talkers, err := s.store.TopSendersSince(ctx, now.Add(-time.Duration(constants.StatsWindowDays)*24*time.Hour), constants.TopTalkersLimit)
	if err != nil {
		return nil, err
	}
	hourly, err := s.store.HourlyActivitySince(ctx, now.Add(-time.Duration(constants.ActivityWindowDays)*24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &models.ActivityStats{
		TodayGroupStats: groups,
		TopTalkers:      talkers,
		HourlyActivity:  hourly,
	}, nil
}

// Search returns messages containing query. Queries shorter than the
// minimum length return an empty result without querying the store.
func (s *StatsService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if utf8.RuneCountInString(query) < constants.DefaultMinSearchQueryLength {
		return []models.SearchResult{}, nil
	}
	return s.store.Search(ctx, query)
}
