package database

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"listentg/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T, loc *time.Location) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), Options{Location: loc, WriteAttempts: 2})
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func newRecord(chatID int64, title string, kind models.ChatType, sender string, text string, date time.Time) *models.MessageRecord {
	return &models.MessageRecord{
		MessageID:      date.UnixNano() % 1_000_000,
		ChatID:         chatID,
		ChatType:       kind,
		ChatTitle:      title,
		SenderID:       int64Ptr(1),
		SenderName:     sender,
		SenderUsername: models.NoUsername,
		Text:           strPtr(text),
		RawText:        strPtr(text),
		Date:           date,
	}
}

func mustSave(t *testing.T, db *Database, records ...*models.MessageRecord) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, db.SaveMessage(context.Background(), r))
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("", Options{})
	assert.Error(t, err)

	_, err = New("../../escape.db", Options{})
	assert.Error(t, err)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := setupTestDB(t, time.UTC)
	assert.NoError(t, db.EnsureSchema(context.Background()))
	assert.NoError(t, db.Ping(context.Background()))
}

func TestSaveMessage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	date := time.Date(2025, 3, 1, 10, 30, 15, 123456789, time.UTC)
	record := &models.MessageRecord{
		MessageID:        77,
		ChatID:           -1001234,
		ChatType:         models.ChatTypeChannel,
		ChatTitle:        "Announcements",
		SenderID:         int64Ptr(42),
		SenderName:       "Ada Lovelace",
		SenderUsername:   "ada",
		Text:             strPtr("**hello**"),
		RawText:          strPtr("hello"),
		Date:             date,
		IsReply:          true,
		ReplyToMessageID: int64Ptr(70),
	}

	require.NoError(t, db.SaveMessage(ctx, record))
	assert.NotZero(t, record.ID)

	records, err := db.MessagesByChat(ctx, -1001234)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, int64(77), got.MessageID)
	assert.Equal(t, int64(-1001234), got.ChatID)
	assert.Equal(t, models.ChatTypeChannel, got.ChatType)
	assert.Equal(t, "Announcements", got.ChatTitle)
	assert.Equal(t, int64(42), *got.SenderID)
	assert.Equal(t, "Ada Lovelace", got.SenderName)
	assert.Equal(t, "ada", got.SenderUsername)
	assert.Equal(t, "**hello**", *got.Text)
	assert.Equal(t, "hello", *got.RawText)
	assert.True(t, got.Date.Equal(date))
	assert.True(t, got.IsReply)
	assert.Equal(t, int64(70), *got.ReplyToMessageID)
}

func TestSaveMessage_NullableFields(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	record := models.NewMessageRecord(&models.EventView{MessageID: 1, ChatID: 99, Date: time.Now()})
	require.NoError(t, db.SaveMessage(ctx, record))

	records, err := db.MessagesByChat(ctx, 99)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].SenderID)
	assert.Nil(t, records[0].Text)
	assert.Nil(t, records[0].RawText)
	assert.Nil(t, records[0].ReplyToMessageID)
	assert.Equal(t, "Direct Message", records[0].ChatTitle)
	assert.Equal(t, "Unknown", records[0].SenderName)
}

func TestSaveMessage_DuplicateIDsAllowed(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	now := time.Now()
	first := newRecord(5, "Chat", models.ChatTypeGroup, "A", "one", now)
	second := newRecord(5, "Chat", models.ChatTypeGroup, "A", "two", now)
	second.MessageID = first.MessageID
	mustSave(t, db, first, second)

	records, err := db.MessagesByChat(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSaveMessage_Errors(t *testing.T) {
	db := setupTestDB(t, time.UTC)

	assert.Error(t, db.SaveMessage(context.Background(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.SaveMessage(ctx, newRecord(1, "c", models.ChatTypeGroup, "s", "t", time.Now())))
}

func TestCountSince_IncrementsByOne(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	mustSave(t, db, newRecord(1, "Old", models.ChatTypeGroup, "A", "yesterday", startOfDay.Add(-time.Hour)))

	before, err := db.CountSince(ctx, startOfDay)
	require.NoError(t, err)

	mustSave(t, db, newRecord(1, "New", models.ChatTypeGroup, "A", "now", time.Now()))

	after, err := db.CountSince(ctx, startOfDay)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestDailyCountsSince_WindowExcludesOlderDays(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	threeDaysAgo := startOfDay.AddDate(0, 0, -3).Add(12 * time.Hour)
	fiveDaysAgo := startOfDay.AddDate(0, 0, -5).Add(12 * time.Hour)
	tenDaysAgo := startOfDay.AddDate(0, 0, -10).Add(12 * time.Hour)

	mustSave(t, db,
		newRecord(1, "A", models.ChatTypeGroup, "x", "m1", threeDaysAgo),
		newRecord(1, "A", models.ChatTypeGroup, "x", "m2", threeDaysAgo.Add(time.Minute)),
		newRecord(1, "A", models.ChatTypeGroup, "x", "m3", fiveDaysAgo),
		newRecord(1, "A", models.ChatTypeGroup, "x", "m4", tenDaysAgo),
	)

	counts, err := db.DailyCountsSince(ctx, startOfDay.AddDate(0, 0, -7))
	require.NoError(t, err)

	assert.Equal(t, []models.DailyCount{
		{Date: fiveDaysAgo.Format("2006-01-02"), Count: 1},
		{Date: threeDaysAgo.Format("2006-01-02"), Count: 2},
	}, counts)
}

func TestDailyCountsSince_UsesConfiguredTimezone(t *testing.T) {
	ctx := context.Background()
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	db := setupTestDB(t, shanghai)

	// 17:30 UTC on March 1st is 01:30 on March 2nd in UTC+8
	late := time.Date(2025, 3, 1, 17, 30, 0, 0, time.UTC)
	early := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)
	mustSave(t, db,
		newRecord(1, "A", models.ChatTypeGroup, "x", "late", late),
		newRecord(1, "A", models.ChatTypeGroup, "x", "early", early),
	)

	counts, err := db.DailyCountsSince(ctx, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{
		{Date: "2025-03-01", Count: 1},
		{Date: "2025-03-02", Count: 1},
	}, counts)

	hourly, err := db.HourlyActivitySince(ctx, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []models.HourlyCount{
		{Date: "2025-03-01", Hour: 23, Count: 1},
		{Date: "2025-03-02", Hour: 1, Count: 1},
	}, hourly)
}

func TestDailyCountsSince_HalfHourOffset(t *testing.T) {
	ctx := context.Background()
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	db := setupTestDB(t, kolkata)

	// 18:29 UTC is 23:59 local, 18:31 UTC is 00:01 the next day
	mustSave(t, db,
		newRecord(1, "A", models.ChatTypeGroup, "x", "before", time.Date(2025, 3, 1, 18, 29, 0, 0, time.UTC)),
		newRecord(1, "A", models.ChatTypeGroup, "x", "after", time.Date(2025, 3, 1, 18, 31, 0, 0, time.UTC)),
	)

	counts, err := db.DailyCountsSince(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{
		{Date: "2025-03-01", Count: 1},
		{Date: "2025-03-02", Count: 1},
	}, counts)
}

func TestTopChatsSince(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	now := time.Now()
	mustSave(t, db,
		newRecord(1, "Beta", models.ChatTypeGroup, "x", "1", now),
		newRecord(1, "Beta", models.ChatTypeGroup, "x", "2", now),
		newRecord(2, "Alpha", models.ChatTypeChannel, "x", "3", now),
		newRecord(2, "Alpha", models.ChatTypeChannel, "x", "4", now),
		newRecord(3, "Gamma", models.ChatTypeGroup, "x", "5", now),
		newRecord(4, "Private", models.ChatTypeUser, "x", "6", now),
		newRecord(4, "Private", models.ChatTypeUser, "x", "7", now),
		newRecord(4, "Private", models.ChatTypeUser, "x", "8", now),
		newRecord(5, "Ancient", models.ChatTypeGroup, "x", "9", now.AddDate(0, 0, -30)),
	)

	chats, err := db.TopChatsSince(ctx, now.AddDate(0, 0, -7), []models.ChatType{models.ChatTypeGroup, models.ChatTypeChannel}, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.ChatCount{
		{ChatTitle: "Alpha", Count: 2},
		{ChatTitle: "Beta", Count: 2},
		{ChatTitle: "Gamma", Count: 1},
	}, chats)

	limited, err := db.TopChatsSince(ctx, now.AddDate(0, 0, -7), []models.ChatType{models.ChatTypeGroup}, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.ChatCount{{ChatTitle: "Beta", Count: 2}}, limited)

	none, err := db.TopChatsSince(ctx, now.AddDate(0, 0, -7), nil, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTopSenderSince(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)
	since := time.Now().AddDate(0, 0, -7)

	top, err := db.TopSenderSince(ctx, since)
	require.NoError(t, err)
	assert.Nil(t, top)

	now := time.Now()
	mustSave(t, db,
		newRecord(1, "A", models.ChatTypeGroup, models.UnknownSender, "1", now),
		newRecord(1, "A", models.ChatTypeGroup, models.UnknownSender, "2", now),
		newRecord(1, "A", models.ChatTypeGroup, models.UnknownSender, "3", now),
		newRecord(1, "A", models.ChatTypeGroup, "Bob", "4", now),
		newRecord(1, "A", models.ChatTypeGroup, "Ada", "5", now),
		newRecord(1, "A", models.ChatTypeGroup, "Ada", "6", now),
	)

	top, err = db.TopSenderSince(ctx, since)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, models.SenderCount{SenderName: "Ada", Count: 2}, *top)

	senders, err := db.TopSendersSince(ctx, since, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.SenderCount{
		{SenderName: "Ada", Count: 2},
		{SenderName: "Bob", Count: 1},
	}, senders)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mustSave(t, db,
		newRecord(1, "A", models.ChatTypeGroup, "x", "Hello World", base),
		newRecord(2, "B", models.ChatTypeGroup, "y", "say HELLO again", base.Add(time.Hour)),
		newRecord(3, "C", models.ChatTypeGroup, "z", "nothing here", base.Add(2*time.Hour)),
	)

	results, err := db.Search(ctx, "hello")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "say HELLO again", results[0].Text)
	assert.Equal(t, "Hello World", results[1].Text)
	assert.Equal(t, "B", results[0].ChatTitle)
	assert.Equal(t, "y", results[0].SenderName)
	assert.True(t, results[0].Date.Equal(base.Add(time.Hour)))

	empty, err := db.Search(ctx, "absent")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	now := time.Now()
	mustSave(t, db,
		newRecord(1, "A", models.ChatTypeGroup, "x", "100% sure", now),
		newRecord(1, "A", models.ChatTypeGroup, "x", "1000 sure", now),
		newRecord(1, "A", models.ChatTypeGroup, "x", "snake_case", now),
		newRecord(1, "A", models.ChatTypeGroup, "x", "snakeXcase", now),
	)

	results, err := db.Search(ctx, "0%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% sure", results[0].Text)

	results, err = db.Search(ctx, "e_c")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "snake_case", results[0].Text)
}

func TestSearch_LimitsResults(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		mustSave(t, db, newRecord(1, "A", models.ChatTypeGroup, "x", fmt.Sprintf("match %d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	results, err := db.Search(ctx, "match")
	require.NoError(t, err)
	require.Len(t, results, 50)
	assert.Equal(t, "match 59", results[0].Text)
	for i := 1; i < len(results); i++ {
		assert.False(t, results[i].Date.After(results[i-1].Date))
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, time.UTC)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, db.SaveMessage(ctx, newRecord(1, "A", models.ChatTypeGroup, "x", "concurrent", time.Now())))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := db.CountSince(ctx, time.Now().Add(-time.Hour))
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	count, err := db.CountSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.False(t, strings.Contains(escapeLike("plain"), `\`))
}
