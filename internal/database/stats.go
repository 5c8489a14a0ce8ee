package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"listentg/internal/constants"
	apperrors "listentg/internal/errors"
	"listentg/internal/models"
)

// Location returns the timezone used for day and hour buckets
func (d *Database) Location() *time.Location {
	return d.loc
}

// CountSince returns the number of records dated at or after since
func (d *Database) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := d.reader.QueryRowContext(ctx, CountMessagesSinceQuery, formatDate(since)).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError("count messages", err)
	}
	return count, nil
}

// TopChatsSince groups records of the given chat types by title, ordered by
// count descending and title ascending.
func (d *Database) TopChatsSince(ctx context.Context, since time.Time, chatTypes []models.ChatType, limit int) ([]models.ChatCount, error) {
	result := []models.ChatCount{}
	if len(chatTypes) == 0 || limit <= 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chatTypes)), ",")
	query := fmt.Sprintf(TopChatsSinceQueryTemplate, placeholders)

	args := make([]interface{}, 0, len(chatTypes)+2)
	args = append(args, formatDate(since))
	for _, ct := range chatTypes {
		args = append(args, string(ct))
	}
	args = append(args, limit)

	rows, err := d.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("top chats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.ChatCount
		if err := rows.Scan(&c.ChatTitle, &c.Count); err != nil {
			return nil, apperrors.NewStorageError("scan top chats", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate top chats", err)
	}
	return result, nil
}

type quarterHourCount struct {
	start time.Time
	count int64
}

func (d *Database) quarterHourCountsSince(ctx context.Context, since time.Time) ([]quarterHourCount, error) {
	rows, err := d.reader.QueryContext(ctx, QuarterHourCountsSinceQuery, formatDate(since))
	if err != nil {
		return nil, apperrors.NewStorageError("bucket counts", err)
	}
	defer rows.Close()

	var buckets []quarterHourCount
	for rows.Next() {
		var (
			hourKey string
			quarter int
			count   int64
		)
		if err := rows.Scan(&hourKey, &quarter, &count); err != nil {
			return nil, apperrors.NewStorageError("scan bucket counts", err)
		}
		hour, err := time.ParseInLocation("2006-01-02 15", hourKey, time.UTC)
		if err != nil {
			return nil, apperrors.NewStorageError("parse bucket", err).WithContext("bucket", hourKey)
		}
		buckets = append(buckets, quarterHourCount{
			start: hour.Add(time.Duration(quarter) * 15 * time.Minute),
			count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate bucket counts", err)
	}
	return buckets, nil
}

// DailyCountsSince returns per-day record counts in the configured timezone,
// ascending by day. Days without records are omitted.
func (d *Database) DailyCountsSince(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	buckets, err := d.quarterHourCountsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	result := []models.DailyCount{}
	for _, b := range buckets {
		day := b.start.In(d.loc).Format("2006-01-02")
		if n := len(result); n > 0 && result[n-1].Date == day {
			result[n-1].Count += b.count
			continue
		}
		result = append(result, models.DailyCount{Date: day, Count: b.count})
	}
	return result, nil
}

// HourlyActivitySince returns per-hour record counts in the configured
// timezone, ascending. Hours without records are omitted.
func (d *Database) HourlyActivitySince(ctx context.Context, since time.Time) ([]models.HourlyCount, error) {
	buckets, err := d.quarterHourCountsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	result := []models.HourlyCount{}
	for _, b := range buckets {
		local := b.start.In(d.loc)
		day, hour := local.Format("2006-01-02"), local.Hour()
		if n := len(result); n > 0 && result[n-1].Date == day && result[n-1].Hour == hour {
			result[n-1].Count += b.count
			continue
		}
		result = append(result, models.HourlyCount{Date: day, Hour: hour, Count: b.count})
	}
	return result, nil
}

// TopSendersSince ranks senders by record count, excluding records without a
// known sender.
func (d *Database) TopSendersSince(ctx context.Context, since time.Time, limit int) ([]models.SenderCount, error) {
	result := []models.SenderCount{}
	if limit <= 0 {
		return result, nil
	}

	rows, err := d.reader.QueryContext(ctx, TopSendersSinceQuery, formatDate(since), models.UnknownSender, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("top senders", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.SenderCount
		if err := rows.Scan(&s.SenderName, &s.Count); err != nil {
			return nil, apperrors.NewStorageError("scan top senders", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate top senders", err)
	}
	return result, nil
}

// TopSenderSince returns the most active known sender or nil when there is none
func (d *Database) TopSenderSince(ctx context.Context, since time.Time) (*models.SenderCount, error) {
	senders, err := d.TopSendersSince(ctx, since, 1)
	if err != nil {
		return nil, err
	}
	if len(senders) == 0 {
		return nil, nil
	}
	return &senders[0], nil
}

// Search returns up to the search limit of records whose text contains q,
// newest first. Matching is case-insensitive for ASCII; LIKE wildcards in q
// match literally.
func (d *Database) Search(ctx context.Context, q string) ([]models.SearchResult, error) {
	pattern := "%" + escapeLike(q) + "%"

	rows, err := d.reader.QueryContext(ctx, SearchMessagesQuery, pattern, constants.DefaultSearchResultLimit)
	if err != nil {
		return nil, apperrors.NewStorageError("search messages", err)
	}
	defer rows.Close()

	result := []models.SearchResult{}
	for rows.Next() {
		var (
			r    models.SearchResult
			date time.Time
		)
		if err := rows.Scan(&r.ChatTitle, &r.SenderName, &r.Text, &date); err != nil {
			return nil, apperrors.NewStorageError("scan search results", err)
		}
		r.Date = date.UTC()
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate search results", err)
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
