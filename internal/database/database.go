package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"listentg/internal/constants"
	apperrors "listentg/internal/errors"
	"listentg/internal/migrations"
	"listentg/internal/models"
	"listentg/internal/retry"
	"listentg/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// dateLayout is fixed-width so that stored dates sort and compare as text
const dateLayout = "2006-01-02 15:04:05.000000000"

// Options tunes the storage handles. Zero values use the defaults.
type Options struct {
	BusyTimeoutMs int
	MaxReadConns  int
	WriteAttempts int
	// Location is the timezone calendar days and hours are bucketed in
	Location *time.Location
}

// OptionsFromConfig maps the database section of the config to Options
func OptionsFromConfig(cfg models.DatabaseConfig, loc *time.Location) Options {
	return Options{
		BusyTimeoutMs: cfg.BusyTimeoutMs,
		MaxReadConns:  cfg.MaxReadConns,
		WriteAttempts: cfg.WriteAttempts,
		Location:      loc,
	}
}

// Database holds a single-connection writer handle and a separate
// read-only handle onto the same WAL-mode SQLite file.
type Database struct {
	writer       *sql.DB
	reader       *sql.DB
	loc          *time.Location
	writeBackoff *retry.Backoff
}

func New(dbPath string, opts Options) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	if opts.BusyTimeoutMs <= 0 {
		opts.BusyTimeoutMs = constants.DefaultBusyTimeoutMs
	}
	if opts.MaxReadConns <= 0 {
		opts.MaxReadConns = constants.DefaultMaxReadConns
	}
	if opts.WriteAttempts <= 0 {
		opts.WriteAttempts = constants.DefaultDatabaseWriteAttempts
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600) // #nosec G304 - path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	writer, err := openHandle(fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL", dbPath, opts.BusyTimeoutMs))
	if err != nil {
		return nil, fmt.Errorf("failed to open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := openHandle(fmt.Sprintf("%s?_busy_timeout=%d&_query_only=true", dbPath, opts.BusyTimeoutMs))
	if err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to open reader: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	reader.SetMaxOpenConns(opts.MaxReadConns)

	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Duration(constants.DefaultBackoffInitialMs) * time.Millisecond / 10,
		MaxDelay:     time.Duration(constants.DefaultBackoffMaxSec) * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  opts.WriteAttempts,
		Jitter:       true,
	})

	return &Database{
		writer:       writer,
		reader:       reader,
		loc:          opts.Location,
		writeBackoff: backoff,
	}, nil
}

func openHandle(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema applies any pending schema migrations. It is safe to call on
// every startup.
func (d *Database) EnsureSchema(ctx context.Context) error {
	if _, err := migrations.Apply(ctx, d.writer); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageSchema, "failed to initialize schema")
	}
	return nil
}

// Ping checks that the read handle can reach the database
func (d *Database) Ping(ctx context.Context) error {
	if err := d.reader.PingContext(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageConnection, "database unreachable")
	}
	return nil
}

func (d *Database) Close() error {
	readErr := d.reader.Close()
	if err := d.writer.Close(); err != nil {
		return err
	}
	return readErr
}

// SaveMessage appends one record. Lock contention and transient I/O errors
// are retried a bounded number of times; the final failure is returned as a
// storage error.
func (d *Database) SaveMessage(ctx context.Context, record *models.MessageRecord) error {
	if record == nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "record cannot be nil")
	}

	err := retryableDBOperationNoReturn(ctx, d.writeBackoff, func() error {
		result, err := d.writer.ExecContext(ctx, InsertMessageQuery,
			record.MessageID,
			record.ChatID,
			string(record.ChatType),
			record.ChatTitle,
			record.SenderID,
			record.SenderName,
			record.SenderUsername,
			record.Text,
			record.RawText,
			formatDate(record.Date),
			record.IsReply,
			record.ReplyToMessageID,
		)
		if err != nil {
			return err
		}
		if id, err := result.LastInsertId(); err == nil {
			record.ID = id
		}
		return nil
	}, "insert message")
	if err != nil {
		if isRetryableDBError(err) {
			return apperrors.NewRetryableStorageError("insert", err).
				WithContext("chat_id", record.ChatID).
				WithContext("message_id", record.MessageID)
		}
		return apperrors.NewStorageError("insert", err).
			WithContext("chat_id", record.ChatID).
			WithContext("message_id", record.MessageID)
	}
	return nil
}

// MessagesByChat returns every record of one chat in insertion order
func (d *Database) MessagesByChat(ctx context.Context, chatID int64) ([]models.MessageRecord, error) {
	rows, err := d.reader.QueryContext(ctx, SelectMessagesByChatQuery, chatID)
	if err != nil {
		return nil, apperrors.NewStorageError("select messages", err)
	}
	defer rows.Close()

	records := []models.MessageRecord{}
	for rows.Next() {
		var (
			record    models.MessageRecord
			chatType  sql.NullString
			chatTitle sql.NullString
			name      sql.NullString
			username  sql.NullString
			isReply   sql.NullBool
			date      time.Time
		)
		if err := rows.Scan(
			&record.ID, &record.MessageID, &record.ChatID, &chatType, &chatTitle,
			&record.SenderID, &name, &username,
			&record.Text, &record.RawText, &date, &isReply, &record.ReplyToMessageID,
		); err != nil {
			return nil, apperrors.NewStorageError("scan message", err)
		}
		record.ChatType = models.ChatType(chatType.String)
		record.ChatTitle = chatTitle.String
		record.SenderName = name.String
		record.SenderUsername = username.String
		record.IsReply = isReply.Bool
		record.Date = date.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate messages", err)
	}
	return records, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
