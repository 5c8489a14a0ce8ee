package database

// Message write queries
const (
	InsertMessageQuery = `
		INSERT INTO messages (
			message_id, chat_id, chat_type, chat_title,
			sender_id, sender_name, sender_username,
			text, raw_text, date, is_reply, reply_to_message_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
)

// Message read queries
const (
	SelectMessagesByChatQuery = `
		SELECT id, message_id, chat_id, chat_type, chat_title,
		       sender_id, sender_name, sender_username,
		       text, raw_text, date, is_reply, reply_to_message_id
		FROM messages
		WHERE chat_id = ?
		ORDER BY id
	`

	CountMessagesSinceQuery = `
		SELECT COUNT(*)
		FROM messages
		WHERE date >= ?
	`

	// %s is replaced by the chat type placeholder list
	TopChatsSinceQueryTemplate = `
		SELECT chat_title, COUNT(*) AS message_count
		FROM messages
		WHERE date >= ? AND chat_type IN (%s)
		GROUP BY chat_title
		ORDER BY message_count DESC, chat_title ASC
		LIMIT ?
	`

	// Quarter-hour buckets are fine enough to be re-bucketed into local
	// days and hours for any real timezone offset.
	QuarterHourCountsSinceQuery = `
		SELECT substr(date, 1, 13) AS hour_key,
		       CAST(substr(date, 15, 2) AS INTEGER) / 15 AS quarter,
		       COUNT(*) AS message_count
		FROM messages
		WHERE date >= ?
		GROUP BY hour_key, quarter
		ORDER BY hour_key, quarter
	`

	TopSendersSinceQuery = `
		SELECT sender_name, COUNT(*) AS message_count
		FROM messages
		WHERE date >= ? AND sender_name IS NOT ?
		GROUP BY sender_name
		ORDER BY message_count DESC, sender_name ASC
		LIMIT ?
	`

	SearchMessagesQuery = `
		SELECT chat_title, sender_name, text, date
		FROM messages
		WHERE text LIKE ? ESCAPE '\'
		ORDER BY date DESC, id DESC
		LIMIT ?
	`
)
