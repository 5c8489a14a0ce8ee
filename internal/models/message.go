package models

import (
	"strings"
	"time"
)

// ChatType classifies the conversation a message arrived in
type ChatType string

const (
	ChatTypeUser    ChatType = "User"
	ChatTypeGroup   ChatType = "Group"
	ChatTypeChannel ChatType = "Channel"
	ChatTypeUnknown ChatType = "Unknown"
)

// MediaKind is the closed set of media attachments that get a text placeholder
type MediaKind int

const (
	MediaPhoto MediaKind = iota
	MediaSticker
	MediaVideo
	MediaDocument
)

// mediaPriority is the order placeholders are chosen in when a message
// carries more than one kind (a sticker is also a document, for example).
var mediaPriority = []MediaKind{MediaPhoto, MediaSticker, MediaVideo, MediaDocument}

// Placeholder returns the stored text for a media-only message
func (k MediaKind) Placeholder() string {
	switch k {
	case MediaPhoto:
		return "[image]"
	case MediaSticker:
		return "[sticker]"
	case MediaVideo:
		return "[video]"
	case MediaDocument:
		return "[file]"
	default:
		return ""
	}
}

const (
	DefaultChatTitle      = "Direct Message"
	UnknownSender         = "Unknown"
	UnknownSenderUsername = "Unknown"
	NoUsername            = "NoUsername"
)

// ChatInfo is the chat part of an inbound event
type ChatInfo struct {
	ID    int64
	Title string
	Kind  ChatType
}

// SenderInfo is the sender part of an inbound event
type SenderInfo struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// MessageRef identifies a message on the platform well enough to forward it again
type MessageRef struct {
	ChatID    int64 `json:"chatId"`
	MessageID int64 `json:"messageId"`
}

// EventView is an inbound message event with every attribute resolved up front.
// Chat and Sender are nil when the platform did not supply them.
type EventView struct {
	MessageID        int64
	ChatID           int64
	Chat             *ChatInfo
	Sender           *SenderInfo
	Text             string
	RawText          string
	Media            []MediaKind
	Date             time.Time
	ReplyToMessageID *int64
}

// Ref returns the forwarding reference of the event
func (e *EventView) Ref() MessageRef {
	return MessageRef{ChatID: e.ChatID, MessageID: e.MessageID}
}

// SenderID returns the sender id or nil when there is no sender
func (e *EventView) SenderID() *int64 {
	if e.Sender == nil {
		return nil
	}
	id := e.Sender.ID
	return &id
}

// MediaPlaceholder picks the placeholder of the highest-priority media kind present
func (e *EventView) MediaPlaceholder() (string, bool) {
	for _, kind := range mediaPriority {
		for _, have := range e.Media {
			if have == kind {
				return kind.Placeholder(), true
			}
		}
	}
	return "", false
}

// MessageRecord is the persisted form of an accepted event. It is never
// updated after insertion.
type MessageRecord struct {
	ID               int64     `db:"id"`
	MessageID        int64     `db:"message_id"`
	ChatID           int64     `db:"chat_id"`
	ChatType         ChatType  `db:"chat_type"`
	ChatTitle        string    `db:"chat_title"`
	SenderID         *int64    `db:"sender_id"`
	SenderName       string    `db:"sender_name"`
	SenderUsername   string    `db:"sender_username"`
	Text             *string   `db:"text"`
	RawText          *string   `db:"raw_text"`
	Date             time.Time `db:"date"`
	IsReply          bool      `db:"is_reply"`
	ReplyToMessageID *int64    `db:"reply_to_message_id"`
}

// NewMessageRecord extracts the record for an event, applying the defaults
// for missing chat and sender details and the media placeholder rule.
func NewMessageRecord(e *EventView) *MessageRecord {
	record := &MessageRecord{
		MessageID:        e.MessageID,
		ChatID:           e.ChatID,
		ChatType:         ChatTypeUnknown,
		ChatTitle:        DefaultChatTitle,
		SenderID:         e.SenderID(),
		SenderName:       UnknownSender,
		SenderUsername:   UnknownSenderUsername,
		Date:             e.Date,
		IsReply:          e.ReplyToMessageID != nil,
		ReplyToMessageID: e.ReplyToMessageID,
	}

	if e.Chat != nil {
		if e.Chat.Kind != "" {
			record.ChatType = e.Chat.Kind
		}
		if e.Chat.Title != "" {
			record.ChatTitle = e.Chat.Title
		}
	}

	if e.Sender != nil {
		if name := strings.TrimSpace(e.Sender.FirstName + " " + e.Sender.LastName); name != "" {
			record.SenderName = name
		}
		record.SenderUsername = NoUsername
		if e.Sender.Username != "" {
			record.SenderUsername = e.Sender.Username
		}
	}

	if e.Text != "" {
		text := e.Text
		raw := e.RawText
		if raw == "" {
			raw = text
		}
		record.Text = &text
		record.RawText = &raw
	} else if placeholder, ok := e.MediaPlaceholder(); ok {
		text, raw := placeholder, placeholder
		record.Text = &text
		record.RawText = &raw
	}

	return record
}

// DeliveryEntry is one pending forward in the delivery queue
type DeliveryEntry struct {
	Ref MessageRef
}
