package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"listentg/internal/models"
)

const (
	logTimeLayout = "2006-01-02 15:04:05"
	replyHint     = "↪ replied to a message\n"
	unknownID     = "Unknown ID"
)

// FormatMessage renders the human-readable log line for an event in loc.
// It returns false when the event has neither text nor a recognised media kind.
func FormatMessage(event *models.EventView, loc *time.Location) (string, bool) {
	content := strings.TrimSpace(event.Text)
	if content == "" {
		placeholder, ok := event.MediaPlaceholder()
		if !ok {
			return "", false
		}
		content = placeholder
	}

	if loc == nil {
		loc = time.UTC
	}

	username := models.UnknownSenderUsername
	nickname := models.UnknownSender
	senderID := unknownID
	if s := event.Sender; s != nil {
		username = models.NoUsername
		if s.Username != "" {
			username = "@" + s.Username
		}
		if name := strings.TrimSpace(s.FirstName + " " + s.LastName); name != "" {
			nickname = name
		}
		senderID = strconv.FormatInt(s.ID, 10)
	}

	title := models.DefaultChatTitle
	if event.Chat != nil && event.Chat.Title != "" {
		title = event.Chat.Title
	}

	hint := ""
	if event.ReplyToMessageID != nil {
		hint = replyHint
	}

	return fmt.Sprintf("[%s] [%s(%d)][%s-%s(%s)]:\n%s%s",
		event.Date.In(loc).Format(logTimeLayout),
		title, event.ChatID,
		username, nickname, senderID,
		hint, content,
	), true
}
