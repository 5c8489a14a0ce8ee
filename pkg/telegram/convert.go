package telegram

import (
	"time"

	"listentg/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// ToEventView resolves everything the pipeline needs from a Telegram message
func ToEventView(msg *tgbotapi.Message) *models.EventView {
	event := &models.EventView{
		MessageID: int64(msg.MessageID),
		Text:      msg.Text,
		RawText:   msg.Text,
		Media:     mediaKinds(msg),
		Date:      time.Unix(int64(msg.Date), 0).UTC(),
	}
	if event.Text == "" {
		event.Text = msg.Caption
		event.RawText = msg.Caption
	}

	if msg.Chat != nil {
		event.ChatID = msg.Chat.ID
		event.Chat = &models.ChatInfo{
			ID:    msg.Chat.ID,
			Title: msg.Chat.Title,
			Kind:  chatKind(msg.Chat),
		}
	}

	if msg.From != nil {
		event.Sender = &models.SenderInfo{
			ID:        int64(msg.From.ID),
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
			Username:  msg.From.UserName,
		}
	}

	if msg.ReplyToMessage != nil {
		replyTo := int64(msg.ReplyToMessage.MessageID)
		event.ReplyToMessageID = &replyTo
	}

	return event
}

func chatKind(chat *tgbotapi.Chat) models.ChatType {
	switch {
	case chat.IsPrivate():
		return models.ChatTypeUser
	case chat.IsGroup():
		return models.ChatTypeGroup
	case chat.IsSuperGroup(), chat.IsChannel():
		return models.ChatTypeChannel
	default:
		return models.ChatTypeUnknown
	}
}

func mediaKinds(msg *tgbotapi.Message) []models.MediaKind {
	var kinds []models.MediaKind
	if msg.Photo != nil && len(*msg.Photo) > 0 {
		kinds = append(kinds, models.MediaPhoto)
	}
	if msg.Sticker != nil {
		kinds = append(kinds, models.MediaSticker)
	}
	if msg.Video != nil {
		kinds = append(kinds, models.MediaVideo)
	}
	if msg.Document != nil {
		kinds = append(kinds, models.MediaDocument)
	}
	return kinds
}
