package service

import "listentg/internal/models"

// Filter decides whether an event is kept. It holds the exclusion sets
// loaded at startup and never changes afterwards.
type Filter struct {
	excludedChats   map[int64]struct{}
	excludedSenders map[int64]struct{}
}

// NewFilter builds a filter from the configured exclusion lists
func NewFilter(cfg models.FilterConfig) *Filter {
	f := &Filter{
		excludedChats:   make(map[int64]struct{}, len(cfg.ExcludeChatIDs)),
		excludedSenders: make(map[int64]struct{}, len(cfg.ExcludeSenderIDs)),
	}
	for _, id := range cfg.ExcludeChatIDs {
		f.excludedChats[id] = struct{}{}
	}
	for _, id := range cfg.ExcludeSenderIDs {
		f.excludedSenders[id] = struct{}{}
	}
	return f
}

// Allow reports whether an event from chatID and senderID should be kept.
// senderID is nil when the event has no sender.
func (f *Filter) Allow(chatID int64, senderID *int64) bool {
	if _, excluded := f.excludedChats[chatID]; excluded {
		return false
	}
	if senderID != nil {
		if _, excluded := f.excludedSenders[*senderID]; excluded {
			return false
		}
	}
	return true
}

// Reason explains why an event was rejected, or "" when it is allowed
func (f *Filter) Reason(chatID int64, senderID *int64) string {
	if _, excluded := f.excludedChats[chatID]; excluded {
		return "excluded chat"
	}
	if senderID != nil {
		if _, excluded := f.excludedSenders[*senderID]; excluded {
			return "excluded sender"
		}
	}
	return ""
}
