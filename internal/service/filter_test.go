package service

import (
	"testing"

	"listentg/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Allow(t *testing.T) {
	f := NewFilter(models.FilterConfig{
		ExcludeChatIDs:   []int64{-100555, -100666},
		ExcludeSenderIDs: []int64{42},
	})

	tests := []struct {
		name     string
		chatID   int64
		senderID *int64
		want     bool
		reason   string
	}{
		{"plain message", -100777, int64Ptr(7), true, ""},
		{"excluded chat", -100555, int64Ptr(7), false, "excluded chat"},
		{"excluded sender", -100777, int64Ptr(42), false, "excluded sender"},
		{"no sender", -100777, nil, true, ""},
		{"no sender in excluded chat", -100666, nil, false, "excluded chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Allow(tt.chatID, tt.senderID))
			assert.Equal(t, tt.reason, f.Reason(tt.chatID, tt.senderID))
		})
	}
}

func TestFilter_IsPure(t *testing.T) {
	f := NewFilter(models.FilterConfig{ExcludeChatIDs: []int64{-100555}})

	for i := 0; i < 3; i++ {
		assert.False(t, f.Allow(-100555, int64Ptr(1)))
		assert.True(t, f.Allow(-100777, int64Ptr(1)))
	}
}

func TestFilter_EmptyConfigAllowsEverything(t *testing.T) {
	f := NewFilter(models.FilterConfig{})
	assert.True(t, f.Allow(0, nil))
	assert.True(t, f.Allow(-100555, int64Ptr(42)))
}
