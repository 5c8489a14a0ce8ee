package privacy

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"listentg/internal/constants"
)

// MaskID masks a numeric chat or user id showing only the last digits.
// The sign of channel ids is kept so they stay recognisable.
// Example: -1001234567890 -> "-*********7890"
func MaskID(id int64) string {
	s := strconv.FormatInt(id, 10)
	if strings.HasPrefix(s, "-") {
		return "-" + maskString(s[1:], constants.DefaultIDMaskLength)
	}
	return maskString(s, constants.DefaultIDMaskLength)
}

// MaskUsername keeps the first character of a username
// Example: "lovelace" -> "l*******"
func MaskUsername(username string) string {
	if username == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(username)
	return string(r) + strings.Repeat("*", utf8.RuneCountInString(username[size:]))
}

// PreviewText shortens message text to at most n runes
func PreviewText(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch k {
		case "chat_id", "sender_id", "user_id", "destination_id":
			masked[k] = maskIDValue(v)
		case "username", "sender_username":
			if s, ok := v.(string); ok {
				masked[k] = MaskUsername(s)
			} else {
				masked[k] = v
			}
		case "text", "preview":
			if s, ok := v.(string); ok {
				masked[k] = PreviewText(s, constants.DefaultPreviewLength)
			} else {
				masked[k] = v
			}
		default:
			masked[k] = v
		}
	}

	return masked
}

func maskIDValue(v interface{}) interface{} {
	switch id := v.(type) {
	case int64:
		return MaskID(id)
	case *int64:
		if id == nil {
			return nil
		}
		return MaskID(*id)
	case int:
		return MaskID(int64(id))
	case string:
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			return MaskID(n)
		}
		return maskString(id, constants.DefaultIDMaskLength)
	default:
		return v
	}
}
