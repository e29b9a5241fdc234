package validators

import (
	"strings"
	"unicode/utf8"
)

const maxEmailLength = 254

// SanitizeString trims input and cuts it to at most maxLen bytes without
// splitting a multi-byte rune.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	cut := trimmed[:maxLen]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// NormalizeEmail is the lookup form of a customer email: trimmed and lower
// cased. Over-long values come back empty so they never match an order.
func NormalizeEmail(input string) string {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) > maxEmailLength {
		return ""
	}
	return strings.ToLower(trimmed)
}
