package chat

import "unicode/utf8"

// TruncationMarker ends any reply cut to fit the platform limit.
const TruncationMarker = "\n… [truncated]"

// Truncate cuts text to at most limit characters (runes), ending with
// TruncationMarker when anything was removed. limit <= 0 disables the cut.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	marker := []rune(TruncationMarker)
	keep := limit - len(marker)
	if keep < 0 {
		return string(marker[len(marker)-limit:])
	}
	return string([]rune(text)[:keep]) + TruncationMarker
}
