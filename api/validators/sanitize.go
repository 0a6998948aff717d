package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates the result
// to maxLen bytes. A maxLen of zero or less means no length cap.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(input)
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	return cleaned[:maxLen]
}
