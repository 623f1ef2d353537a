package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// TrimInput trims whitespace but keeps the original casing, for fields
// where case is user-visible (message content, titles, tags).
func TrimInput(input string) string {
	return strings.TrimSpace(input)
}
