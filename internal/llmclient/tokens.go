package llmclient

import "strings"

// CountTokens provides a rough token count for text by counting
// whitespace-delimited words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
