package utils

import "strings"

// Token estimates used to keep prompts inside a model's context window.
// One token is taken as roughly four characters.
const charsPerToken = 4

// CountTokens estimates the number of tokens in text. Non-empty text is at
// least one token.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len([]rune(text)) / charsPerToken
	if n == 0 {
		return 1
	}
	return n
}

// TruncateToTokenLimit cuts text to about limit tokens, backing up to the
// last line break when one falls in the final quarter of the budget.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * charsPerToken
	if charLimit >= len(runes) {
		return text
	}
	cut := string(runes[:charLimit])
	if i := strings.LastIndexByte(cut, '\n'); i >= 0 && i >= len(cut)*3/4 {
		cut = cut[:i+1]
	}
	return cut
}

// TokenBreakdown estimates tokens per labeled prompt section.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
