package fuzzy

import "strings"

// patternSpecials is the set of characters escaped by EscapePattern.
const patternSpecials = `\?.*+[](){}|^$`

// EscapePattern inserts a backslash before every pattern metacharacter in text
// so the result matches text literally.
func EscapePattern(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(patternSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var displayReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// EscapeDisplay replaces angle brackets with their entity forms and trims
// surrounding whitespace. Used for previews only.
func EscapeDisplay(text string) string {
	return strings.TrimSpace(displayReplacer.Replace(text))
}
