package util

import (
	"strings"
	"unicode"
)

// CleanLine normalises single-line input such as names and phone numbers:
// control characters and invisible format runes are dropped and the result
// is trimmed.
func CleanLine(value string) string {
	return clean(value, false)
}

// CleanText is CleanLine for free text. Newlines and tabs survive so SOAP
// notes keep their layout; CRLF becomes LF.
func CleanText(value string) string {
	return clean(strings.ReplaceAll(value, "\r\n", "\n"), true)
}

func clean(value string, multiline bool) string {
	builder := strings.Builder{}
	builder.Grow(len(value))

	for _, char := range value {
		if multiline && (char == '\n' || char == '\t') {
			builder.WriteRune(char)
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	return strings.TrimSpace(builder.String())
}

func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // zero-width space
		'\u200C', // zero-width non-joiner
		'\u200D', // zero-width joiner
		'\u200E', // left-to-right mark
		'\u200F', // right-to-left mark
		'\u2060', // word joiner
		'\uFEFF', // BOM
		'\uFFF9', '\uFFFA', '\uFFFB':
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
