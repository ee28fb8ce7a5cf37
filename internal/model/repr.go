package model

import (
	"fmt"
	"strings"
	"unicode"
)

// quote renders s as a quoted literal: single quotes unless s contains a
// single quote and no double quote, with backslash escapes for the quote
// character, backslashes and non-printable runes. Non-printable runes use
// the shortest of \xNN, \uNNNN and \UNNNNNNNN that fits.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// unicodeQuote is quote with the u prefix used for path columns.
func unicodeQuote(s string) string {
	return "u" + quote(s)
}
