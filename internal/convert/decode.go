package convert

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const bom = "\uFEFF"

// permissive drops byte sequences that are not valid UTF-8. runes.Remove
// sees an invalid byte as utf8.RuneError, so the same predicate also drops a
// literal U+FFFD in the input.
var permissive = runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError }))

// DecodeText turns raw file bytes into the text the pipeline works on:
// invalid UTF-8 is dropped, a leading byte order mark is removed and CRLF or
// lone CR line endings become LF.
func DecodeText(data []byte) string {
	out, _, err := transform.Bytes(permissive, data)
	if err != nil {
		// runes.Remove never fails on complete input; keep the raw bytes so
		// the caller still gets the best possible text.
		out = data
	}
	s := strings.TrimPrefix(string(out), bom)
	if strings.IndexByte(s, '\r') < 0 {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// SplitLines splits text after every "\n". Each line keeps its terminator;
// the last line has none when the text does not end in a newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
