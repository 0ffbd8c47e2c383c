package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsNormalString reports whether b is valid, printable UTF-8 text. Used
// by the archive sniffer to tell a log/text file from a binary blob
// before it is indexed into the FTS table.
func IsNormalString(b []byte) bool {
	str := string(b)
	if !utf8.ValidString(str) {
		return false
	}
	for _, r := range str {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func IsNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// Str2List splits str on sep, trims whitespace, drops empties, and
// de-duplicates while preserving first-seen order.
func Str2List(str string, sep string) []string {
	list := make([]string, 0)
	if str == "" {
		return list
	}

	seen := make(map[string]bool)
	for _, elem := range strings.Split(str, sep) {
		elem = strings.TrimSpace(elem)
		if len(elem) == 0 {
			continue
		}
		if seen[elem] {
			continue
		}
		seen[elem] = true
		list = append(list, elem)
	}
	return list
}
