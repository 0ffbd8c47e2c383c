package extract

import (
	"regexp"
	"time"
)

// levelTokenRE matches the first recognized severity token on a line,
// the same vocabulary query_by_level filters against.
var levelTokenRE = regexp.MustCompile(`\b(FATAL|ERROR|WARN|INFO|DEBUG)\b`)

// timestampPrefixRE captures an RFC3339-like prefix, with or without a
// 'T' separator, optionally bracketed, as commonly emitted by structured
// loggers (e.g. "[2026-07-30T15:04:05Z] ..." or "2026-07-30 15:04:05 ...").
var timestampPrefixRE = regexp.MustCompile(`^\s*\[?(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\]?`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// inferFromLines scans a file's lines with a heuristic: the
// first line carrying a severity token sets level, the first line
// carrying an RFC3339-like prefix sets timestamp. Both are independent,
// first-match-wins, and stop scanning once both are found.
func inferFromLines(lines []string) (level string, timestamp *time.Time) {
	for _, line := range lines {
		if level == "" {
			if m := levelTokenRE.FindString(line); m != "" {
				level = m
			}
		}
		if timestamp == nil {
			if t, ok := parseLeadingTimestamp(line); ok {
				timestamp = &t
			}
		}
		if level != "" && timestamp != nil {
			break
		}
	}
	return level, timestamp
}

func parseLeadingTimestamp(line string) (time.Time, bool) {
	m := timestampPrefixRE.FindStringSubmatch(line)
	if len(m) != 2 {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
