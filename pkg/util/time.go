package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeGranularity is the precision at which a parsed time string pins
// down a moment: a bare year parses differently than a full timestamp.
type TimeGranularity int

const (
	GranularityUnknown TimeGranularity = iota
	GranularitySecond
	GranularityMinute
	GranularityHour
	GranularityDay
	GranularityMonth
	GranularityQuarter
	GranularityYear
)

// timeOf parses a single time expression and reports the granularity at
// which it was specified. Supported forms:
//
//	unix seconds: 1609459200
//	date: 20060102, 2006-01-02
//	date+time: 20060102/15:04, 2006-01-02/15:04
//	full: 20060102150405
//	RFC3339: 2006-01-02T15:04:05Z07:00
//	relative: 5h-ago, 3d-ago, 1w-ago, 1m-ago, 1y-ago
//	keywords: now, today, yesterday, this-week, last-week, this-month,
//	  last-month, this-year, last-year, all
//	year: 2006; month: 200601, 2006-01; quarter: 2006Q1..2006Q4
//	year-month-day-hour-minute: 200601021504
func timeOf(str string) (t time.Time, g TimeGranularity, ok bool) {
	if str == "" {
		return time.Time{}, GranularityUnknown, false
	}

	str = strings.TrimSpace(str)

	switch strings.ToLower(str) {
	case "now":
		return time.Now(), GranularitySecond, true
	case "today":
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), GranularityDay, true
	case "yesterday":
		now := time.Now().AddDate(0, 0, -1)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), GranularityDay, true
	case "this-week":
		now := time.Now()
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := now.AddDate(0, 0, -(weekday - 1))
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location()), GranularityDay, true
	case "last-week":
		now := time.Now()
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		lastMonday := now.AddDate(0, 0, -(weekday-1)-7)
		return time.Date(lastMonday.Year(), lastMonday.Month(), lastMonday.Day(), 0, 0, 0, 0, now.Location()), GranularityDay, true
	case "this-month":
		now := time.Now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), GranularityMonth, true
	case "last-month":
		now := time.Now()
		return time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location()), GranularityMonth, true
	case "this-year":
		now := time.Now()
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), GranularityYear, true
	case "last-year":
		now := time.Now()
		return time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, now.Location()), GranularityYear, true
	case "all":
		return time.Time{}, GranularityYear, true
	}

	if strings.HasSuffix(str, "-ago") {
		str = strings.TrimSuffix(str, "-ago")

		if str == "0d" {
			now := time.Now()
			return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), GranularityDay, true
		}

		re := regexp.MustCompile(`^(\d+)([hdwmy])$`)
		matches := re.FindStringSubmatch(str)
		if len(matches) == 3 {
			num, err := strconv.Atoi(matches[1])
			if err != nil || num <= 0 {
				return time.Time{}, GranularityUnknown, false
			}

			now := time.Now()
			var resultTime time.Time
			var granularity TimeGranularity

			switch matches[2] {
			case "h":
				resultTime = now.Add(-time.Duration(num) * time.Hour)
				granularity = GranularityHour
			case "d":
				resultTime = now.AddDate(0, 0, -num)
				granularity = GranularityDay
			case "w":
				resultTime = now.AddDate(0, 0, -num*7)
				granularity = GranularityDay
			case "m":
				resultTime = now.AddDate(0, -num, 0)
				granularity = GranularityMonth
			case "y":
				resultTime = now.AddDate(-num, 0, 0)
				granularity = GranularityYear
			default:
				return time.Time{}, GranularityUnknown, false
			}

			return resultTime, granularity, true
		}

		dur, err := time.ParseDuration(str)
		if err == nil {
			hours := dur.Hours()
			switch {
			case hours < 1:
				return time.Now().Add(-dur), GranularitySecond, true
			case hours < 24:
				return time.Now().Add(-dur), GranularityHour, true
			default:
				return time.Now().Add(-dur), GranularityDay, true
			}
		}

		return time.Time{}, GranularityUnknown, false
	}

	if matched, _ := regexp.MatchString(`^\d{4}Q[1-4]$`, str); matched {
		re := regexp.MustCompile(`^(\d{4})Q([1-4])$`)
		matches := re.FindStringSubmatch(str)
		if len(matches) == 3 {
			year, _ := strconv.Atoi(matches[1])
			quarter, _ := strconv.Atoi(matches[2])
			if year < 1970 || year > 9999 {
				return time.Time{}, GranularityUnknown, false
			}
			startMonth := time.Month((quarter-1)*3 + 1)
			return time.Date(year, startMonth, 1, 0, 0, 0, 0, time.Local), GranularityQuarter, true
		}
	}

	if len(str) == 4 && isDigitsOnly(str) {
		year, err := strconv.Atoi(str)
		if err == nil && year >= 1970 && year <= 9999 {
			return time.Date(year, 1, 1, 0, 0, 0, 0, time.Local), GranularityYear, true
		}
		return time.Time{}, GranularityUnknown, false
	}

	if (len(str) == 6 && isDigitsOnly(str)) || (len(str) == 7 && strings.Count(str, "-") == 1) {
		var year, month int
		var err error

		if len(str) == 6 && isDigitsOnly(str) {
			year, err = strconv.Atoi(str[0:4])
			if err != nil {
				return time.Time{}, GranularityUnknown, false
			}
			month, err = strconv.Atoi(str[4:6])
			if err != nil {
				return time.Time{}, GranularityUnknown, false
			}
		} else {
			parts := strings.Split(str, "-")
			if len(parts) != 2 {
				return time.Time{}, GranularityUnknown, false
			}
			year, err = strconv.Atoi(parts[0])
			if err != nil {
				return time.Time{}, GranularityUnknown, false
			}
			month, err = strconv.Atoi(parts[1])
			if err != nil {
				return time.Time{}, GranularityUnknown, false
			}
		}

		if year < 1970 || year > 9999 || month < 1 || month > 12 {
			return time.Time{}, GranularityUnknown, false
		}

		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local), GranularityMonth, true
	}

	if len(str) == 8 && isDigitsOnly(str) {
		year, _ := strconv.Atoi(str[0:4])
		month, _ := strconv.Atoi(str[4:6])
		day, _ := strconv.Atoi(str[6:8])

		if year < 1970 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 || !isValidDate(year, month, day) {
			return time.Time{}, GranularityUnknown, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), GranularityDay, true
	} else if len(str) == 10 && strings.Count(str, "-") == 2 {
		parts := strings.Split(str, "-")
		if len(parts) != 3 {
			return time.Time{}, GranularityUnknown, false
		}

		year, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		day, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return time.Time{}, GranularityUnknown, false
		}
		if year < 1970 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 || !isValidDate(year, month, day) {
			return time.Time{}, GranularityUnknown, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), GranularityDay, true
	}

	if len(str) == 12 && isDigitsOnly(str) {
		year, _ := strconv.Atoi(str[0:4])
		month, _ := strconv.Atoi(str[4:6])
		day, _ := strconv.Atoi(str[6:8])
		hour, _ := strconv.Atoi(str[8:10])
		minute, _ := strconv.Atoi(str[10:12])

		if year < 1970 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 ||
			hour < 0 || hour > 23 || minute < 0 || minute > 59 || !isValidDate(year, month, day) {
			return time.Time{}, GranularityUnknown, false
		}
		return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), GranularityMinute, true
	}

	if strings.Contains(str, "/") {
		parts := strings.Split(str, "/")
		if len(parts) != 2 {
			return time.Time{}, GranularityUnknown, false
		}

		datePart, timePart := parts[0], parts[1]

		var year, month, day int
		var err1, err2, err3 error

		if len(datePart) == 8 && isDigitsOnly(datePart) {
			year, err1 = strconv.Atoi(datePart[0:4])
			month, err2 = strconv.Atoi(datePart[4:6])
			day, err3 = strconv.Atoi(datePart[6:8])
		} else if len(datePart) == 10 && strings.Count(datePart, "-") == 2 {
			dateParts := strings.Split(datePart, "-")
			if len(dateParts) != 3 {
				return time.Time{}, GranularityUnknown, false
			}
			year, err1 = strconv.Atoi(dateParts[0])
			month, err2 = strconv.Atoi(dateParts[1])
			day, err3 = strconv.Atoi(dateParts[2])
		} else {
			return time.Time{}, GranularityUnknown, false
		}

		if err1 != nil || err2 != nil || err3 != nil {
			return time.Time{}, GranularityUnknown, false
		}
		if year < 1970 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 || !isValidDate(year, month, day) {
			return time.Time{}, GranularityUnknown, false
		}

		if !regexp.MustCompile(`^\d{2}:\d{2}$`).MatchString(timePart) {
			return time.Time{}, GranularityUnknown, false
		}
		timeParts := strings.Split(timePart, ":")
		hour, err1 := strconv.Atoi(timeParts[0])
		minute, err2 := strconv.Atoi(timeParts[1])
		if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return time.Time{}, GranularityUnknown, false
		}

		return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), GranularityMinute, true
	}

	if len(str) == 14 && isDigitsOnly(str) {
		year, _ := strconv.Atoi(str[0:4])
		month, _ := strconv.Atoi(str[4:6])
		day, _ := strconv.Atoi(str[6:8])
		hour, _ := strconv.Atoi(str[8:10])
		minute, _ := strconv.Atoi(str[10:12])
		second, _ := strconv.Atoi(str[12:14])

		if year < 1970 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 ||
			hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 || !isValidDate(year, month, day) {
			return time.Time{}, GranularityUnknown, false
		}
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), GranularitySecond, true
	}

	if isDigitsOnly(str) {
		n, err := strconv.ParseInt(str, 10, 64)
		if err == nil && n >= 1000000000 && n <= 253402300799 {
			return time.Unix(n, 0), GranularitySecond, true
		}
		return time.Time{}, GranularityUnknown, false
	}

	if strings.Contains(str, "T") && (strings.Contains(str, "Z") || strings.Contains(str, "+") || strings.Contains(str, "-")) {
		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04Z07:00", str)
		}
		if err == nil {
			return t, GranularitySecond, true
		}
	}

	return time.Time{}, GranularityUnknown, false
}

// TimeOf parses a single time expression; see timeOf for the supported
// forms. The granularity is dropped for callers that just want a moment.
func TimeOf(str string) (t time.Time, ok bool) {
	t, _, ok = timeOf(str)
	return
}

// TimeRangeOf parses a time range expression: a bare point ("2026-07"), an explicit interval
// ("2026-07-01~2026-07-31"), a relative window ("last-30d"), a named
// period (today, this-month, ...), or "all".
func TimeRangeOf(str string) (start, end time.Time, ok bool) {
	if str == "" {
		return time.Time{}, time.Time{}, false
	}

	str = strings.TrimSpace(str)

	if strings.ToLower(str) == "all" {
		start = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)
		return start, end, true
	}

	if matched, _ := regexp.MatchString(`^last-\d+[dwmy]$`, str); matched {
		re := regexp.MustCompile(`^last-(\d+)([dwmy])$`)
		matches := re.FindStringSubmatch(str)
		if len(matches) == 3 {
			num, err := strconv.Atoi(matches[1])
			if err != nil || num <= 0 {
				return time.Time{}, time.Time{}, false
			}

			now := time.Now()
			end = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())

			switch matches[2] {
			case "d":
				start = now.AddDate(0, 0, -num)
			case "w":
				start = now.AddDate(0, 0, -num*7)
			case "m":
				start = now.AddDate(0, -num, 0)
			case "y":
				start = now.AddDate(-num, 0, 0)
			}
			start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			return start, end, true
		}
	}

	separators := []string{"~", ",", " to "}
	for _, sep := range separators {
		if strings.Contains(str, sep) {
			parts := strings.Split(str, sep)
			if len(parts) == 2 {
				startTime, startGran, startOk := timeOf(strings.TrimSpace(parts[0]))
				endTime, endGran, endOk := timeOf(strings.TrimSpace(parts[1]))

				if startOk && endOk {
					start = adjustStartTime(startTime, startGran)
					end = adjustEndTime(endTime, endGran)
					if start.After(end) {
						start, end = adjustStartTime(endTime, endGran), adjustEndTime(startTime, startGran)
					}
					return start, end, true
				}
			}
		}
	}

	t, g, ok := timeOf(str)
	if ok {
		switch g {
		case GranularitySecond, GranularityMinute, GranularityHour, GranularityDay:
			start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			end = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
		case GranularityMonth:
			start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
			end = time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, 999999999, t.Location())
		case GranularityQuarter:
			quarter := (t.Month()-1)/3 + 1
			startMonth := time.Month((int(quarter)-1)*3 + 1)
			endMonth := startMonth + 2
			start = time.Date(t.Year(), startMonth, 1, 0, 0, 0, 0, t.Location())
			end = time.Date(t.Year(), endMonth+1, 0, 23, 59, 59, 999999999, t.Location())
		case GranularityYear:
			start = time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
			end = time.Date(t.Year(), 12, 31, 23, 59, 59, 999999999, t.Location())
		}
		return start, end, true
	}

	return time.Time{}, time.Time{}, false
}

func adjustStartTime(t time.Time, g TimeGranularity) time.Time {
	switch g {
	case GranularitySecond, GranularityMinute, GranularityHour:
		return t
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case GranularityQuarter:
		quarter := (t.Month()-1)/3 + 1
		startMonth := time.Month((int(quarter)-1)*3 + 1)
		return time.Date(t.Year(), startMonth, 1, 0, 0, 0, 0, t.Location())
	case GranularityYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

func adjustEndTime(t time.Time, g TimeGranularity) time.Time {
	switch g {
	case GranularitySecond, GranularityMinute, GranularityHour:
		return t
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	case GranularityMonth:
		return time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, 999999999, t.Location())
	case GranularityQuarter:
		quarter := (t.Month()-1)/3 + 1
		startMonth := time.Month((int(quarter)-1)*3 + 1)
		endMonth := startMonth + 2
		return time.Date(t.Year(), endMonth+1, 0, 23, 59, 59, 999999999, t.Location())
	case GranularityYear:
		return time.Date(t.Year(), 12, 31, 23, 59, 59, 999999999, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	}
}

func isDigitsOnly(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isValidDate(year, month, day int) bool {
	daysInMonth := 31
	switch month {
	case 4, 6, 9, 11:
		daysInMonth = 30
	case 2:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			daysInMonth = 29
		} else {
			daysInMonth = 28
		}
	}
	return day <= daysInMonth
}

// PerfectTimeFormat picks the least redundant layout for displaying the
// [start, end) span: full date when it crosses a year, month-day when it
// crosses a day within the year, bare time otherwise.
func PerfectTimeFormat(start time.Time, end time.Time) string {
	endTime := end
	if endTime.Hour() == 0 && endTime.Minute() == 0 && endTime.Second() == 0 && endTime.Nanosecond() == 0 {
		endTime = endTime.Add(-time.Second)
	}

	if start.Year() != endTime.Year() {
		return "2006-01-02 15:04:05"
	}
	if start.YearDay() != endTime.YearDay() {
		return "01-02 15:04:05"
	}
	return "15:04:05"
}
