package reminders

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)?`)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseClock extracts hour and minute from a free-form time expression.
// Accepts "9:15", "9:15 AM", "14:30"; a meridiem constrains the hour to the
// 12-hour range, otherwise the 24-hour range applies.
func ParseClock(s string) (hour, minute int, ok bool) {
	m := clockPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, 0, false
	}

	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if minute > 59 {
		return 0, 0, false
	}

	switch m[3] {
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}

	return hour, minute, true
}

// ResolveDay turns "today", "tomorrow", or a weekday name into a concrete
// date relative to now. A bare weekday always means the next occurrence,
// never today.
func ResolveDay(expr string, now time.Time) (time.Time, bool) {
	switch expr = strings.ToLower(strings.TrimSpace(expr)); expr {
	case "today":
		return now, true
	case "tomorrow":
		return now.AddDate(0, 0, 1), true
	default:
		target, ok := weekdays[expr]
		if !ok {
			return time.Time{}, false
		}
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead), true
	}
}

// Combine builds a local timestamp from a date's day and a clock time.
func Combine(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
}

// ParseWhen parses a stored ISO 8601 timestamp. Timestamps without an
// offset are treated as UTC.
func ParseWhen(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsPast reports whether a stored timestamp is at or before now.
// Unparseable input is never past.
func IsPast(s string, now time.Time) bool {
	t, ok := ParseWhen(s)
	if !ok {
		return false
	}
	return !t.After(now)
}

// FormatWhen renders a stored timestamp for humans: "Today at 15:04",
// "Tomorrow at 15:04", or a weekday like "Monday at 15:04", all in now's
// location. Unparseable input is returned verbatim.
func FormatWhen(s string, now time.Time) string {
	t, ok := ParseWhen(s)
	if !ok {
		return s
	}

	loc := now.Location()
	local := t.In(loc)
	nowLocal := now.In(loc)
	clock := local.Format("15:04")

	switch {
	case sameDate(local, nowLocal):
		return "Today at " + clock
	case sameDate(local, nowLocal.AddDate(0, 0, 1)):
		return "Tomorrow at " + clock
	default:
		return local.Format("Monday") + " at " + clock
	}
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
