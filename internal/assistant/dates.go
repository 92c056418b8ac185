package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\b`)
	inDaysRe    = regexp.MustCompile(`^in\s+(\d+|a|one|two|three|four|five|six|seven)\s+(day|days|week|weeks)\b`)
	weekdayRe   = regexp.MustCompile(`^(?:next\s+|this\s+|on\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)\b`)
	numberWords = map[string]int{
		"a": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
		"eight": 8, "nine": 9, "ten": 10,
	}
	weekdays = map[string]time.Weekday{
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
		"sunday": time.Sunday, "sun": time.Sunday,
	}
)

// calendar returns a week-aware view of t with weeks starting on Monday.
func calendar(t time.Time) *now.Now {
	return (&now.Config{WeekStartDay: time.Monday, TimeLocation: t.Location()}).With(t)
}

func formatDate(t time.Time) string { return t.Format(dateLayout) }

// validDate reports whether s is a YYYY-MM-DD calendar date.
func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// parseDatePhrase turns the start of phrase into a YYYY-MM-DD date relative
// to today. Weekday names mean the next such day after today.
func parseDatePhrase(phrase string, today time.Time) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(phrase))
	p = strings.TrimPrefix(p, "on ")
	p = strings.TrimPrefix(p, "by ")
	day := calendar(today).BeginningOfDay()

	if m := isoDateRe.FindStringSubmatch(p); m != nil {
		return m[1], validDate(m[1])
	}

	switch {
	case strings.HasPrefix(p, "today"), strings.HasPrefix(p, "tonight"), strings.HasPrefix(p, "end of day"), strings.HasPrefix(p, "eod"):
		return formatDate(day), true
	case strings.HasPrefix(p, "day after tomorrow"):
		return formatDate(day.AddDate(0, 0, 2)), true
	case strings.HasPrefix(p, "tomorrow"):
		return formatDate(day.AddDate(0, 0, 1)), true
	case strings.HasPrefix(p, "next week"):
		return formatDate(calendar(day).BeginningOfWeek().AddDate(0, 0, 7)), true
	case strings.HasPrefix(p, "this week"), strings.HasPrefix(p, "end of week"), strings.HasPrefix(p, "end of the week"):
		return formatDate(calendar(day).EndOfWeek()), true
	case strings.HasPrefix(p, "next month"):
		return formatDate(calendar(day).BeginningOfMonth().AddDate(0, 1, 0)), true
	case strings.HasPrefix(p, "end of month"), strings.HasPrefix(p, "end of the month"), strings.HasPrefix(p, "this month"):
		return formatDate(calendar(day).EndOfMonth()), true
	}

	if m := inDaysRe.FindStringSubmatch(p); m != nil {
		n, ok := numberWords[m[1]]
		if !ok {
			n, _ = strconv.Atoi(m[1])
		}
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return formatDate(day.AddDate(0, 0, n)), true
	}

	if m := weekdayRe.FindStringSubmatch(p); m != nil {
		target := weekdays[m[1]]
		delta := (int(target) - int(day.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return formatDate(day.AddDate(0, 0, delta)), true
	}

	return "", false
}

// dayWindow is a half-open [from, to) range of whole days.
type dayWindow struct {
	from time.Time
	to   time.Time
}

// namedWindow resolves today, tomorrow, this week, next week and friends.
func namedWindow(name string, today time.Time) (dayWindow, bool) {
	day := calendar(today).BeginningOfDay()
	week := calendar(day).BeginningOfWeek()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "today":
		return dayWindow{day, day.AddDate(0, 0, 1)}, true
	case "tomorrow":
		return dayWindow{day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)}, true
	case "yesterday":
		return dayWindow{day.AddDate(0, 0, -1), day}, true
	case "this week":
		return dayWindow{week, week.AddDate(0, 0, 7)}, true
	case "next week":
		return dayWindow{week.AddDate(0, 0, 7), week.AddDate(0, 0, 14)}, true
	case "last week":
		return dayWindow{week.AddDate(0, 0, -7), week}, true
	}
	return dayWindow{}, false
}

// filterBounds expresses the window as due/created before/after day filters.
func (w dayWindow) filterBounds() (after, before string) {
	return formatDate(w.from.AddDate(0, 0, -1)), formatDate(w.to)
}

// shiftDate moves a YYYY-MM-DD date by days, returning "" when d is malformed.
func shiftDate(d string, days int) string {
	t, err := time.Parse(dateLayout, d)
	if err != nil {
		return ""
	}
	return formatDate(t.AddDate(0, 0, days))
}
