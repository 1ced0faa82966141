// Package aggregation groups transactional rows into USD totals per period and
// per partner.
package aggregation

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date form used on every row.
const DateLayout = "2006-01-02"

// DefaultWeekStart is the first day of a reporting week.
const DefaultWeekStart = time.Monday

// Calendar parses calendar dates and assigns them to periods in a fixed location.
type Calendar struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// DefaultCalendar uses local time and Monday-based weeks.
func DefaultCalendar() Calendar {
	return Calendar{Location: time.Local, WeekStart: DefaultWeekStart}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// ParseDate splits s on "-" and builds midnight of the resulting day. Any
// missing, non-numeric or zero component makes the date invalid.
func (c Calendar) ParseDate(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	year, ok := dateComponent(parts[0])
	if !ok {
		return time.Time{}, false
	}
	month, ok := dateComponent(parts[1])
	if !ok {
		return time.Time{}, false
	}
	day, ok := dateComponent(parts[2])
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, c.location()), true
}

func dateComponent(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// IsWithinRange reports whether target falls inside [start, end]. Empty bounds
// are open; an unparseable target is never in range.
func (c Calendar) IsWithinRange(target, start, end string) bool {
	t, ok := c.ParseDate(target)
	if !ok {
		return false
	}
	if start != "" {
		if s, ok := c.ParseDate(start); ok && t.Before(s) {
			return false
		}
	}
	if end != "" {
		if e, ok := c.ParseDate(end); ok && t.After(e) {
			return false
		}
	}
	return true
}

// IsWithinRange applies the default calendar.
func IsWithinRange(target, start, end string) bool {
	return DefaultCalendar().IsWithinRange(target, start, end)
}
