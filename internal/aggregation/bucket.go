package aggregation

import (
	"fmt"
	"strings"
	"time"
)

// Unit is the grouping granularity for period buckets.
type Unit string

// Supported grouping units.
const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// ErrInvalidUnit reports an unsupported grouping unit.
var ErrInvalidUnit = fmt.Errorf("aggregation: unit must be one of %s, %s, %s", UnitDay, UnitWeek, UnitMonth)

// ParseUnit validates a unit name case-insensitively.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitDay, UnitWeek, UnitMonth:
		return u, nil
	}
	return "", ErrInvalidUnit
}

// weekRangeSeparator joins the first and last day of a week label.
const weekRangeSeparator = " 〜 "

// PeriodBucket identifies the period a date belongs to.
type PeriodBucket struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	SortKey int64  `json:"sortKey"`
}

// Bucket assigns date to its period. It returns false for unparseable dates
// and unknown units.
func (c Calendar) Bucket(date string, unit Unit) (PeriodBucket, bool) {
	t, ok := c.ParseDate(date)
	if !ok {
		return PeriodBucket{}, false
	}
	switch unit {
	case UnitDay:
		key := t.Format(DateLayout)
		return PeriodBucket{Key: key, Label: key, SortKey: t.UnixMilli()}, true
	case UnitWeek:
		start := c.weekStart(t)
		end := time.Date(start.Year(), start.Month(), start.Day()+6, 0, 0, 0, 0, start.Location())
		key := start.Format(DateLayout)
		return PeriodBucket{
			Key:     key,
			Label:   key + weekRangeSeparator + end.Format(DateLayout),
			SortKey: start.UnixMilli(),
		}, true
	case UnitMonth:
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		key := first.Format("2006-01")
		return PeriodBucket{Key: key, Label: key, SortKey: first.UnixMilli()}, true
	}
	return PeriodBucket{}, false
}

// weekStart returns midnight of the configured week start on or before t.
func (c Calendar) weekStart(t time.Time) time.Time {
	diff := (int(t.Weekday()) - int(c.WeekStart) + 7) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-diff, 0, 0, 0, 0, t.Location())
}

// Bucket applies the default calendar.
func Bucket(date string, unit Unit) (PeriodBucket, bool) {
	return DefaultCalendar().Bucket(date, unit)
}
