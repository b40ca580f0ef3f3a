// Package aggregate buckets dated measure rows by day, week, month or year,
// computes goal variance per bucket, and selects trend and current views.
//
// One engine serves every data domain: a MeasureSet describes which columns
// of a row type form the actual/goal pair of each measure family.
package aggregate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownGranularity = errors.New("unknown aggregation granularity")
	ErrUnknownFamily      = errors.New("unknown measure family")
)

// Granularity is the bucket width.
type Granularity int

const (
	Day Granularity = iota + 1
	Week
	Month
	Year
)

// ParseGranularity accepts the query names date, week_start, month and year
// (plus day and week as aliases).
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date", "day":
		return Day, nil
	case "week_start", "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

func (g Granularity) String() string {
	switch g {
	case Day:
		return "date"
	case Week:
		return "week_start"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return "unknown"
	}
}

// Key returns the start of the bucket containing t: the date itself, the
// Monday on or before it, the first of its month, or January 1 of its year.
// Only the calendar date of t is considered.
func (g Granularity) Key(t time.Time) time.Time {
	y, m, d := t.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch g {
	case Week:
		offset := (int(date.Weekday()) + 6) % 7
		return date.AddDate(0, 0, -offset)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return date
	}
}

// Family is a tracked metric with an actual and a goal column.
type Family int

const (
	Move Family = iota + 1
	Exercise
	Stand
)

// Families lists every family in declaration order.
var Families = []Family{Move, Exercise, Stand}

// ParseFamily accepts move (or energy), exercise and stand.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move", "energy":
		return Move, nil
	case "exercise":
		return Exercise, nil
	case "stand":
		return Stand, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

func (f Family) String() string {
	switch f {
	case Move:
		return "move"
	case Exercise:
		return "exercise"
	case Stand:
		return "stand"
	default:
		return "unknown"
	}
}
