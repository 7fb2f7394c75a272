package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// ErrInvalidRange is returned when a date range is inverted or leaves the
// span of the loaded data.
var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive interval of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to calendar dates.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// ParseDateRange parses two date strings into a range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end: %w", err)
	}
	return DateRange{Start: s, End: e}, nil
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// Contains reports whether t falls on a date inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days covered by the range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Validate checks start <= end and that both bounds lie inside span.
func (r DateRange) Validate(span DateRange) error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: start %s after end %s", ErrInvalidRange, r.Start.Format(dateFormat), r.End.Format(dateFormat))
	}
	if !span.Contains(r.Start) || !span.Contains(r.End) {
		return fmt.Errorf("%w: %s outside available data %s", ErrInvalidRange, r, span)
	}
	return nil
}

func (r DateRange) String() string {
	return r.Start.Format(dateFormat) + ".." + r.End.Format(dateFormat)
}

// MarshalJSON encodes the bounds as plain dates.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{r.Start.Format(dateFormat), r.End.Format(dateFormat)})
}

// Span returns the first and last date present in days. ok is false for an
// empty slice.
func Span(days []DayRecord) (span DateRange, ok bool) {
	if len(days) == 0 {
		return DateRange{}, false
	}
	span = DateRange{Start: days[0].Date, End: days[0].Date}
	for _, d := range days[1:] {
		if d.Date.Before(span.Start) {
			span.Start = d.Date
		}
		if d.Date.After(span.End) {
			span.End = d.Date
		}
	}
	return span, true
}

// FilterDays returns the daily rows whose date lies in r.
func FilterDays(days []DayRecord, r DateRange) []DayRecord {
	return lo.Filter(days, func(d DayRecord, _ int) bool { return r.Contains(d.Date) })
}

// FilterHours returns the hourly rows whose date lies in r.
func FilterHours(hours []HourRecord, r DateRange) []HourRecord {
	return lo.Filter(hours, func(h HourRecord, _ int) bool { return r.Contains(h.Date) })
}

// ResolveRange parses optional start and end dates, defaulting each missing
// bound to span, and validates the result against span. Every failure wraps
// ErrInvalidRange.
func ResolveRange(start, end string, span DateRange) (DateRange, error) {
	r := span
	if start != "" {
		s, err := ParseDate(start)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
		}
		r.Start = s
	}
	if end != "" {
		e, err := ParseDate(end)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
		}
		r.End = e
	}
	if err := r.Validate(span); err != nil {
		return DateRange{}, err
	}
	return r, nil
}
