package util

import (
	"fmt"
	"time"
)

// StartOfDay returns 00:00:00 of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last nanosecond of t's day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns Monday 00:00 of the week containing t.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	d := StartOfDay(t, loc)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	d := StartOfDay(t, loc)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// ParseDateLocal parses a YYYY-MM-DD value from an HTML date input as the
// start of that day in loc.
func ParseDateLocal(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t, nil
}

// ParseDateRange reads the optional from/to inputs of a filter form. The end
// date is inclusive; to before from is rejected.
func ParseDateRange(from, to string, loc *time.Location) (start, end time.Time, err error) {
	if from != "" {
		if start, err = ParseDateLocal(from, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to != "" {
		var d time.Time
		if d, err = ParseDateLocal(to, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = EndOfDay(d, loc)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must not be before start date")
	}
	return start, end, nil
}

// FormatDateBR renders dd/MM/yyyy.
func FormatDateBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatDateTimeBR renders dd/MM/yyyy HH:mm.
func FormatDateTimeBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}
