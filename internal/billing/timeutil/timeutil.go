package timeutil

import (
	"sync"
	"time"
)

const DateLayout = "2006-01-02"

var (
	mu       sync.RWMutex
	location = time.UTC
)

// SetLocation sets the business timezone used to decide what "today" is.
// An unknown name falls back to UTC and the error is returned.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	mu.Lock()
	location = loc
	mu.Unlock()
	return nil
}

// Location returns the business timezone.
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return location
}

// Now returns the current time in the business timezone.
func Now() time.Time {
	return time.Now().In(Location())
}

// Today returns the calendar date of t in the business timezone as midnight UTC,
// the representation used for DATE columns.
func Today(t time.Time) time.Time {
	return DateOf(t.In(Location()))
}

// DateOf drops the clock part of t, keeping its calendar date, as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
