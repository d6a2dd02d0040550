// Package timeutil converts between UTC instants and a fixed display timezone.
// All timestamps exchanged with the scheduling API are UTC ISO-8601; all
// timestamps shown to the user are in the configured display zone.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Converter projects UTC instants into a fixed local civil timezone and back.
type Converter struct {
	loc *time.Location
}

// NewConverter creates a converter for the named IANA timezone
func NewConverter(name string) (*Converter, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return &Converter{loc: loc}, nil
}

// Location returns the display timezone
func (c *Converter) Location() *time.Location {
	return c.loc
}

// ConversionError indicates a date/time string that could not be interpreted
type ConversionError struct {
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not interpret %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("could not interpret %q", e.Input)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ToLocal parses an ISO-8601 UTC timestamp and projects it into the display
// timezone. Accepts explicit offsets, a trailing "Z", or no suffix at all;
// naive input is treated as UTC.
func (c *Converter) ToLocal(utcISO string) (time.Time, error) {
	s := strings.TrimSpace(utcISO)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(c.loc), nil
	}

	// No timezone suffix: treat as UTC
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.In(c.loc), nil
	}
	if t, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return t.In(c.loc), nil
	}

	return time.Time{}, &ConversionError{Input: utcISO, Err: fmt.Errorf("not an ISO-8601 timestamp")}
}

// ToUTC composes a civil date (YYYY-MM-DD) and time-of-day (HH:MM, 24-hour)
// in the display timezone and serializes the corresponding UTC instant as
// YYYY-MM-DDTHH:MM:SSZ. Local times that do not exist because of a DST
// transition fail with a ConversionError instead of silently shifting.
func (c *Converter) ToUTC(date, clock string) (string, error) {
	input := date + " " + clock
	t, err := time.ParseInLocation("2006-01-02 15:04", input, c.loc)
	if err != nil {
		return "", &ConversionError{Input: input, Err: err}
	}

	// ParseInLocation normalizes nonexistent local times (spring-forward gap)
	// to a different wall clock. Detect the shift and reject.
	if t.Format("2006-01-02 15:04") != input {
		return "", &ConversionError{Input: input, Err: fmt.Errorf("local time does not exist (daylight saving transition)")}
	}

	return t.UTC().Format("2006-01-02T15:04:05Z"), nil
}

// FormatLong renders a local instant as "January 2, 2006 at 3:04 PM"
func FormatLong(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM")
}

// FormatClock12 renders the time-of-day as zero-padded "03:04 PM"
func FormatClock12(t time.Time) string {
	return t.Format("03:04 PM")
}

// FormatHourMeridiem renders a compact lowercase hour plus meridiem, e.g. "3pm"
func FormatHourMeridiem(t time.Time) string {
	return strings.ToLower(t.Format("3PM"))
}

// FormatDate renders the local calendar date as "2006-01-02"
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatMonthDay renders a local instant as "January 2 at 3:04 PM"
func FormatMonthDay(t time.Time) string {
	return t.Format("January 2 at 3:04 PM")
}
