package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for feed query parameters.
const DateLayout = "2006-01-02"

const (
	windowStartOffset = 7 // days before today
	windowEndOffset   = 1

	// MaxWindowDays caps the span of an explicit window.
	MaxWindowDays = 7
)

// Window is a date range passed to the feed as starttime/endtime.
// Both bounds are UTC midnights.
type Window struct {
	Start time.Time
	End   time.Time
}

// TrailingWindow returns the default window relative to now:
// seven days ago through yesterday, on UTC calendar dates.
func TrailingWindow(now time.Time) Window {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Start: today.AddDate(0, 0, -windowStartOffset),
		End:   today.AddDate(0, 0, -windowEndOffset),
	}
}

// CurrentWindow is TrailingWindow evaluated against the package clock.
func CurrentWindow() Window {
	return TrailingWindow(clock.Now())
}

// ParseWindow builds a Window from two YYYY-MM-DD dates.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("parse window start %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("parse window end %q: %w", end, err)
	}
	w := Window{Start: s, End: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate rejects unset windows, windows whose start falls after their end,
// and windows longer than MaxWindowDays.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return errors.New("window bounds must be set")
	}
	if w.Start.After(w.End) {
		return fmt.Errorf("window start %s is after end %s", w.StartDate(), w.EndDate())
	}
	if w.End.Sub(w.Start) > MaxWindowDays*24*time.Hour {
		return fmt.Errorf("window %s spans more than %d days", w, MaxWindowDays)
	}
	return nil
}

// StartDate renders the start bound for the feed query.
func (w Window) StartDate() string { return w.Start.Format(DateLayout) }

// EndDate renders the end bound for the feed query.
func (w Window) EndDate() string { return w.End.Format(DateLayout) }

func (w Window) String() string {
	return w.StartDate() + ".." + w.EndDate()
}
