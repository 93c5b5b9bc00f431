package events

import (
	"fmt"
	"time"

	"cxc-checkin/internal/storage"
)

// Window is the nominal time range of an event wrapped in the wider
// buffered range during which attendees may check in.
type Window struct {
	BufferedStart time.Time
	Start         time.Time
	End           time.Time
	BufferedEnd   time.Time
}

func WindowOf(e *storage.Event) Window {
	return Window{
		BufferedStart: e.BufferedStartTime,
		Start:         e.StartTime,
		End:           e.EndTime,
		BufferedEnd:   e.BufferedEndTime,
	}
}

// BufferedWindow surrounds start and end with buffer on both sides.
func BufferedWindow(start, end time.Time, buffer time.Duration) Window {
	return Window{
		BufferedStart: start.Add(-buffer),
		Start:         start,
		End:           end,
		BufferedEnd:   end.Add(buffer),
	}
}

// Validate enforces buffered_start <= start <= end <= buffered_end.
func (w Window) Validate() error {
	switch {
	case w.Start.IsZero() || w.End.IsZero():
		return fmt.Errorf("%w: start and end time are required", ErrInvalidWindow)
	case w.End.Before(w.Start):
		return fmt.Errorf("%w: end time %s is before start time %s", ErrInvalidWindow,
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	case w.Start.Before(w.BufferedStart):
		return fmt.Errorf("%w: buffered start time must not be after start time", ErrInvalidWindow)
	case w.BufferedEnd.Before(w.End):
		return fmt.Errorf("%w: buffered end time must not be before end time", ErrInvalidWindow)
	}
	return nil
}

// Contains reports whether t lies in the buffered window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.BufferedStart) && !t.After(w.BufferedEnd)
}

// IsOpen reports whether check-in is accepted at t.
func (w Window) IsOpen(t time.Time) bool {
	return w.Contains(t)
}

// InProgress reports whether t lies in the nominal window.
func (w Window) InProgress(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
