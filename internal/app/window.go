package app

import (
	"fmt"
	"time"
)

// SendWindow is the daily local-time interval during which dispatches may be
// transmitted. Hours are in the engine's single fixed time zone.
type SendWindow struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// NewSendWindow validates the window bounds at configuration time.
func NewSendWindow(startHour, endHour int, loc *time.Location) (SendWindow, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return SendWindow{}, fmt.Errorf("invalid sending window %02d:00-%02d:00", startHour, endHour)
	}
	if loc == nil {
		loc = time.Local
	}
	return SendWindow{StartHour: startHour, EndHour: endHour, Location: loc}, nil
}

// Adjust maps an instant to a concrete scheduled_for timestamp: unchanged
// when inside the window, otherwise the next window opening (same day when
// before the start, next day when at or past the end). The result always
// falls within the window.
func (w SendWindow) Adjust(t time.Time) time.Time {
	local := t.In(w.Location)
	switch {
	case local.Hour() < w.StartHour:
		return time.Date(local.Year(), local.Month(), local.Day(), w.StartHour, 0, 0, 0, w.Location)
	case local.Hour() >= w.EndHour:
		next := local.AddDate(0, 0, 1)
		return time.Date(next.Year(), next.Month(), next.Day(), w.StartHour, 0, 0, 0, w.Location)
	default:
		return local
	}
}
