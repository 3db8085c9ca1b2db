// Package timeslot formats booking dates and wall-clock times for display.
// Booking times are stored as HH:MM strings and interpreted in the kitchen
// location's timezone, never in server-local time.
package timeslot

import (
	"fmt"
	"time"
)

const dateLayout = "Jan 2, 2006"

// FormatTimeOfDay converts a 24-hour "HH:MM" string to a 12-hour display
// string, e.g. "14:30" -> "2:30 PM". Input outside 00:00-23:59 is rejected.
func FormatTimeOfDay(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return t.Format("3:04 PM"), nil
}

// FormatDateRange renders a storage rental window. Both dates absent means no
// window; equal dates collapse to a single date.
func FormatDateRange(start, end *time.Time) string {
	switch {
	case start == nil && end == nil:
		return ""
	case start == nil:
		return end.Format(dateLayout)
	case end == nil:
		return start.Format(dateLayout)
	case start.Equal(*end):
		return start.Format(dateLayout)
	default:
		return start.Format(dateLayout) + " – " + end.Format(dateLayout)
	}
}

// FormatSlot renders a kitchen slot like
// "Mar 5, 2026, 9:00 AM – 1:00 PM (America/New_York)".
func FormatSlot(date time.Time, startHHMM, endHHMM, timezone string) (string, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return "", fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	start, err := FormatTimeOfDay(startHHMM)
	if err != nil {
		return "", err
	}
	end, err := FormatTimeOfDay(endHHMM)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s, %s – %s (%s)", date.Format(dateLayout), start, end, timezone), nil
}
