package scheduling

import (
	"fmt"
	"time"

	"babyspa/models"
)

// Calendar rule helpers. Dates are timezone-naive "2006-01-02" strings and
// clock times are "HH:mm"; all arithmetic happens in minutes from midnight.

const dateLayout = "2006-01-02"

// ParseClock converts "HH:mm" to minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes from midnight back to "HH:mm".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// ParseDate parses a calendar day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// SubSlotsCovering returns the start minute of every fixed-size sub-slot the
// half-open interval [startMin, endMin) touches. Sub-slots are anchored at
// midnight, so a 10:15 start still counts against the 10:00 tick.
func SubSlotsCovering(startMin, endMin, size int) []int {
	if size <= 0 || endMin <= startMin {
		return nil
	}
	first := (startMin / size) * size
	var slots []int
	for t := first; t < endMin; t += size {
		slots = append(slots, t)
	}
	return slots
}

// overlaps reports whether two half-open minute intervals intersect.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// windowBounds validates a requested booking window against the business
// hours table and returns it in minutes. endTime may be empty, in which case
// the default session duration applies.
func windowBounds(cfg models.ScheduleConfig, date, startTime, endTime string) (startMin, endMin int, err error) {
	day, err := ParseDate(date)
	if err != nil {
		return 0, 0, NewError(CodeInvalidTime, "invalid date %q", date)
	}
	hours, open := cfg.HoursFor(day.Weekday())
	if !open {
		return 0, 0, NewError(CodeDateClosed, "no business hours on %s", date)
	}

	startMin, err = ParseClock(startTime)
	if err != nil {
		return 0, 0, NewError(CodeInvalidTime, "invalid start time %q", startTime)
	}
	if endTime == "" {
		endMin = startMin + cfg.DefaultDurationMinutes
	} else {
		endMin, err = ParseClock(endTime)
		if err != nil {
			return 0, 0, NewError(CodeInvalidTime, "invalid end time %q", endTime)
		}
	}
	if endMin <= startMin {
		return 0, 0, NewError(CodeInvalidTime, "end %s is not after start %s", FormatClock(endMin), startTime)
	}

	openMin, err := ParseClock(hours.Open)
	if err != nil {
		return 0, 0, fmt.Errorf("bad business hours open: %w", err)
	}
	closeMin, err := ParseClock(hours.Close)
	if err != nil {
		return 0, 0, fmt.Errorf("bad business hours close: %w", err)
	}
	if startMin < openMin || endMin > closeMin {
		return 0, 0, NewError(CodeOutsideBusinessHours,
			"%s-%s is outside business hours %s-%s", startTime, FormatClock(endMin), hours.Open, hours.Close)
	}
	return startMin, endMin, nil
}
