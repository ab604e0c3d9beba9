package models

import "time"

// DayHours is the open/close interval for one weekday, "HH:mm" inclusive of
// open, exclusive of close.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// ScheduleConfig carries the calendar rule tables. It is built from
// configuration and passed to the availability calculator and the booking
// manager at construction time so tests can supply arbitrary calendars.
type ScheduleConfig struct {
	// SubSlotMinutes is the fixed capacity-accounting tick (30 in production).
	SubSlotMinutes int
	// DefaultDurationMinutes is the session length assumed when a booking
	// supplies only a start time.
	DefaultDurationMinutes int
	// StaffCapacity is the concurrency ceiling for staff-initiated bookings.
	StaffCapacity int
	// PortalCapacity is the lower ceiling for self-service portal bookings.
	PortalCapacity int
	// Hours maps weekday to business hours; a missing entry means closed.
	Hours map[time.Weekday]DayHours
}

// HoursFor returns the business hours for a calendar day, or ok=false when
// the day is closed.
func (c ScheduleConfig) HoursFor(day time.Weekday) (DayHours, bool) {
	h, ok := c.Hours[day]
	return h, ok
}

// AvailabilityResult is the outcome of a capacity pre-check.
type AvailabilityResult struct {
	Available       bool   `json:"available"`
	ConflictingSlot string `json:"conflicting_slot,omitempty"`
	OccupiedCount   int    `json:"occupied_count,omitempty"`
}

// SlotInfo is one sub-slot row of a day grid, for calendar rendering.
type SlotInfo struct {
	Time           string   `json:"time"`
	AvailableCount int      `json:"available_count"`
	Occupants      []string `json:"occupants,omitempty"`
}
