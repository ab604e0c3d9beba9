package scheduling

import (
	"fmt"

	"babyspa/models"
)

// checkSlots is the one overlap rule shared by the booking pre-check and the
// day grid: for every sub-slot the requested window touches, count
// non-cancelled appointments whose [start,end) interval overlaps it. The
// first sub-slot whose occupancy has already reached capacity makes the
// request unavailable. excludeID removes the appointment's own prior
// occupancy when rescheduling.
func checkSlots(appts []models.Appointment, startMin, endMin, subSlot, capacity int, excludeID string) models.AvailabilityResult {
	for _, tick := range SubSlotsCovering(startMin, endMin, subSlot) {
		count := occupancyAt(appts, tick, tick+subSlot, excludeID)
		if count >= capacity {
			return models.AvailabilityResult{
				Available:       false,
				ConflictingSlot: FormatClock(tick),
				OccupiedCount:   count,
			}
		}
	}
	return models.AvailabilityResult{Available: true}
}

func occupancyAt(appts []models.Appointment, tickStart, tickEnd int, excludeID string) int {
	count := 0
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		aStart, err1 := ParseClock(a.StartTime)
		aEnd, err2 := ParseClock(a.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if overlaps(aStart, aEnd, tickStart, tickEnd) {
			count++
		}
	}
	return count
}

// buildDayGrid tiles the business day and reports per-sub-slot free capacity
// with occupant summaries, using the same overlap rule as checkSlots so the
// calendar never shows a slot that booking would reject.
func buildDayGrid(appts []models.Appointment, hours models.DayHours, subSlot, capacity int) ([]models.SlotInfo, error) {
	openMin, err := ParseClock(hours.Open)
	if err != nil {
		return nil, fmt.Errorf("bad business hours open: %w", err)
	}
	closeMin, err := ParseClock(hours.Close)
	if err != nil {
		return nil, fmt.Errorf("bad business hours close: %w", err)
	}

	var grid []models.SlotInfo
	for tick := openMin; tick < closeMin; tick += subSlot {
		var occupants []string
		for _, a := range appts {
			aStart, err1 := ParseClock(a.StartTime)
			aEnd, err2 := ParseClock(a.EndTime)
			if err1 != nil || err2 != nil {
				continue
			}
			if overlaps(aStart, aEnd, tick, tick+subSlot) {
				occupants = append(occupants, fmt.Sprintf("%s:%s", a.Client.Kind, a.Client.ID))
			}
		}
		free := capacity - len(occupants)
		if free < 0 {
			free = 0
		}
		grid = append(grid, models.SlotInfo{
			Time:           FormatClock(tick),
			AvailableCount: free,
			Occupants:      occupants,
		})
	}
	return grid, nil
}
