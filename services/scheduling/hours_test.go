package scheduling

import (
	"testing"
	"time"

	"babyspa/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdayCalendar() models.ScheduleConfig {
	return models.ScheduleConfig{
		SubSlotMinutes:         30,
		DefaultDurationMinutes: 60,
		StaffCapacity:          3,
		PortalCapacity:         2,
		Hours: map[time.Weekday]models.DayHours{
			time.Monday:    {Open: "09:00", Close: "17:00"},
			time.Tuesday:   {Open: "09:00", Close: "17:00"},
			time.Wednesday: {Open: "09:00", Close: "17:00"},
			time.Thursday:  {Open: "09:00", Close: "17:00"},
			time.Friday:    {Open: "09:00", Close: "17:00"},
			time.Saturday:  {Open: "09:00", Close: "14:00"},
		},
	}
}

func TestParseClock(t *testing.T) {
	for in, want := range map[string]int{
		"00:00": 0,
		"09:00": 540,
		"10:30": 630,
		"23:59": 1439,
	} {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "nine", "24:00", "10:60", "-1:00"} {
		_, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "09:30", "13:05", "23:59"} {
		min, err := ParseClock(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatClock(min))
	}
}

func TestSubSlotsCovering(t *testing.T) {
	// 10:00-11:00 touches the 10:00 and 10:30 ticks.
	assert.Equal(t, []int{600, 630}, SubSlotsCovering(600, 660, 30))

	// A 10:15 start still counts against the 10:00 tick.
	assert.Equal(t, []int{600, 630}, SubSlotsCovering(615, 660, 30))

	// A window ending exactly on a tick boundary does not touch that tick.
	assert.Equal(t, []int{600}, SubSlotsCovering(600, 630, 30))

	assert.Nil(t, SubSlotsCovering(600, 600, 30))
	assert.Nil(t, SubSlotsCovering(600, 660, 0))
}

func TestOverlapsHalfOpen(t *testing.T) {
	assert.True(t, overlaps(600, 660, 630, 660))
	assert.True(t, overlaps(600, 660, 540, 610))

	// Touching endpoints do not overlap.
	assert.False(t, overlaps(600, 660, 660, 690))
	assert.False(t, overlaps(600, 660, 540, 600))
}

func TestWindowBounds(t *testing.T) {
	cfg := weekdayCalendar()

	t.Run("explicit end", func(t *testing.T) {
		start, end, err := windowBounds(cfg, "2026-09-07", "10:00", "11:30") // a Monday
		require.NoError(t, err)
		assert.Equal(t, 600, start)
		assert.Equal(t, 690, end)
	})

	t.Run("default duration", func(t *testing.T) {
		start, end, err := windowBounds(cfg, "2026-09-07", "10:00", "")
		require.NoError(t, err)
		assert.Equal(t, 600, start)
		assert.Equal(t, 660, end)
	})

	t.Run("closed day", func(t *testing.T) {
		_, _, err := windowBounds(cfg, "2026-09-06", "10:00", "") // a Sunday
		assert.Equal(t, CodeDateClosed, CodeOf(err))
	})

	t.Run("before opening", func(t *testing.T) {
		_, _, err := windowBounds(cfg, "2026-09-07", "08:00", "")
		assert.Equal(t, CodeOutsideBusinessHours, CodeOf(err))
	})

	t.Run("runs past close", func(t *testing.T) {
		_, _, err := windowBounds(cfg, "2026-09-07", "16:30", "")
		assert.Equal(t, CodeOutsideBusinessHours, CodeOf(err))
	})

	t.Run("ends exactly at close", func(t *testing.T) {
		_, end, err := windowBounds(cfg, "2026-09-07", "16:00", "")
		require.NoError(t, err)
		assert.Equal(t, 1020, end)
	})

	t.Run("end not after start", func(t *testing.T) {
		_, _, err := windowBounds(cfg, "2026-09-07", "11:00", "10:00")
		assert.Equal(t, CodeInvalidTime, CodeOf(err))
	})

	t.Run("garbage date", func(t *testing.T) {
		_, _, err := windowBounds(cfg, "07/09/2026", "10:00", "")
		assert.Equal(t, CodeInvalidTime, CodeOf(err))
	})
}
