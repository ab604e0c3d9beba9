package scheduling

import (
	"context"
	"encoding/json"
	"fmt"

	appointmentRepo "babyspa/database/repository/appointment"
	"babyspa/models"
	"babyspa/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AvailabilityService is the slot availability calculator. The redis cache
// only serves calendar rendering; the booking commit path always re-reads
// inside its transaction.
type AvailabilityService struct {
	Appointments appointmentRepo.Repository
	Cache        *redis.Client
	Cfg          models.ScheduleConfig
}

// CheckAvailability is the advisory pre-flight check for a requested window.
// endTime may be empty to mean the default session duration.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, date, startTime, endTime string, capacity int, excludeID string) (models.AvailabilityResult, error) {
	startMin, endMin, err := windowBounds(s.Cfg, date, startTime, endTime)
	if err != nil {
		return models.AvailabilityResult{}, err
	}

	appts, err := s.Appointments.ListActiveByDate(ctx, date)
	if err != nil {
		return models.AvailabilityResult{}, fmt.Errorf("availability check: %w", err)
	}
	return checkSlots(appts, startMin, endMin, s.Cfg.SubSlotMinutes, capacity, excludeID), nil
}

// DayGrid returns the full day's sub-slot grid for calendar rendering.
func (s *AvailabilityService) DayGrid(ctx context.Context, date string, capacity int) ([]models.SlotInfo, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, NewError(CodeInvalidTime, "invalid date %q", date)
	}
	hours, open := s.Cfg.HoursFor(day.Weekday())
	if !open {
		return nil, NewError(CodeDateClosed, "no business hours on %s", date)
	}

	cacheKey := fmt.Sprintf("%s%s:%d", utils.DayGridCachePrefix, date, capacity)
	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var grid []models.SlotInfo
			if json.Unmarshal([]byte(raw), &grid) == nil {
				return grid, nil
			}
		}
	}

	appts, err := s.Appointments.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("day grid: %w", err)
	}
	grid, err := buildDayGrid(appts, hours, s.Cfg.SubSlotMinutes, capacity)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(grid); err == nil {
			if err := s.Cache.Set(ctx, cacheKey, raw, utils.DayGridCacheTTL).Err(); err != nil {
				utils.GetLogger().Warn("failed to cache day grid", zap.String("date", date), zap.Error(err))
			}
		}
	}
	return grid, nil
}

// InvalidateDay drops cached grids for a date after any booking mutation.
func (s *AvailabilityService) InvalidateDay(ctx context.Context, date string) {
	if s.Cache == nil {
		return
	}
	iter := s.Cache.Scan(ctx, 0, utils.DayGridCachePrefix+date+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.Cache.Del(ctx, iter.Val()).Err(); err != nil {
			utils.GetLogger().Warn("failed to invalidate day grid", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
}
