package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/clock"
	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/utils"
)

// SlotSchedulerService tops up every agent's slots for the booking window
// from their weekly template. It only ever adds slots.
type SlotSchedulerService struct {
	cfg       *config.Config
	clock     clock.Clock
	locks     *lock.MutexMap
	agentRepo repositories.AgentRepository
	cache     AvailabilityCache
}

func NewSlotSchedulerService(
	cfg *config.Config,
	clk clock.Clock,
	locks *lock.MutexMap,
	agentRepo repositories.AgentRepository,
	cache AvailabilityCache,
) *SlotSchedulerService {
	if cache == nil {
		cache = NewNoopAvailabilityCache()
	}
	return &SlotSchedulerService{cfg: cfg, clock: clk, locks: locks, agentRepo: agentRepo, cache: cache}
}

// RunDailySlotGeneration is scheduled right after midnight and on startup.
func (s *SlotSchedulerService) RunDailySlotGeneration(ctx context.Context) error {
	utils.Logger.Debug("Running daily slot generation...")

	agents, err := s.agentRepo.List(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, a := range agents {
		added, err := s.generateForAgent(ctx, a.ID)
		if err != nil {
			utils.Logger.WithError(err).WithField("agent_id", a.ID).Error("Slot generation failed for agent")
			continue
		}
		total += added
	}

	utils.Logger.WithFields(logrus.Fields{"agents": len(agents), "slots_added": total}).Info("Daily slot generation finished")
	return nil
}

func (s *SlotSchedulerService) generateForAgent(ctx context.Context, agentID uuid.UUID) (int, error) {
	unlock := s.locks.LockAll(lock.AgentKey(agentID))
	defer unlock()

	added := 0
	err := s.agentRepo.UpdateWithRetry(ctx, agentID, func(a *models.Agent) error {
		added = 0
		loc := utils.LocationForCoordinates(a.Latitude, a.Longitude, s.cfg.DefaultTimeZone)
		if a.TimeZone != "" {
			loc = utils.LoadLocation(a.TimeZone)
		}
		today := utils.DateOnlyInLocation(s.clock.Now(), loc)

		for d := 0; d <= s.cfg.BookingWindowDays; d++ {
			date := today.AddDate(0, 0, d)
			if s.cfg.SkipHolidays && utils.IsUSFedHoliday(date) {
				continue
			}
			for _, wh := range s.templateFor(a, date.Weekday()) {
				for start := wh.StartTime; start.Add(s.cfg.SlotLength()) <= wh.EndTime; start = start.Add(s.cfg.SlotLength()) {
					end := start.Add(s.cfg.SlotLength())
					if a.OverlappingSlot(date, start, end) >= 0 {
						continue
					}
					a.Availability = append(a.Availability, models.AvailabilitySlot{
						ID:        uuid.New(),
						Date:      date,
						StartTime: start,
						EndTime:   end,
					})
					added++
				}
			}
		}
		if added > 0 {
			a.UpdatedAt = s.clock.Now()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.cache.Invalidate(ctx, agentID)
	}
	return added, nil
}

// templateFor falls back to the configured workday on weekdays when the
// agent has no template of their own.
func (s *SlotSchedulerService) templateFor(a *models.Agent, day time.Weekday) []models.WorkingHours {
	if len(a.WorkingHours) > 0 {
		var out []models.WorkingHours
		for _, wh := range a.WorkingHours {
			if wh.Weekday == day {
				out = append(out, wh)
			}
		}
		return out
	}
	if day == time.Saturday || day == time.Sunday {
		return nil
	}
	return []models.WorkingHours{{
		Weekday:   day,
		StartTime: models.NewTimeOfDay(s.cfg.WorkdayStartHour, 0),
		EndTime:   models.NewTimeOfDay(s.cfg.WorkdayEndHour, 0),
	}}
}
