package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/clock"
	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/utils"
)

// AgentService is agent self-service over the slots and unavailable
// periods an agent owns. It shares the booking engine's lock map.
type AgentService struct {
	clock     clock.Clock
	locks     *lock.MutexMap
	agentRepo repositories.AgentRepository
	cache     AvailabilityCache
}

func NewAgentService(clk clock.Clock, locks *lock.MutexMap, agentRepo repositories.AgentRepository, cache AvailabilityCache) *AgentService {
	if cache == nil {
		cache = NewNoopAvailabilityCache()
	}
	return &AgentService{clock: clk, locks: locks, agentRepo: agentRepo, cache: cache}
}

func authorizeAgentSelf(actor models.Actor, agentID uuid.UUID) error {
	if err := requireCapability(actor, models.CapManageAgent); err != nil {
		return err
	}
	if actor.Role == models.RoleAgent && actor.ID != agentID {
		return fmt.Errorf("agents manage only their own calendar: %w", utils.ErrForbidden)
	}
	return nil
}

func validRange(start, end models.TimeOfDay) error {
	if start < 0 || end > models.MinutesPerDay || start >= end {
		return fmt.Errorf("range %s-%s: %w", start, end, utils.ErrInvalidPayload)
	}
	return nil
}

// update runs mutate on the agent under its lock.
func (s *AgentService) update(ctx context.Context, agentID uuid.UUID, mutate func(*models.Agent) error) (*models.Agent, error) {
	unlock := s.locks.LockAll(lock.AgentKey(agentID))
	defer unlock()

	var out *models.Agent
	err := s.agentRepo.UpdateWithRetry(ctx, agentID, func(a *models.Agent) error {
		if err := mutate(a); err != nil {
			return err
		}
		a.UpdatedAt = s.clock.Now()
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, agentID)
	return out, nil
}

// AddSlot opens a new bookable slot. Slots on the same date may not overlap.
func (s *AgentService) AddSlot(
	ctx context.Context,
	actor models.Actor,
	agentID uuid.UUID,
	date time.Time,
	start, end models.TimeOfDay,
) (*models.AvailabilitySlot, error) {
	if err := authorizeAgentSelf(actor, agentID); err != nil {
		return nil, err
	}
	if err := validRange(start, end); err != nil {
		return nil, err
	}
	date = utils.DateOnly(date)

	slot := models.AvailabilitySlot{ID: uuid.New(), Date: date, StartTime: start, EndTime: end}
	_, err := s.update(ctx, agentID, func(a *models.Agent) error {
		if i := a.OverlappingSlot(date, start, end); i >= 0 {
			existing := a.Availability[i]
			return fmt.Errorf("overlaps slot %s-%s: %w", existing.StartTime, existing.EndTime, utils.ErrInvalidPayload)
		}
		a.Availability = append(a.Availability, slot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *AgentService) AddUnavailablePeriod(
	ctx context.Context,
	actor models.Actor,
	agentID uuid.UUID,
	date time.Time,
	start, end models.TimeOfDay,
	reason *string,
) (*models.UnavailablePeriod, error) {
	if err := authorizeAgentSelf(actor, agentID); err != nil {
		return nil, err
	}
	if err := validRange(start, end); err != nil {
		return nil, err
	}

	period := models.UnavailablePeriod{ID: uuid.New(), Date: utils.DateOnly(date), StartTime: start, EndTime: end, Reason: reason}
	if _, err := s.update(ctx, agentID, func(a *models.Agent) error {
		a.UnavailablePeriods = append(a.UnavailablePeriods, period)
		return nil
	}); err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{"agent_id": agentID, "period_id": period.ID}).Info("Unavailable period added")
	return &period, nil
}

func (s *AgentService) RemoveUnavailablePeriod(ctx context.Context, actor models.Actor, agentID, periodID uuid.UUID) error {
	if err := authorizeAgentSelf(actor, agentID); err != nil {
		return err
	}
	_, err := s.update(ctx, agentID, func(a *models.Agent) error {
		for i, p := range a.UnavailablePeriods {
			if p.ID == periodID {
				a.UnavailablePeriods = append(a.UnavailablePeriods[:i], a.UnavailablePeriods[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("unavailable period %s: %w", periodID, utils.ErrNotFound)
	})
	return err
}

// SetVacation toggles the vacation flag. Existing appointments stay as they
// are; the agent just stops being offered.
func (s *AgentService) SetVacation(ctx context.Context, actor models.Actor, agentID uuid.UUID, onVacation bool) (*models.Agent, error) {
	if err := authorizeAgentSelf(actor, agentID); err != nil {
		return nil, err
	}
	return s.update(ctx, agentID, func(a *models.Agent) error {
		a.IsOnVacation = onVacation
		return nil
	})
}
