package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/poofware/booking-service/internal/clock"
	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/utils"
)

// BookingService owns every cross-entity invariant of the engine: slot
// bookings, waitlists, purchase priority and the appointment state machine.
// All mutations run under keyed locks (see lock.AgentKey, lock.PropertyKey)
// and commit through a txn.
type BookingService struct {
	cfg   *config.Config
	clock clock.Clock
	locks *lock.MutexMap

	propRepo  repositories.PropertyRepository
	agentRepo repositories.AgentRepository
	apptRepo  repositories.AppointmentRepository
	auditRepo repositories.AuditLogRepository
	msgRepo   repositories.MessageRepository

	directory UserDirectory
	notifier  Notifier
	cache     AvailabilityCache

	resolveGroup singleflight.Group
}

func NewBookingService(
	cfg *config.Config,
	clk clock.Clock,
	locks *lock.MutexMap,
	propRepo repositories.PropertyRepository,
	agentRepo repositories.AgentRepository,
	apptRepo repositories.AppointmentRepository,
	auditRepo repositories.AuditLogRepository,
	msgRepo repositories.MessageRepository,
	directory UserDirectory,
	notifier Notifier,
	cache AvailabilityCache,
) *BookingService {
	if cache == nil {
		cache = NewNoopAvailabilityCache()
	}
	return &BookingService{
		cfg:       cfg,
		clock:     clk,
		locks:     locks,
		propRepo:  propRepo,
		agentRepo: agentRepo,
		apptRepo:  apptRepo,
		auditRepo: auditRepo,
		msgRepo:   msgRepo,
		directory: directory,
		notifier:  notifier,
		cache:     cache,
	}
}

func (s *BookingService) rules() AvailabilityRules {
	return AvailabilityRules{
		WindowDays:         s.cfg.BookingWindowDays,
		PostViewingBuffer:  s.cfg.PostViewingBuffer(),
		DefaultDayEnd:      models.NewTimeOfDay(s.cfg.WorkdayEndHour, 0),
		AllowGroupViewings: s.cfg.AllowGroupViewings,
	}
}

func (s *BookingService) agentLocation(a *models.Agent) *time.Location {
	if a.TimeZone != "" {
		return utils.LoadLocation(a.TimeZone)
	}
	return utils.LocationForCoordinates(a.Latitude, a.Longitude, s.cfg.DefaultTimeZone)
}

// agentToday is the calendar date it currently is for the agent.
func (s *BookingService) agentToday(a *models.Agent, asOf time.Time) time.Time {
	return utils.DateOnlyInLocation(asOf, s.agentLocation(a))
}

func requireCapability(actor models.Actor, c models.Capability) error {
	if !actor.Can(c) {
		return fmt.Errorf("role %q lacks %q: %w", actor.Role, c, utils.ErrForbidden)
	}
	return nil
}

var errLockSetChanged = errors.New("lock set changed")

const maxLockAttempts = 3

// run executes fn under keys and commits the txn it builds. fn returning an
// error discards the txn untouched.
func (s *BookingService) run(ctx context.Context, keys []string, fn func(t *txn) error) error {
	unlock := s.locks.LockAll(keys...)
	defer unlock()

	t := s.newTxn()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit(ctx)
}

// onAppointment locks the appointment's agent and property plus whatever
// extra returns, re-reads it, and retries if it moved in between.
func (s *BookingService) onAppointment(
	ctx context.Context,
	id uuid.UUID,
	extra func(snap *models.Appointment) []string,
	fn func(t *txn, appt *models.Appointment) error,
) error {
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		snap, err := s.apptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("appointment %s: %w", id, utils.ErrNotFound)
		}

		keys := []string{lock.AgentKey(snap.AgentID), lock.PropertyKey(snap.PropertyID)}
		if extra != nil {
			keys = append(keys, extra(snap)...)
		}

		err = s.run(ctx, keys, func(t *txn) error {
			appt, err := t.appointment(ctx, id)
			if err != nil {
				return err
			}
			if appt.AgentID != snap.AgentID || appt.PropertyID != snap.PropertyID {
				return errLockSetChanged
			}
			return fn(t, appt)
		})
		if errors.Is(err, errLockSetChanged) {
			continue
		}
		return err
	}
	return fmt.Errorf("appointment %s kept moving: %w", id, utils.ErrRowVersionConflict)
}

func (s *BookingService) logFields(actor models.Actor, fields logrus.Fields) *logrus.Entry {
	fields["actor_id"] = actor.ID
	fields["actor_role"] = actor.Role
	return utils.Logger.WithFields(fields)
}
