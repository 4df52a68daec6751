package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/clock"
	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
)

var (
	day0   = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ten    = models.NewTimeOfDay(10, 0)
	eleven = models.NewTimeOfDay(11, 0)
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Notification
}

func (r *recordingNotifier) Emit(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *recordingNotifier) count(recipient uuid.UUID, typ models.NotificationType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.RecipientID == recipient && e.Type == typ {
			n++
		}
	}
	return n
}

func (r *recordingNotifier) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	cfg   *config.Config
	clock *clock.Fixed
	locks *lock.MutexMap

	props  repositories.PropertyRepository
	agents repositories.AgentRepository
	appts  repositories.AppointmentRepository
	users  repositories.UserRepository
	audit  repositories.AuditLogRepository

	notes *recordingNotifier
	svc   *BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		cfg:    config.Default(),
		clock:  clock.NewFixed(day0.Add(8 * time.Hour)),
		locks:  lock.NewMutexMap(),
		props:  repositories.NewPropertyRepository(),
		agents: repositories.NewAgentRepository(),
		appts:  repositories.NewAppointmentRepository(),
		users:  repositories.NewUserRepository(),
		audit:  repositories.NewMemoryAuditLogRepository(),
		notes:  &recordingNotifier{},
	}
	f.rebuild()
	return f
}

// rebuild re-wires the service after a test swaps a dependency.
func (f *fixture) rebuild() {
	f.svc = NewBookingService(
		f.cfg, f.clock, f.locks,
		f.props, f.agents, f.appts, f.audit,
		repositories.NewMessageRepository(),
		NewUserDirectory(f.users, f.agents),
		f.notes,
		nil,
	)
}

func (f *fixture) addProperty(exclusive bool) *models.Property {
	p := &models.Property{
		ID:          uuid.New(),
		Title:       "Listing",
		Status:      models.PropertyStatusAvailable,
		IsExclusive: exclusive,
		Latitude:    41.88,
		Longitude:   -87.63,
	}
	require.NoError(f.t, f.props.Create(f.ctx, p))
	return p
}

// addAgent creates an agent with one-hour slots from 09:00 to 17:00 on
// each of the given days after day0.
func (f *fixture) addAgent(lat, lng float64, days ...int) *models.Agent {
	a := &models.Agent{
		ID:        uuid.New(),
		Name:      "Agent",
		TimeZone:  "UTC",
		Latitude:  lat,
		Longitude: lng,
	}
	for _, d := range days {
		for h := 9; h < 17; h++ {
			a.Availability = append(a.Availability, models.AvailabilitySlot{
				ID:        uuid.New(),
				Date:      day0.AddDate(0, 0, d),
				StartTime: models.NewTimeOfDay(h, 0),
				EndTime:   models.NewTimeOfDay(h+1, 0),
			})
		}
	}
	require.NoError(f.t, f.agents.Create(f.ctx, a))
	return a
}

func (f *fixture) addCustomer() *models.User {
	u := &models.User{ID: uuid.New(), Name: "Customer", Role: models.RoleCustomer}
	require.NoError(f.t, f.users.Create(f.ctx, u))
	return u
}

func customer(u *models.User) models.Actor { return models.Actor{ID: u.ID, Role: models.RoleCustomer} }
func agentActor(a *models.Agent) models.Actor {
	return models.Actor{ID: a.ID, Role: models.RoleAgent}
}

var admin = models.Actor{ID: uuid.New(), Role: models.RoleAdmin}

func (f *fixture) book(u *models.User, p *models.Property, a *models.Agent, date time.Time, start models.TimeOfDay) (*models.Appointment, error) {
	f.clock.Advance(time.Second)
	return f.svc.CreateBooking(f.ctx, customer(u), BookingRequest{
		PropertyID: p.ID,
		AgentID:    a.ID,
		CustomerID: u.ID,
		Date:       date,
		StartTime:  start,
	})
}

func (f *fixture) mustBook(u *models.User, p *models.Property, a *models.Agent, date time.Time, start models.TimeOfDay) *models.Appointment {
	f.t.Helper()
	appt, err := f.book(u, p, a, date, start)
	require.NoError(f.t, err)
	return appt
}

func (f *fixture) reload(id uuid.UUID) *models.Appointment {
	f.t.Helper()
	a, err := f.appts.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, a)
	return a
}

func (f *fixture) agent(id uuid.UUID) *models.Agent {
	f.t.Helper()
	a, err := f.agents.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return a
}

func (f *fixture) slot(agentID uuid.UUID, date time.Time, start models.TimeOfDay) models.AvailabilitySlot {
	f.t.Helper()
	a := f.agent(agentID)
	idx := a.FindSlot(date, start)
	require.GreaterOrEqual(f.t, idx, 0)
	return a.Availability[idx]
}
