package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/utils"
)

// SeedFile is the YAML fixture format. Dates are "2006-01-02", times of day
// "15:04" and booking timestamps RFC 3339.
type SeedFile struct {
	Properties   []seedProperty    `yaml:"properties"`
	Customers    []seedUser        `yaml:"customers"`
	Admins       []seedUser        `yaml:"admins"`
	Agents       []seedAgent       `yaml:"agents"`
	Appointments []seedAppointment `yaml:"appointments"`
}

type seedProperty struct {
	ID        string  `yaml:"id"`
	Title     string  `yaml:"title"`
	Address   string  `yaml:"address"`
	City      string  `yaml:"city"`
	State     string  `yaml:"state"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Status    string  `yaml:"status"`
	Exclusive bool    `yaml:"exclusive"`
}

type seedUser struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	Phone       string `yaml:"phone"`
	SMSVerified bool   `yaml:"sms_verified"`
}

type seedRange struct {
	Date   string  `yaml:"date"`
	Start  string  `yaml:"start"`
	End    string  `yaml:"end"`
	Reason *string `yaml:"reason"`
}

type seedWorkingHours struct {
	Weekday string `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

type seedAgent struct {
	seedUser     `yaml:",inline"`
	Latitude     float64            `yaml:"latitude"`
	Longitude    float64            `yaml:"longitude"`
	TimeZone     string             `yaml:"timezone"`
	OnVacation   bool               `yaml:"on_vacation"`
	WorkingHours []seedWorkingHours `yaml:"working_hours"`
	Slots        []seedRange        `yaml:"slots"`
	Unavailable  []seedRange        `yaml:"unavailable"`
}

type seedAppointment struct {
	ID         string `yaml:"id"`
	PropertyID string `yaml:"property_id"`
	CustomerID string `yaml:"customer_id"`
	AgentID    string `yaml:"agent_id"`
	Date       string `yaml:"date"`
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	Status     string `yaml:"status"`
	BookedAt   string `yaml:"booked_at"`
}

// SeedStores are the repositories a seed file writes into.
type SeedStores struct {
	Properties   repositories.PropertyRepository
	Agents       repositories.AgentRepository
	Users        repositories.UserRepository
	Appointments repositories.AppointmentRepository
}

var seedWeekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var seedStatuses = map[models.AppointmentStatusType]bool{
	models.AppointmentStatusQueued:          true,
	models.AppointmentStatusPending:         true,
	models.AppointmentStatusPendingApproval: true,
	models.AppointmentStatusAccepted:        true,
	models.AppointmentStatusRejected:        true,
	models.AppointmentStatusDone:            true,
	models.AppointmentStatusSold:            true,
	models.AppointmentStatusRented:          true,
	models.AppointmentStatusCancelled:       true,
	models.AppointmentStatusScheduled:       true,
	models.AppointmentStatusCompleted:       true,
}

// LoadSeedFile reads path and writes its fixtures into stores. It returns
// the seeded property IDs so purchase rights can be derived afterwards.
func LoadSeedFile(ctx context.Context, path string, stores SeedStores, now time.Time) ([]uuid.UUID, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return ApplySeed(ctx, &seed, stores, now)
}

// ApplySeed validates the whole file before writing anything.
func ApplySeed(ctx context.Context, seed *SeedFile, stores SeedStores, now time.Time) ([]uuid.UUID, error) {
	props, err := buildProperties(seed.Properties, now)
	if err != nil {
		return nil, err
	}
	users, err := buildUsers(seed.Customers, models.RoleCustomer, now)
	if err != nil {
		return nil, err
	}
	admins, err := buildUsers(seed.Admins, models.RoleAdmin, now)
	if err != nil {
		return nil, err
	}
	users = append(users, admins...)
	agents, err := buildAgents(seed.Agents, now)
	if err != nil {
		return nil, err
	}
	appts, err := buildAppointments(seed.Appointments, agents, now)
	if err != nil {
		return nil, err
	}

	propertyIDs := make([]uuid.UUID, 0, len(props))
	for _, p := range props {
		if err := stores.Properties.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("seed property %s: %w", p.ID, err)
		}
		propertyIDs = append(propertyIDs, p.ID)
	}
	for _, u := range users {
		if err := stores.Users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, a := range agents {
		if err := stores.Agents.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("seed agent %s: %w", a.ID, err)
		}
	}
	for _, a := range appts {
		if err := stores.Appointments.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("seed appointment %s: %w", a.ID, err)
		}
	}

	utils.Logger.WithField("properties", len(props)).
		WithField("agents", len(agents)).
		WithField("users", len(users)).
		WithField("appointments", len(appts)).
		Info("Seed data loaded")
	return propertyIDs, nil
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s id %q: %w", kind, raw, err)
	}
	return id, nil
}

func parseRange(r seedRange) (time.Time, models.TimeOfDay, models.TimeOfDay, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return time.Time{}, 0, 0, fmt.Errorf("date %q: %w", r.Date, err)
	}
	start, err := models.ParseTimeOfDay(r.Start)
	if err != nil {
		return time.Time{}, 0, 0, err
	}
	end, err := models.ParseTimeOfDay(r.End)
	if err != nil {
		return time.Time{}, 0, 0, err
	}
	if end <= start {
		return time.Time{}, 0, 0, fmt.Errorf("range %s %s-%s ends before it starts", r.Date, r.Start, r.End)
	}
	return utils.DateOnly(date), start, end, nil
}

func buildProperties(in []seedProperty, now time.Time) ([]*models.Property, error) {
	out := make([]*models.Property, 0, len(in))
	for _, sp := range in {
		id, err := parseID("property", sp.ID)
		if err != nil {
			return nil, err
		}
		status := models.PropertyStatusType(sp.Status)
		switch status {
		case "":
			status = models.PropertyStatusAvailable
		case models.PropertyStatusAvailable, models.PropertyStatusPending,
			models.PropertyStatusSold, models.PropertyStatusRented:
		default:
			return nil, fmt.Errorf("property %s: unknown status %q", sp.ID, sp.Status)
		}
		out = append(out, &models.Property{
			ID:          id,
			Title:       sp.Title,
			Address:     sp.Address,
			City:        sp.City,
			State:       sp.State,
			Latitude:    sp.Latitude,
			Longitude:   sp.Longitude,
			Status:      status,
			IsExclusive: sp.Exclusive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out, nil
}

func buildUsers(in []seedUser, role models.RoleType, now time.Time) ([]*models.User, error) {
	out := make([]*models.User, 0, len(in))
	for _, su := range in {
		id, err := parseID(string(role), su.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.User{
			ID:          id,
			Name:        su.Name,
			Email:       su.Email,
			PhoneNumber: su.Phone,
			Role:        role,
			SMSVerified: su.SMSVerified,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out, nil
}

func buildAgents(in []seedAgent, now time.Time) ([]*models.Agent, error) {
	out := make([]*models.Agent, 0, len(in))
	for _, sa := range in {
		id, err := parseID("agent", sa.ID)
		if err != nil {
			return nil, err
		}
		agent := &models.Agent{
			ID:           id,
			Name:         sa.Name,
			Email:        sa.Email,
			PhoneNumber:  sa.Phone,
			Latitude:     sa.Latitude,
			Longitude:    sa.Longitude,
			TimeZone:     sa.TimeZone,
			IsOnVacation: sa.OnVacation,
			SMSVerified:  sa.SMSVerified,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		for _, wh := range sa.WorkingHours {
			day, ok := seedWeekdays[strings.ToLower(wh.Weekday)]
			if !ok {
				return nil, fmt.Errorf("agent %s: unknown weekday %q", sa.ID, wh.Weekday)
			}
			start, err := models.ParseTimeOfDay(wh.Start)
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", sa.ID, err)
			}
			end, err := models.ParseTimeOfDay(wh.End)
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", sa.ID, err)
			}
			agent.WorkingHours = append(agent.WorkingHours, models.WorkingHours{Weekday: day, StartTime: start, EndTime: end})
		}
		for _, r := range sa.Slots {
			date, start, end, err := parseRange(r)
			if err != nil {
				return nil, fmt.Errorf("agent %s slot: %w", sa.ID, err)
			}
			agent.Availability = append(agent.Availability, models.AvailabilitySlot{
				ID: uuid.New(), Date: date, StartTime: start, EndTime: end,
			})
		}
		for _, r := range sa.Unavailable {
			date, start, end, err := parseRange(r)
			if err != nil {
				return nil, fmt.Errorf("agent %s unavailable period: %w", sa.ID, err)
			}
			agent.UnavailablePeriods = append(agent.UnavailablePeriods, models.UnavailablePeriod{
				ID: uuid.New(), Date: date, StartTime: start, EndTime: end, Reason: r.Reason,
			})
		}
		out = append(out, agent)
	}
	return out, nil
}

// buildAppointments also books the agent slot of every appointment that
// still holds one.
func buildAppointments(in []seedAppointment, agents []*models.Agent, now time.Time) ([]*models.Appointment, error) {
	byID := make(map[uuid.UUID]*models.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}

	out := make([]*models.Appointment, 0, len(in))
	for _, sa := range in {
		id, err := parseID("appointment", sa.ID)
		if err != nil {
			return nil, err
		}
		propertyID, err := parseID("property", sa.PropertyID)
		if err != nil {
			return nil, err
		}
		customerID, err := parseID("customer", sa.CustomerID)
		if err != nil {
			return nil, err
		}
		agentID, err := parseID("agent", sa.AgentID)
		if err != nil {
			return nil, err
		}
		status := models.AppointmentStatusType(sa.Status)
		if !seedStatuses[status] {
			return nil, fmt.Errorf("appointment %s: unknown status %q", sa.ID, sa.Status)
		}
		date, err := time.Parse("2006-01-02", sa.Date)
		if err != nil {
			return nil, fmt.Errorf("appointment %s date: %w", sa.ID, err)
		}
		date = utils.DateOnly(date)
		start, err := models.ParseTimeOfDay(sa.Start)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", sa.ID, err)
		}
		bookedAt := now
		if sa.BookedAt != "" {
			if bookedAt, err = time.Parse(time.RFC3339, sa.BookedAt); err != nil {
				return nil, fmt.Errorf("appointment %s booked_at: %w", sa.ID, err)
			}
		}

		appt := &models.Appointment{
			ID:                      id,
			PropertyID:              propertyID,
			CustomerID:              customerID,
			AgentID:                 agentID,
			Date:                    date,
			StartTime:               start,
			Status:                  status,
			BookingAttemptTimestamp: bookedAt.UTC().Truncate(time.Second),
			CreatedAt:               now,
			UpdatedAt:               now,
		}
		if sa.End != "" {
			end, err := models.ParseTimeOfDay(sa.End)
			if err != nil {
				return nil, fmt.Errorf("appointment %s: %w", sa.ID, err)
			}
			appt.EndTime = &end
		}

		switch status {
		case models.AppointmentStatusPending, models.AppointmentStatusAccepted, models.AppointmentStatusScheduled:
			appt.HasViewingRights = true
			appt.HoldsSlot = true
		}
		if appt.HoldsSlot {
			agent, ok := byID[agentID]
			if !ok {
				return nil, fmt.Errorf("appointment %s: agent %s not in seed file", sa.ID, sa.AgentID)
			}
			if idx := agent.FindSlot(date, start); idx >= 0 {
				if agent.Availability[idx].IsBooked {
					return nil, fmt.Errorf("appointment %s: slot %s %s already booked", sa.ID, sa.Date, sa.Start)
				}
				agent.Availability[idx].IsBooked = true
				agent.Availability[idx].BookingID = &appt.ID
			}
		}
		out = append(out, appt)
	}
	return out, nil
}
