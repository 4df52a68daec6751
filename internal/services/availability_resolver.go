package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/constants"
	"github.com/poofware/booking-service/internal/models"
)

// AvailabilityRules are the tunables the resolver needs.
type AvailabilityRules struct {
	WindowDays        int
	PostViewingBuffer time.Duration
	// Used as the agent's last working time when neither the weekly
	// template nor the slots say otherwise.
	DefaultDayEnd models.TimeOfDay
	// Same-slot sharing for non-exclusive properties.
	AllowGroupViewings bool
}

type AvailableStartTime struct {
	Date      time.Time        `json:"date"`
	StartTime models.TimeOfDay `json:"start_time"`
	EndTime   models.TimeOfDay `json:"end_time"`
	SlotID    uuid.UUID        `json:"slot_id"`
	// Booking this start joins the waitlist of an exclusive property.
	Waitlisted bool `json:"waitlisted"`
}

// SlotVerdict explains why a slot can or cannot be booked.
type SlotVerdict struct {
	Bookable bool
	// Appointments already on this slot for the same property that the new
	// booking may share or queue behind.
	Holders []*models.Appointment
	Reason  string
}

const (
	reasonOutsideWindow = "outside booking window"
	reasonBooked        = "slot already booked"
	reasonUnavailable   = "agent unavailable at that time"
	reasonBuffer        = "agent resting after a viewing"
	reasonConflict      = "agent has an overlapping appointment"
	reasonNoSlot        = "agent has no slot at that time"
	reasonVacation      = "agent is on vacation"
)

// EvaluateSlot applies the booking rules to one slot of agent.
//
// agentAppts must hold the agent's appointments on the slot's date.
// property may be nil; when given, appointments of the same property on
// the exact slot are treated as holders instead of conflicts if the
// property is exclusive or group viewings are allowed.
func EvaluateSlot(
	agent *models.Agent,
	slot *models.AvailabilitySlot,
	property *models.Property,
	agentAppts []*models.Appointment,
	rules AvailabilityRules,
	today time.Time,
) SlotVerdict {
	last := today.AddDate(0, 0, rules.WindowDays)
	if slot.Date.Before(today) || slot.Date.After(last) {
		return SlotVerdict{Reason: reasonOutsideWindow}
	}

	var holders []*models.Appointment
	if property != nil && (property.IsExclusive || rules.AllowGroupViewings) {
		for _, a := range agentAppts {
			if a.PropertyID == property.ID &&
				a.AgentID == agent.ID &&
				a.Date.Equal(slot.Date) &&
				a.StartTime == slot.StartTime &&
				a.Status.CountsForConflicts() &&
				!a.Status.IsTerminal() {
				holders = append(holders, a)
			}
		}
	}

	if slot.IsBooked && !heldBy(slot, holders) {
		return SlotVerdict{Reason: reasonBooked}
	}

	for i := range agent.UnavailablePeriods {
		if agent.UnavailablePeriods[i].Covers(slot.Date, slot.StartTime) {
			return SlotVerdict{Reason: reasonUnavailable}
		}
	}

	if inBuffer(agent, slot, agentAppts, rules) {
		return SlotVerdict{Reason: reasonBuffer}
	}

	end := slot.EndTime
	c := Candidate{
		AgentID:   agent.ID,
		Date:      slot.Date,
		StartTime: slot.StartTime,
		EndTime:   &end,
		Exclude:   appointmentIDs(holders),
	}
	if HasConflict(agentAppts, c) {
		return SlotVerdict{Reason: reasonConflict}
	}

	return SlotVerdict{Bookable: true, Holders: holders}
}

// StartTimes lists the bookable (date, start) pairs of agent in the window
// beginning at today, ordered by date then start.
func StartTimes(
	agent *models.Agent,
	property *models.Property,
	agentAppts []*models.Appointment,
	rules AvailabilityRules,
	today time.Time,
) []AvailableStartTime {
	if agent.IsOnVacation {
		return []AvailableStartTime{}
	}

	out := []AvailableStartTime{}
	for i := range agent.Availability {
		slot := &agent.Availability[i]
		v := EvaluateSlot(agent, slot, property, agentAppts, rules, today)
		if !v.Bookable {
			continue
		}
		out = append(out, AvailableStartTime{
			Date:       slot.Date,
			StartTime:  slot.StartTime,
			EndTime:    slot.EndTime,
			SlotID:     slot.ID,
			Waitlisted: property != nil && property.IsExclusive && len(v.Holders) > 0,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// inBuffer blocks [end, end+buffer) after every finished viewing on the
// slot's date, capped at the agent's last working time.
func inBuffer(agent *models.Agent, slot *models.AvailabilitySlot, agentAppts []*models.Appointment, rules AvailabilityRules) bool {
	if rules.PostViewingBuffer <= 0 {
		return false
	}
	dayEnd := agent.LastWorkingTime(slot.Date, rules.DefaultDayEnd)
	for _, a := range agentAppts {
		if a.AgentID != agent.ID || !a.Date.Equal(slot.Date) || !a.Status.IsViewingFinished() {
			continue
		}
		end := a.StartTime.Add(constants.DefaultViewingLength)
		if a.EndTime != nil {
			end = *a.EndTime
		}
		until := end.Add(rules.PostViewingBuffer)
		if until > dayEnd {
			until = dayEnd
		}
		if slot.StartTime >= end && slot.StartTime < until {
			return true
		}
	}
	return false
}

func heldBy(slot *models.AvailabilitySlot, holders []*models.Appointment) bool {
	if slot.BookingID == nil {
		return false
	}
	for _, h := range holders {
		if h.ID == *slot.BookingID {
			return true
		}
	}
	return false
}

func appointmentIDs(list []*models.Appointment) []uuid.UUID {
	out := make([]uuid.UUID, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}
