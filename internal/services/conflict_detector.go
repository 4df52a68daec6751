package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
)

// Candidate is a time range an agent might be booked for.
type Candidate struct {
	AgentID   uuid.UUID
	Date      time.Time
	StartTime models.TimeOfDay
	EndTime   *models.TimeOfDay
	// Appointments ignored by the check, e.g. the one being moved.
	Exclude []uuid.UUID
}

// FindConflict returns the first appointment in existing that blocks c, or
// nil. Cancelled and rejected appointments never block.
//
// When both ranges have an end the check is half-open interval overlap.
// When either end is missing the ranges conflict only on identical start
// times.
func FindConflict(existing []*models.Appointment, c Candidate) *models.Appointment {
	for _, a := range existing {
		if a.AgentID != c.AgentID || !a.Date.Equal(c.Date) {
			continue
		}
		if !a.Status.CountsForConflicts() || excluded(c.Exclude, a.ID) {
			continue
		}
		if overlaps(c.StartTime, c.EndTime, a.StartTime, a.EndTime) {
			return a
		}
	}
	return nil
}

// HasConflict is FindConflict as a predicate.
func HasConflict(existing []*models.Appointment, c Candidate) bool {
	return FindConflict(existing, c) != nil
}

func overlaps(start models.TimeOfDay, end *models.TimeOfDay, otherStart models.TimeOfDay, otherEnd *models.TimeOfDay) bool {
	if end == nil || otherEnd == nil {
		return start == otherStart
	}
	return start < *otherEnd && *end > otherStart
}

func excluded(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
