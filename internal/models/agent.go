package models

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilitySlot struct {
	ID        uuid.UUID  `json:"id"`
	Date      time.Time  `json:"date"`
	StartTime TimeOfDay  `json:"start_time"`
	EndTime   TimeOfDay  `json:"end_time"`
	IsBooked  bool       `json:"is_booked"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
}

// Matches reports whether the slot starts at (date, start).
func (s *AvailabilitySlot) Matches(date time.Time, start TimeOfDay) bool {
	return s.Date.Equal(date) && s.StartTime == start
}

type UnavailablePeriod struct {
	ID        uuid.UUID `json:"id"`
	Date      time.Time `json:"date"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	Reason    *string   `json:"reason,omitempty"`
}

// Covers uses [StartTime, EndTime).
func (p *UnavailablePeriod) Covers(date time.Time, t TimeOfDay) bool {
	return p.Date.Equal(date) && t >= p.StartTime && t < p.EndTime
}

// WorkingHours is one row of an agent's weekly template. Slot generation
// cuts [StartTime, EndTime) into fixed-length slots.
type WorkingHours struct {
	Weekday   time.Weekday `json:"weekday"`
	StartTime TimeOfDay    `json:"start_time"`
	EndTime   TimeOfDay    `json:"end_time"`
}

type Agent struct {
	Versioned

	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	TimeZone     string    `json:"timezone,omitempty"`
	IsOnVacation bool      `json:"is_on_vacation"`
	SMSVerified  bool      `json:"sms_verified"`

	Availability       []AvailabilitySlot  `json:"availability"`
	UnavailablePeriods []UnavailablePeriod `json:"unavailable_periods"`
	WorkingHours       []WorkingHours      `json:"working_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Agent) GetID() string {
	return a.ID.String()
}

// Clone deep-copies the owned slot and period lists.
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Availability = make([]AvailabilitySlot, len(a.Availability))
	for i, s := range a.Availability {
		s.BookingID = clonePtr(s.BookingID)
		cp.Availability[i] = s
	}
	cp.UnavailablePeriods = make([]UnavailablePeriod, len(a.UnavailablePeriods))
	for i, p := range a.UnavailablePeriods {
		p.Reason = clonePtr(p.Reason)
		cp.UnavailablePeriods[i] = p
	}
	cp.WorkingHours = append([]WorkingHours(nil), a.WorkingHours...)
	return &cp
}

// FindSlot returns the index of the slot starting at (date, start), or -1.
func (a *Agent) FindSlot(date time.Time, start TimeOfDay) int {
	for i := range a.Availability {
		if a.Availability[i].Matches(date, start) {
			return i
		}
	}
	return -1
}

// OverlappingSlot returns the index of the first slot on date that shares
// time with [start, end), or -1.
func (a *Agent) OverlappingSlot(date time.Time, start, end TimeOfDay) int {
	for i, s := range a.Availability {
		if s.Date.Equal(date) && start < s.EndTime && end > s.StartTime {
			return i
		}
	}
	return -1
}

// LastWorkingTime is the end of the agent's working day on date: the
// template end for that weekday, else the latest slot end on that date,
// else fallback.
func (a *Agent) LastWorkingTime(date time.Time, fallback TimeOfDay) TimeOfDay {
	for _, wh := range a.WorkingHours {
		if wh.Weekday == date.Weekday() {
			return wh.EndTime
		}
	}
	last := TimeOfDay(-1)
	for _, s := range a.Availability {
		if s.Date.Equal(date) && s.EndTime > last {
			last = s.EndTime
		}
	}
	if last < 0 {
		return fallback
	}
	return last
}
