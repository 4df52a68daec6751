package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

func testRules() AvailabilityRules {
	return AvailabilityRules{
		WindowDays:        14,
		PostViewingBuffer: time.Hour,
		DefaultDayEnd:     models.NewTimeOfDay(18, 0),
	}
}

func agentWithSlots(hours ...int) *models.Agent {
	a := &models.Agent{ID: uuid.New()}
	for _, h := range hours {
		a.Availability = append(a.Availability, models.AvailabilitySlot{
			ID:        uuid.New(),
			Date:      day0,
			StartTime: models.NewTimeOfDay(h, 0),
			EndTime:   models.NewTimeOfDay(h+1, 0),
		})
	}
	return a
}

func starts(list []AvailableStartTime) []models.TimeOfDay {
	out := make([]models.TimeOfDay, len(list))
	for i, s := range list {
		out[i] = s.StartTime
	}
	return out
}

func TestStartTimes_BufferCappedAtLastWorkingTime(t *testing.T) {
	a := agentWithSlots(9, 10, 11, 12, 16)
	done := &models.Appointment{
		ID:        uuid.New(),
		AgentID:   a.ID,
		Date:      day0,
		StartTime: models.NewTimeOfDay(9, 0),
		Status:    models.AppointmentStatusCompleted,
	}
	a.Availability[0].IsBooked = true
	a.Availability[0].BookingID = &done.ID

	// no end recorded: the viewing is taken to last one hour, so the buffer
	// covers [10:00, 11:00)
	got := StartTimes(a, nil, []*models.Appointment{done}, testRules(), day0)
	assert.Equal(t, []models.TimeOfDay{models.NewTimeOfDay(11, 0), models.NewTimeOfDay(12, 0), models.NewTimeOfDay(16, 0)}, starts(got))

	rules := testRules()
	rules.PostViewingBuffer = 8 * time.Hour
	got = StartTimes(a, nil, []*models.Appointment{done}, rules, day0)
	// last working time is the 17:00 end of the final slot
	assert.Empty(t, got)
}

func TestStartTimes_OrderedAndWindowed(t *testing.T) {
	a := agentWithSlots(14, 9)
	a.Availability = append(a.Availability,
		models.AvailabilitySlot{ID: uuid.New(), Date: day0.AddDate(0, 0, 3), StartTime: models.NewTimeOfDay(8, 0), EndTime: models.NewTimeOfDay(9, 0)},
		models.AvailabilitySlot{ID: uuid.New(), Date: day0.AddDate(0, 0, 30), StartTime: models.NewTimeOfDay(8, 0), EndTime: models.NewTimeOfDay(9, 0)},
	)

	got := StartTimes(a, nil, nil, testRules(), day0)
	require.Len(t, got, 3)
	assert.Equal(t, models.NewTimeOfDay(9, 0), got[0].StartTime)
	assert.Equal(t, models.NewTimeOfDay(14, 0), got[1].StartTime)
	assert.True(t, got[2].Date.Equal(day0.AddDate(0, 0, 3)))
}

func TestEvaluateSlot_ExclusiveHolderMakesWaitlistEntry(t *testing.T) {
	a := agentWithSlots(10)
	prop := &models.Property{ID: uuid.New(), IsExclusive: true}
	holder := &models.Appointment{
		ID:         uuid.New(),
		PropertyID: prop.ID,
		AgentID:    a.ID,
		Date:       day0,
		StartTime:  models.NewTimeOfDay(10, 0),
		EndTime:    utils.Ptr(models.NewTimeOfDay(11, 0)),
		Status:     models.AppointmentStatusAccepted,
	}
	a.Availability[0].IsBooked = true
	a.Availability[0].BookingID = &holder.ID

	v := EvaluateSlot(a, &a.Availability[0], prop, []*models.Appointment{holder}, testRules(), day0)
	assert.True(t, v.Bookable)
	assert.Len(t, v.Holders, 1)

	got := StartTimes(a, prop, []*models.Appointment{holder}, testRules(), day0)
	require.Len(t, got, 1)
	assert.True(t, got[0].Waitlisted)

	other := &models.Property{ID: uuid.New(), IsExclusive: true}
	v = EvaluateSlot(a, &a.Availability[0], other, []*models.Appointment{holder}, testRules(), day0)
	assert.False(t, v.Bookable)
	assert.Equal(t, reasonBooked, v.Reason)

	// without a property the holder's exclusivity is unknown
	v = EvaluateSlot(a, &a.Availability[0], nil, []*models.Appointment{holder}, testRules(), day0)
	assert.False(t, v.Bookable)
	assert.Equal(t, reasonBooked, v.Reason)
}
