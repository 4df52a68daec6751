package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

func appt(agentID uuid.UUID, start models.TimeOfDay, end *models.TimeOfDay, status models.AppointmentStatusType) *models.Appointment {
	return &models.Appointment{
		ID:        uuid.New(),
		AgentID:   agentID,
		Date:      day0,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

func TestFindConflict(t *testing.T) {
	agentID := uuid.New()
	hm := models.NewTimeOfDay
	existing := appt(agentID, hm(10, 0), utils.Ptr(hm(11, 0)), models.AppointmentStatusAccepted)

	tests := []struct {
		name  string
		list  []*models.Appointment
		c     Candidate
		clash bool
	}{
		{
			name:  "overlapping range",
			list:  []*models.Appointment{existing},
			c:     Candidate{AgentID: agentID, Date: day0, StartTime: hm(10, 30), EndTime: utils.Ptr(hm(11, 30))},
			clash: true,
		},
		{
			name: "touching ranges are half-open",
			list: []*models.Appointment{existing},
			c:    Candidate{AgentID: agentID, Date: day0, StartTime: hm(11, 0), EndTime: utils.Ptr(hm(12, 0))},
		},
		{
			name: "other agent",
			list: []*models.Appointment{existing},
			c:    Candidate{AgentID: uuid.New(), Date: day0, StartTime: hm(10, 0), EndTime: utils.Ptr(hm(11, 0))},
		},
		{
			name: "other date",
			list: []*models.Appointment{existing},
			c:    Candidate{AgentID: agentID, Date: day0.AddDate(0, 0, 1), StartTime: hm(10, 0), EndTime: utils.Ptr(hm(11, 0))},
		},
		{
			name: "cancelled never blocks",
			list: []*models.Appointment{appt(agentID, hm(10, 0), utils.Ptr(hm(11, 0)), models.AppointmentStatusCancelled)},
			c:    Candidate{AgentID: agentID, Date: day0, StartTime: hm(10, 0), EndTime: utils.Ptr(hm(11, 0))},
		},
		{
			name: "rejected never blocks",
			list: []*models.Appointment{appt(agentID, hm(10, 0), utils.Ptr(hm(11, 0)), models.AppointmentStatusRejected)},
			c:    Candidate{AgentID: agentID, Date: day0, StartTime: hm(10, 0), EndTime: utils.Ptr(hm(11, 0))},
		},
		{
			name:  "missing end compares starts",
			list:  []*models.Appointment{appt(agentID, hm(10, 0), nil, models.AppointmentStatusPending)},
			c:     Candidate{AgentID: agentID, Date: day0, StartTime: hm(10, 0), EndTime: utils.Ptr(hm(12, 0))},
			clash: true,
		},
		{
			name: "missing end with different start",
			list: []*models.Appointment{appt(agentID, hm(10, 0), nil, models.AppointmentStatusPending)},
			c:    Candidate{AgentID: agentID, Date: day0, StartTime: hm(10, 30), EndTime: utils.Ptr(hm(12, 0))},
		},
		{
			name: "excluded appointment",
			list: []*models.Appointment{existing},
			c:    Candidate{AgentID: agentID, Date: day0, StartTime: hm(10, 0), EndTime: utils.Ptr(hm(11, 0)), Exclude: []uuid.UUID{existing.ID}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.clash, HasConflict(tt.list, tt.c))
		})
	}
}
