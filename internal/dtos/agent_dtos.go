package dtos

type AddSlotRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

type AddUnavailablePeriodRequest struct {
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string  `json:"end_time" validate:"required,datetime=15:04"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

type SetVacationRequest struct {
	OnVacation *bool `json:"on_vacation" validate:"required"`
}
