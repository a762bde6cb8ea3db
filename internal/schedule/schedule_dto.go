package schedule

type SlotRequest struct {
	DayOfWeek       int  `json:"day_of_week" binding:"min=0,max=6"`
	StartMinute     int  `json:"start_minute" binding:"min=0,max=1439"`
	EndMinute       int  `json:"end_minute" binding:"min=0,max=1439"`
	CrossesMidnight bool `json:"crosses_midnight"`
	BreakMinutes    int  `json:"break_minutes" binding:"min=0"`
}

type CreateTemplateRequest struct {
	Name  string        `json:"name" binding:"required,max=150"`
	Slots []SlotRequest `json:"slots" binding:"required,min=1,dive"`
}

type SlotResponse struct {
	ID              string `json:"id"`
	DayOfWeek       int    `json:"day_of_week"`
	StartMinute     int    `json:"start_minute"`
	EndMinute       int    `json:"end_minute"`
	CrossesMidnight bool   `json:"crosses_midnight"`
	BreakMinutes    int    `json:"break_minutes"`
	Position        int    `json:"position"`
}

type TemplateResponse struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Name           string         `json:"name"`
	IsActive       bool           `json:"is_active"`
	Slots          []SlotResponse `json:"slots"`
}

type CreateAssignmentRequest struct {
	TemplateID    string  `json:"template_id" binding:"required,uuid"`
	TargetKind    string  `json:"target_kind" binding:"required,oneof=team user"`
	TargetID      string  `json:"target_id" binding:"required,uuid"`
	EffectiveFrom *string `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
}

type AssignmentResponse struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	TemplateID     string  `json:"template_id"`
	TargetKind     string  `json:"target_kind"`
	TargetID       string  `json:"target_id"`
	EffectiveFrom  *string `json:"effective_from,omitempty"`
	EffectiveTo    *string `json:"effective_to,omitempty"`
	IsActive       bool    `json:"is_active"`
}
