package models

import "time"

// TeamRequestState captures the lifecycle of a team request.
type TeamRequestState string

const (
	TeamRequestOpen       TeamRequestState = "OPEN"
	TeamRequestIncomplete TeamRequestState = "INCOMPLETE"
	TeamRequestComplete   TeamRequestState = "COMPLETE"
)

// TeamRequest is a company's request for a temporary work team, composed of
// role slots. StartsAt/EndsAt bound the engagement when both are set.
type TeamRequest struct {
	BaseModel

	CompanyID   string           `gorm:"type:uuid;not null;index" json:"company_id"`
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	StartsAt    *time.Time       `gorm:"index" json:"starts_at,omitempty"`
	EndsAt      *time.Time       `gorm:"index" json:"ends_at,omitempty"`
	State       TeamRequestState `gorm:"not null;default:OPEN;index" json:"state"`

	// ResponsibleAdminID references the administrator handling staffing.
	// Admin identities are owned by the external identity collaborator.
	ResponsibleAdminID *string `gorm:"type:uuid" json:"responsible_admin_id,omitempty"`

	Company *Company `json:"company,omitempty"`
	Slots   []Slot   `json:"slots,omitempty"`
}

// HasSchedule reports whether both interval bounds are set.
func (t *TeamRequest) HasSchedule() bool {
	return t != nil && t.StartsAt != nil && t.EndsAt != nil
}

// ScheduleOverlaps reports whether two fully-scheduled team requests
// intersect in time. Requests missing either bound never overlap.
func (t *TeamRequest) ScheduleOverlaps(other *TeamRequest) bool {
	if !t.HasSchedule() || !other.HasSchedule() {
		return false
	}
	return !other.StartsAt.After(*t.EndsAt) && !other.EndsAt.Before(*t.StartsAt)
}
