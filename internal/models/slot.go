package models

import "time"

// Slot is one unit of role demand within a team request. Quantity is modelled
// as one row per unit so each unit is separately fillable and carries its own
// acceptance timestamp. FilledByID and AcceptedAt are set together, exactly
// once, by the acceptance transaction; a filled slot never unfills.
type Slot struct {
	BaseModel

	TeamRequestID string   `gorm:"type:uuid;not null;index" json:"team_request_id"`
	Role          string   `gorm:"not null;index" json:"role"`
	Salary        *float64 `json:"salary,omitempty"`

	FilledByID *string    `gorm:"type:uuid;index" json:"filled_by_id,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	TeamRequest *TeamRequest `json:"team_request,omitempty"`
	FilledBy    *Candidate   `gorm:"foreignKey:FilledByID" json:"filled_by,omitempty"`
	Offers      []Offer      `json:"offers,omitempty"`
}

// Filled reports whether a candidate has accepted this slot.
func (s *Slot) Filled() bool {
	return s != nil && s.FilledByID != nil
}
