package models

// Company owns team requests. Company records are provisioned by the
// surrounding registration subsystem; this service only reads them.
type Company struct {
	BaseModel

	Name         string `gorm:"not null;uniqueIndex" json:"name"`
	ContactEmail string `gorm:"index" json:"contact_email"`

	TeamRequests []TeamRequest `json:"team_requests,omitempty"`
}
