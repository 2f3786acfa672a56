package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is an in-app message for a principal (candidate email or
// admin id). Rows carry the offer/acceptance events pushed over the hub.
type Notification struct {
	BaseModel

	RecipientID string         `gorm:"not null;index" json:"recipient_id"`
	Type        string         `gorm:"not null" json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Severity    string         `json:"severity"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	IsRead      bool           `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
}
