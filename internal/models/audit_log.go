package models

// AuditLog records a staffing mutation for later review. Actor identities are
// opaque principal ids supplied by the identity collaborator.
type AuditLog struct {
	BaseModel

	ActorID   *string `gorm:"index" json:"actor_id,omitempty"`
	Action    string  `gorm:"not null;index" json:"action"`
	Resource  string  `gorm:"index" json:"resource"`
	Result    string  `gorm:"not null" json:"result"`
	IPAddress string  `json:"ip_address"`
	Metadata  string  `json:"metadata"`
}
