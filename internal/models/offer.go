package models

// Offer is a standing invitation linking a candidate to a slot. Offers are
// flipped inactive when the slot is filled by someone else or on explicit
// revocation; they are never deleted so candidate history stays renderable.
// A partial unique index guarantees at most one active offer per
// (slot, candidate) pair; see database.EnsureIndexes.
type Offer struct {
	BaseModel

	SlotID      string `gorm:"type:uuid;not null;index" json:"slot_id"`
	CandidateID string `gorm:"type:uuid;not null;index" json:"candidate_id"`
	Active      bool   `gorm:"not null;default:true;index" json:"active"`

	Slot      *Slot      `json:"slot,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
}
