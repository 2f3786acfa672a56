package models

import "gorm.io/datatypes"

// Candidate mirrors the worker profile owned by the external profile
// subsystem. The staffing engine reads identity and eligibility attributes
// for invite targeting and scoped search; it never mutates profile data.
type Candidate struct {
	BaseModel

	Email     string `gorm:"not null;uniqueIndex" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	PreferredRole string         `gorm:"index" json:"preferred_role"`
	Skills        datatypes.JSON `json:"skills,omitempty"`
	Areas         datatypes.JSON `json:"areas,omitempty"`

	Verified    bool `gorm:"not null;default:false" json:"verified"`
	Deactivated bool `gorm:"not null;default:false" json:"deactivated"`
}

// Eligible reports base search eligibility: verified and not deactivated.
func (c *Candidate) Eligible() bool {
	return c != nil && c.Verified && !c.Deactivated
}
