package database

import (
	"gorm.io/gorm"

	"github.com/crewlink/crewlink/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.Candidate{},
		&models.TeamRequest{},
		&models.Slot{},
		&models.Offer{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

// EnsureIndexes creates the indexes AutoMigrate cannot express.
//
// The partial unique index on offers is the storage backstop for the
// "at most one active offer per (slot, candidate)" invariant: the service
// layer checks before insert, and the index catches any insert that slips
// past that check under concurrency. MySQL has no partial indexes, so there
// the invariant rests on the serialised check inside the dispatch
// transaction alone.
func EnsureIndexes(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "sqlite", "postgres":
		return db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_active_slot_candidate
			 ON offers (slot_id, candidate_id) WHERE active`,
		).Error
	default:
		return nil
	}
}
