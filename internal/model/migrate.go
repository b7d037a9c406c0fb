package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Round{},
		&Membership{},
		&FriendLink{},
	); err != nil {
		return err
	}

	// Case-insensitive unique email for non-soft-deleted users.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower " +
			"ON users ((lower(email))) WHERE deleted_at IS NULL",
	).Error; err != nil {
		return err
	}

	// Accepted-member lookups dominate reads on hot rounds.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_memberships_round_status " +
			"ON memberships (round_id, status)",
	).Error
}
