package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// The capacity invariant, enforced at the storage layer as a last line of
	// defense behind the conditional counter updates
	err := db.Exec(`
		ALTER TABLE periods
		DROP CONSTRAINT IF EXISTS chk_periods_capacity;
	`).Error
	if err != nil {
		return err
	}
	err = db.Exec(`
		ALTER TABLE periods
		ADD CONSTRAINT chk_periods_capacity
		CHECK (booked_spots + pending_reservations <= total_spots);
	`).Error
	if err != nil {
		return err
	}

	// Index for the stale-reservation sweep query
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservations_status_created
		ON reservations (status, created_at);
	`).Error
	if err != nil {
		return err
	}

	// Index for period lookups within a course
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_periods_course_sort
		ON periods (course_id, sort_order);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
