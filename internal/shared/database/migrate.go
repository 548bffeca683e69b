package database

import (
	"kleihaven/internal/courses"
	"kleihaven/internal/reservations"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// uuid_generate_v4 defaults require the extension
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&courses.Course{},
		&courses.Period{},
		&reservations.Reservation{},
	)
}
