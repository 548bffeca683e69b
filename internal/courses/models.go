package courses

import (
	"time"

	"github.com/google/uuid"
)

// Course is a bookable ceramics course with an ordered set of periods
type Course struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:255"`
	Subtitle    string    `json:"subtitle" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Content     string    `json:"content" gorm:"type:text"`
	ImageURL    string    `json:"image_url" gorm:"size:500"`
	Price       float64   `json:"price" gorm:"not null;check:price >= 0"`
	Hidden      bool      `json:"hidden" gorm:"not null;default:false"`
	Teachers    []string  `json:"teachers" gorm:"serializer:json"`

	Periods []Period `json:"periods" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Period is a bookable time window of a course with fixed total capacity.
// BookedSpots counts confirmed bookings, PendingReservations counts spots
// provisionally held while a payment is in progress. The version column is
// the optimistic-concurrency token guarding every counter mutation.
type Period struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CourseID uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`

	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`
	TimeInfo  string    `json:"time_info" gorm:"size:255"`

	TotalSpots          int `json:"total_spots" gorm:"not null;check:total_spots > 0"`
	BookedSpots         int `json:"booked_spots" gorm:"not null;default:0;check:booked_spots >= 0"`
	PendingReservations int `json:"pending_reservations" gorm:"not null;default:0;check:pending_reservations >= 0"`

	SortOrder int   `json:"sort_order" gorm:"not null;default:0"`
	Version   int64 `json:"-" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AvailableSpots returns capacity not yet booked or provisionally held
func (p *Period) AvailableSpots() int {
	return p.TotalSpots - (p.BookedSpots + p.PendingReservations)
}

// CanAccommodate reports whether n more spots fit in this period
func (p *Period) CanAccommodate(n int) bool {
	return n > 0 && p.AvailableSpots() >= n
}

// FindPeriod locates a period in the course by id
func (c *Course) FindPeriod(periodID uuid.UUID) *Period {
	for i := range c.Periods {
		if c.Periods[i].ID == periodID {
			return &c.Periods[i]
		}
	}
	return nil
}
