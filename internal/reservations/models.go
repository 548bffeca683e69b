package reservations

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the durable record of one reservation attempt. It exists
// independently of the payment provider's metadata, so the system can still
// reconcile holds when a webhook never arrives. The unique payment id doubles
// as the idempotency key for webhook processing.
type Reservation struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CourseID uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`
	PeriodID uuid.UUID `json:"period_id" gorm:"type:uuid;not null;index"`

	Email         string `json:"email" gorm:"not null;size:255"`
	Name          string `json:"name" gorm:"not null;size:255"`
	NumberOfSpots int    `json:"number_of_spots" gorm:"not null;check:number_of_spots > 0"`

	Amount   float64 `json:"amount" gorm:"not null"`
	Currency string  `json:"currency" gorm:"not null;size:3"`

	PaymentID string `json:"payment_id" gorm:"not null;uniqueIndex;size:64"`
	Status    Status `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsResolved reports whether the attempt reached a terminal status
func (r *Reservation) IsResolved() bool {
	return r.Status.IsTerminal()
}
