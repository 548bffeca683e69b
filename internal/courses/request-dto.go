package courses

import "time"

type ReplacePeriodsRequest struct {
	Periods []PeriodInput `json:"periods" binding:"required,dive"`
}

type PeriodInput struct {
	ID         string    `json:"id" binding:"omitempty,uuid"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	TimeInfo   string    `json:"time_info" binding:"max=255"`
	TotalSpots int       `json:"total_spots" binding:"required,min=1,max=1000"`

	// Counter state as read by the caller; protects against overwriting
	// fresher counts (see Repository.ReplacePeriods).
	BookedSpots         int   `json:"booked_spots" binding:"min=0"`
	PendingReservations int   `json:"pending_reservations" binding:"min=0"`
	Version             int64 `json:"version" binding:"min=0"`
}
