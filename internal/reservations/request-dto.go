package reservations

// CreateReservationRequest is the booking widget's reserve call. Field names
// are part of the frontend contract and stay camelCase.
type CreateReservationRequest struct {
	CourseID      string `json:"courseId" validate:"required,uuid"`
	PeriodID      string `json:"periodId" validate:"required,uuid"`
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name" validate:"required,min=2,max=255"`
	NumberOfSpots int    `json:"numberOfSpots" validate:"required,min=1,max=100"`
}
