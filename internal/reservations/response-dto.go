package reservations

// CreateReservationResponse carries the checkout URL the customer is
// redirected to. Field names are part of the frontend contract.
type CreateReservationResponse struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"paymentUrl"`
	PaymentID  string `json:"paymentId"`
}

// SweepReport summarizes one maintenance sweep run
type SweepReport struct {
	DryRun     bool        `json:"dry_run"`
	Scanned    int         `json:"scanned"`
	Confirmed  int         `json:"confirmed"`
	Released   int         `json:"released"`
	Failed     int         `json:"failed"`
	WouldSweep []SweepItem `json:"would_sweep,omitempty"`
}

// SweepItem identifies one stale reservation the sweep saw
type SweepItem struct {
	PaymentID     string `json:"payment_id"`
	CourseID      string `json:"course_id"`
	PeriodID      string `json:"period_id"`
	NumberOfSpots int    `json:"number_of_spots"`
}
