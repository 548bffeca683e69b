package reservations

type Status string

const (
	// StatusPending means a checkout session exists and spots are held
	StatusPending Status = "PENDING"
	// StatusPaid means payment succeeded and the hold became a booking
	StatusPaid Status = "PAID"
	// StatusFailed covers declined, expired and cancelled payments
	StatusFailed Status = "FAILED"
	// StatusSwept means the hold was released by the maintenance sweep
	StatusSwept Status = "SWEPT"
)

// IsValid checks if the reservation status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusSwept:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s != StatusPending
}
