package payments

// Status is a payment's lifecycle state as reported by the provider
type Status string

const (
	StatusOpen     Status = "open"
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// IsPaid reports terminal success
func (s Status) IsPaid() bool {
	return s == StatusPaid
}

// IsTerminal reports whether the provider will never change this status again
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Amount is the provider's money representation: a currency code and a
// decimal value serialized as a string with two decimals
type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// Metadata links a payment back to the reservation attempt it pays for.
// It mirrors what is persisted locally; the payment record is re-fetched by
// id and this copy is never the authoritative source.
type Metadata struct {
	CourseID      string `json:"courseId"`
	PeriodID      string `json:"periodId"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	NumberOfSpots int    `json:"numberOfSpots"`
}

// Payment is the provider-side payment record
type Payment struct {
	ID          string   `json:"id"`
	Status      Status   `json:"status"`
	Amount      Amount   `json:"amount"`
	Description string   `json:"description"`
	Metadata    Metadata `json:"metadata"`
	CheckoutURL string   `json:"checkout_url,omitempty"`
}

// CheckoutRequest describes a hosted-checkout session to create
type CheckoutRequest struct {
	Amount      Amount
	Description string
	RedirectURL string
	WebhookURL  string
	Metadata    Metadata
}

// Checkout is the created session the customer is redirected to
type Checkout struct {
	PaymentID   string
	CheckoutURL string
}
