package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the template a message is rendered with
type NotificationType string

const (
	TypeBookingConfirmedCustomer NotificationType = "booking_confirmed_customer"
	TypeBookingConfirmedOwner    NotificationType = "booking_confirmed_owner"
)

// NotificationStatus tracks a message through the pipeline
type NotificationStatus string

const (
	NotificationStatusCreated NotificationStatus = "CREATED"
	NotificationStatusQueued  NotificationStatus = "QUEUED"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// BookingOutcome is what the webhook reconciler hands to the dispatcher
// after a reservation has been confirmed
type BookingOutcome struct {
	PaymentID     string    `json:"payment_id"`
	CourseTitle   string    `json:"course_title"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	NumberOfSpots int       `json:"number_of_spots"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	TimeInfo      string    `json:"time_info"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
}

// BookingNotification is the message published to Kafka and consumed by the
// email workers
type BookingNotification struct {
	ID        string             `json:"id"`
	Type      NotificationType   `json:"type"`
	Recipient string             `json:"recipient"`
	Subject   string             `json:"subject"`
	Booking   BookingOutcome     `json:"booking"`
	Status    NotificationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewBookingNotification creates a notification for one recipient
func NewBookingNotification(notificationType NotificationType, recipient, subject string, booking BookingOutcome) *BookingNotification {
	now := time.Now()
	return &BookingNotification{
		ID:        uuid.New().String(),
		Type:      notificationType,
		Recipient: recipient,
		Subject:   subject,
		Booking:   booking,
		Status:    NotificationStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ToJSON serializes the notification for the wire
func (n *BookingNotification) ToJSON() ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a notification from the wire
func FromJSON(data []byte) (*BookingNotification, error) {
	var n BookingNotification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &n, nil
}

// GetPartitionKey routes messages for the same recipient to one partition
func (n *BookingNotification) GetPartitionKey() string {
	return n.Recipient
}
