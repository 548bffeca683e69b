package notifications

import (
	"context"
	"fmt"
	"sync"

	"kleihaven/pkg/logger"
)

// Dispatcher fires confirmation messages after a reservation is finalized.
// Notify never returns an error: a failed dispatch must not change the
// outcome of the reservation it reports on.
type Dispatcher interface {
	Notify(ctx context.Context, outcome BookingOutcome) bool
}

type dispatcher struct {
	producer   Producer
	ownerEmail string
	log        *logger.Logger
}

// NewDispatcher creates a dispatcher publishing through the given producer.
// A nil producer disables dispatch (every Notify reports false).
func NewDispatcher(producer Producer, ownerEmail string, log *logger.Logger) Dispatcher {
	return &dispatcher{
		producer:   producer,
		ownerEmail: ownerEmail,
		log:        log,
	}
}

// Notify publishes the customer confirmation and the owner notification.
// Both are always attempted, concurrently; the result is true only when
// every dispatch succeeded.
func (d *dispatcher) Notify(ctx context.Context, outcome BookingOutcome) bool {
	if d.producer == nil {
		d.log.LogNotificationFailure(ctx, outcome.CustomerEmail,
			fmt.Errorf("notification producer not configured"))
		return false
	}

	messages := []*BookingNotification{
		NewBookingNotification(
			TypeBookingConfirmedCustomer,
			outcome.CustomerEmail,
			"Bevestiging van je boeking bij Kleihaven",
			outcome,
		),
	}
	if d.ownerEmail != "" {
		messages = append(messages, NewBookingNotification(
			TypeBookingConfirmedOwner,
			d.ownerEmail,
			fmt.Sprintf("Nieuwe boeking: %s (%d plekken)", outcome.CourseTitle, outcome.NumberOfSpots),
			outcome,
		))
	}

	var wg sync.WaitGroup
	results := make([]bool, len(messages))

	for i, msg := range messages {
		wg.Add(1)
		go func(i int, msg *BookingNotification) {
			defer wg.Done()
			if err := d.producer.Publish(ctx, msg); err != nil {
				d.log.LogNotificationFailure(ctx, msg.Recipient, err)
				return
			}
			results[i] = true
		}(i, msg)
	}
	wg.Wait()

	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}
