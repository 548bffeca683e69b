package reservations

import (
	"context"
	"fmt"
	"time"

	"kleihaven/internal/notifications"
	"kleihaven/internal/payments"
	"kleihaven/pkg/cache"
	"kleihaven/pkg/logger"
)

// OutcomeKind classifies what a webhook delivery did to the reservation
type OutcomeKind string

const (
	// OutcomeConfirmed means this delivery turned the hold into a booking
	OutcomeConfirmed OutcomeKind = "confirmed"

	// OutcomeReleased means this delivery released the hold (payment failed,
	// expired or was canceled)
	OutcomeReleased OutcomeKind = "released"

	// OutcomeDuplicate means the payment was already resolved by an earlier
	// delivery; nothing was changed
	OutcomeDuplicate OutcomeKind = "duplicate"

	// OutcomePending means the payment has no terminal status yet; the
	// provider will deliver again
	OutcomePending OutcomeKind = "pending"
)

// Outcome is the reconciler's verdict for one webhook delivery
type Outcome struct {
	Kind      OutcomeKind
	PaymentID string
	Status    payments.Status
}

const webhookSeenKeyPrefix = "kleihaven:webhook:seen:"

// Reconciler settles reservations against the payment provider's verdict.
// It is the only component that moves a reservation out of PENDING during
// normal operation, and it is safe under webhook redelivery: the durable
// status flip is the idempotency gate, the cache is only a fast path.
type Reconciler struct {
	repo       Repository
	ledger     *Ledger
	store      CourseStore
	gateway    payments.Gateway
	dispatcher notifications.Dispatcher
	cache      cache.Service
	dedupeTTL  time.Duration
	log        *logger.Logger
}

func NewReconciler(
	repo Repository,
	ledger *Ledger,
	store CourseStore,
	gateway payments.Gateway,
	dispatcher notifications.Dispatcher,
	cacheService cache.Service,
	dedupeTTL time.Duration,
	log *logger.Logger,
) *Reconciler {
	return &Reconciler{
		repo:       repo,
		ledger:     ledger,
		store:      store,
		gateway:    gateway,
		dispatcher: dispatcher,
		cache:      cacheService,
		dedupeTTL:  dedupeTTL,
		log:        log,
	}
}

// Process handles one webhook delivery: it fetches the authoritative payment
// record from the provider and settles the reservation accordingly. The
// delivery body is never trusted beyond the payment id it carries.
func (r *Reconciler) Process(ctx context.Context, paymentID string) (*Outcome, error) {
	if r.cache.Exists(ctx, webhookSeenKeyPrefix+paymentID) {
		return &Outcome{Kind: OutcomeDuplicate, PaymentID: paymentID}, nil
	}

	payment, err := r.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	return r.Settle(ctx, payment)
}

// Settle applies a provider payment record to its reservation. Shared by the
// webhook path and the stale-reservation sweep.
func (r *Reconciler) Settle(ctx context.Context, payment *payments.Payment) (*Outcome, error) {
	outcome := &Outcome{PaymentID: payment.ID, Status: payment.Status}

	if !payment.Status.IsTerminal() {
		outcome.Kind = OutcomePending
		return outcome, nil
	}

	reservation, err := r.repo.GetByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}

	if payment.Status.IsPaid() {
		return r.confirm(ctx, payment, reservation, outcome)
	}
	return r.release(ctx, payment, reservation, outcome)
}

// confirm turns the hold into a booking. The conditional PENDING flip is the
// idempotency gate: exactly one delivery claims it, replays see duplicate.
func (r *Reconciler) confirm(ctx context.Context, payment *payments.Payment, reservation *Reservation, outcome *Outcome) (*Outcome, error) {
	claimed, err := r.repo.ResolveFromPending(ctx, payment.ID, StatusPaid)
	if err != nil {
		return nil, err
	}
	if !claimed {
		outcome.Kind = OutcomeDuplicate
		return outcome, nil
	}

	_, err = r.ledger.Commit(ctx, reservation.CourseID, reservation.PeriodID, reservation.NumberOfSpots)
	if err != nil {
		// Give the claim back so the provider's redelivery can re-drive the
		// whole transition. Without this the booking would be lost.
		if reopenErr := r.repo.Reopen(ctx, payment.ID, StatusPaid); reopenErr != nil {
			r.log.WithPaymentID(payment.ID).WithError(reopenErr).
				Error("Failed to reopen reservation after commit failure")
		}
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	r.log.LogReservationCommitted(ctx, payment.ID, reservation.PeriodID.String(), reservation.NumberOfSpots)
	r.markSeen(ctx, payment.ID)

	// The booking stands regardless of what happens below. Notification
	// failures are logged, never propagated.
	r.notify(ctx, payment, reservation)

	outcome.Kind = OutcomeConfirmed
	return outcome, nil
}

// release drops the hold for a payment that terminally did not complete
func (r *Reconciler) release(ctx context.Context, payment *payments.Payment, reservation *Reservation, outcome *Outcome) (*Outcome, error) {
	claimed, err := r.repo.ResolveFromPending(ctx, payment.ID, StatusFailed)
	if err != nil {
		return nil, err
	}
	if !claimed {
		outcome.Kind = OutcomeDuplicate
		return outcome, nil
	}

	_, err = r.ledger.Release(ctx, reservation.CourseID, reservation.PeriodID, reservation.NumberOfSpots)
	if err != nil {
		if reopenErr := r.repo.Reopen(ctx, payment.ID, StatusFailed); reopenErr != nil {
			r.log.WithPaymentID(payment.ID).WithError(reopenErr).
				Error("Failed to reopen reservation after release failure")
		}
		return nil, fmt.Errorf("failed to release hold: %w", err)
	}

	r.log.LogReservationReleased(ctx, payment.ID, reservation.PeriodID.String(),
		reservation.NumberOfSpots, string(payment.Status))
	r.markSeen(ctx, payment.ID)

	outcome.Kind = OutcomeReleased
	return outcome, nil
}

// notify dispatches the booking confirmation emails. Period details come from
// the catalog; when the period meanwhile disappeared the emails go out without
// the date block rather than not at all.
func (r *Reconciler) notify(ctx context.Context, payment *payments.Payment, reservation *Reservation) {
	outcome := notifications.BookingOutcome{
		PaymentID:     payment.ID,
		CustomerEmail: reservation.Email,
		CustomerName:  reservation.Name,
		NumberOfSpots: reservation.NumberOfSpots,
		Amount:        reservation.Amount,
		Currency:      reservation.Currency,
	}

	course, err := r.store.GetCourse(ctx, reservation.CourseID)
	if err != nil {
		r.log.WithPaymentID(payment.ID).WithError(err).
			Warn("Could not load course details for notification")
	} else {
		outcome.CourseTitle = course.Title
		if period := course.FindPeriod(reservation.PeriodID); period != nil {
			outcome.PeriodStart = period.StartDate
			outcome.PeriodEnd = period.EndDate
			outcome.TimeInfo = period.TimeInfo
		}
	}

	if !r.dispatcher.Notify(ctx, outcome) {
		r.log.LogNotificationFailure(ctx, reservation.Email,
			fmt.Errorf("booking notification not fully dispatched"))
	}
}

// markSeen records the payment id in the dedupe cache, only after the full
// transition committed. Best effort: the durable status flip already protects
// against replays.
func (r *Reconciler) markSeen(ctx context.Context, paymentID string) {
	if _, err := r.cache.SetNX(ctx, webhookSeenKeyPrefix+paymentID, 1, r.dedupeTTL); err != nil {
		r.log.WithPaymentID(paymentID).WithError(err).Warn("Failed to mark webhook as seen")
	}
}
