package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"kleihaven/internal/payments"
	"kleihaven/pkg/logger"

	"github.com/stretchr/testify/require"
)

type reconcilerFixture struct {
	store      *fakeCourseStore
	repo       *fakeReservationRepo
	gateway    *fakeGateway
	dispatcher *fakeDispatcher
	cache      *fakeCache
	ledger     *Ledger
	reconciler *Reconciler
}

func newReconcilerFixture(t *testing.T, total, booked, pending int) (*reconcilerFixture, *Reservation) {
	t.Helper()

	store, courseID, periodID := newFakeCourseStore(total, booked, pending)
	repo := newFakeReservationRepo()
	gateway := newFakeGateway()
	dispatcher := newFakeDispatcher()
	fc := newFakeCache()
	ledger := NewLedger(store, fc)

	reconciler := NewReconciler(repo, ledger, store, gateway, dispatcher,
		fc, time.Hour, logger.GetDefault())

	reservation := &Reservation{
		CourseID:      courseID,
		PeriodID:      periodID,
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 2,
		Amount:        190,
		Currency:      "EUR",
		PaymentID:     "tr_fixture_1",
		Status:        StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), reservation))

	gateway.addPayment(&payments.Payment{
		ID:     reservation.PaymentID,
		Status: payments.StatusOpen,
	})

	return &reconcilerFixture{
		store:      store,
		repo:       repo,
		gateway:    gateway,
		dispatcher: dispatcher,
		cache:      fc,
		ledger:     ledger,
		reconciler: reconciler,
	}, reservation
}

func TestReconcilerConfirmsPaidPayment(t *testing.T) {
	f, res := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.setStatus(res.PaymentID, payments.StatusPaid)

	outcome, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome.Kind)

	require.Equal(t, StatusPaid, f.repo.status(res.PaymentID))

	period := f.store.period()
	require.Equal(t, 2, period.BookedSpots)
	require.Equal(t, 0, period.PendingReservations)

	require.Equal(t, 1, f.dispatcher.count())
	require.Equal(t, "anna@example.nl", f.dispatcher.outcomes[0].CustomerEmail)
	require.Equal(t, "Draaien voor beginners", f.dispatcher.outcomes[0].CourseTitle)
}

func TestReconcilerIsIdempotentUnderRedelivery(t *testing.T) {
	f, res := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.setStatus(res.PaymentID, payments.StatusPaid)

	first, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, first.Kind)

	second, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, second.Kind)

	// Counters moved exactly once
	period := f.store.period()
	require.Equal(t, 2, period.BookedSpots)
	require.Equal(t, 0, period.PendingReservations)
	require.Equal(t, 1, f.dispatcher.count())
}

func TestReconcilerDuplicateWithoutCacheFastPath(t *testing.T) {
	f, res := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.setStatus(res.PaymentID, payments.StatusPaid)

	_, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)

	// Simulate the dedupe cache being flushed between deliveries. The
	// durable status flip still detects the replay.
	f.cache.mu.Lock()
	f.cache.data = make(map[string][]byte)
	f.cache.mu.Unlock()

	second, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, second.Kind)

	period := f.store.period()
	require.Equal(t, 2, period.BookedSpots)
}

func TestReconcilerLeavesNonTerminalPaymentPending(t *testing.T) {
	f, res := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.setStatus(res.PaymentID, payments.StatusPending)

	outcome, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomePending, outcome.Kind)

	require.Equal(t, StatusPending, f.repo.status(res.PaymentID))
	period := f.store.period()
	require.Equal(t, 2, period.PendingReservations)
	require.Equal(t, 0, f.dispatcher.count())
}

func TestReconcilerReleasesExpiredPayment(t *testing.T) {
	f, res := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.setStatus(res.PaymentID, payments.StatusExpired)

	outcome, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomeReleased, outcome.Kind)

	require.Equal(t, StatusFailed, f.repo.status(res.PaymentID))
	period := f.store.period()
	require.Equal(t, 0, period.BookedSpots)
	require.Equal(t, 0, period.PendingReservations)
	require.Equal(t, 0, f.dispatcher.count())
}

func TestReconcilerReopensReservationWhenCommitFails(t *testing.T) {
	f, res := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.setStatus(res.PaymentID, payments.StatusPaid)
	f.store.updateErr = errors.New("database gone")

	_, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.Error(t, err)

	// The reservation is PENDING again so a redelivery can re-drive it
	require.Equal(t, StatusPending, f.repo.status(res.PaymentID))
	require.Equal(t, 0, f.dispatcher.count())

	// Redelivery after the store recovers completes the booking
	f.store.updateErr = nil
	outcome, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome.Kind)
	require.Equal(t, 2, f.store.period().BookedSpots)
}

func TestReconcilerConfirmsEvenWhenNotificationFails(t *testing.T) {
	f, res := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.setStatus(res.PaymentID, payments.StatusPaid)
	f.dispatcher.result = false

	outcome, err := f.reconciler.Process(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome.Kind)
	require.Equal(t, StatusPaid, f.repo.status(res.PaymentID))

	// The booking was committed and stays committed
	require.Equal(t, 2, f.store.period().BookedSpots)
}

func TestReconcilerUnknownPayment(t *testing.T) {
	f, _ := newReconcilerFixture(t, 10, 0, 2)

	_, err := f.reconciler.Process(context.Background(), "tr_never_created")
	require.ErrorIs(t, err, payments.ErrPaymentNotFound)
}

func TestReconcilerUnknownReservation(t *testing.T) {
	f, _ := newReconcilerFixture(t, 10, 0, 2)
	f.gateway.addPayment(&payments.Payment{
		ID:     "tr_orphan",
		Status: payments.StatusPaid,
	})

	_, err := f.reconciler.Process(context.Background(), "tr_orphan")
	require.ErrorIs(t, err, ErrReservationNotFound)
}
