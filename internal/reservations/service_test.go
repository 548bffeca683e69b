package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"kleihaven/internal/courses"
	"kleihaven/internal/payments"
	"kleihaven/internal/shared/config"
	"kleihaven/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		Currency:     "EUR",
		RedirectURL:  "https://studio.test/boeking/bevestiging",
		WebhookURL:   "https://studio.test/api/v1/payments/webhook",
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		Timeout:      time.Second,
	}
}

func newServiceFixture(total, booked, pending int) (Service, *fakeCourseStore, *fakeReservationRepo, *fakeGateway, uuid.UUID, uuid.UUID) {
	store, courseID, periodID := newFakeCourseStore(total, booked, pending)
	repo := newFakeReservationRepo()
	gateway := newFakeGateway()
	ledger := NewLedger(store, newFakeCache())

	svc := NewService(repo, ledger, store, gateway, newTestPaymentConfig(), logger.GetDefault())
	return svc, store, repo, gateway, courseID, periodID
}

func TestCreateReservationHappyPath(t *testing.T) {
	svc, store, repo, gateway, courseID, periodID := newServiceFixture(10, 0, 0)

	resp, err := svc.CreateReservation(context.Background(), CreateReservationRequest{
		CourseID:      courseID.String(),
		PeriodID:      periodID.String(),
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 2,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Contains(t, resp.PaymentURL, "https://checkout.test/")
	require.NotEmpty(t, resp.PaymentID)

	// The hold is in place
	period := store.period()
	require.Equal(t, 2, period.PendingReservations)
	require.Equal(t, 0, period.BookedSpots)

	// The reservation attempt is durable and PENDING
	reservation, err := repo.GetByPaymentID(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, reservation.Status)
	require.Equal(t, 190.0, reservation.Amount) // 2 x 95
	require.Equal(t, "EUR", reservation.Currency)

	// The checkout carries the price and the reservation metadata
	payment, err := gateway.GetPayment(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	require.Equal(t, "190.00", payment.Amount.Value)
	require.Equal(t, "anna@example.nl", payment.Metadata.Email)
	require.Equal(t, 2, payment.Metadata.NumberOfSpots)

	// The redirect was rewritten to carry the payment id
	require.Equal(t, "https://studio.test/boeking/bevestiging?id="+resp.PaymentID,
		gateway.redirects[resp.PaymentID])
}

func TestCreateReservationRejectsWhenFull(t *testing.T) {
	svc, store, repo, _, courseID, periodID := newServiceFixture(5, 3, 1)

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{
		CourseID:      courseID.String(),
		PeriodID:      periodID.String(),
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 2,
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// Nothing held, nothing persisted
	require.Equal(t, 1, store.period().PendingReservations)
	require.Empty(t, repo.byPayment)
}

func TestCreateReservationUnknownCourse(t *testing.T) {
	svc, _, _, _, _, periodID := newServiceFixture(5, 0, 0)

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{
		CourseID:      uuid.New().String(),
		PeriodID:      periodID.String(),
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 1,
	})
	require.ErrorIs(t, err, courses.ErrCourseNotFound)
}

func TestCreateReservationUnknownPeriod(t *testing.T) {
	svc, store, _, _, courseID, _ := newServiceFixture(5, 0, 0)

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{
		CourseID:      courseID.String(),
		PeriodID:      uuid.New().String(),
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 1,
	})
	require.ErrorIs(t, err, courses.ErrPeriodNotFound)
	require.Equal(t, 0, store.period().PendingReservations)
}

func TestCreateReservationRollsBackHoldOnCheckoutFailure(t *testing.T) {
	svc, store, repo, gateway, courseID, periodID := newServiceFixture(10, 0, 0)
	gateway.createErr = payments.ErrGateway

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{
		CourseID:      courseID.String(),
		PeriodID:      periodID.String(),
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 3,
	})
	require.ErrorIs(t, err, payments.ErrGateway)

	// The hold was released again
	require.Equal(t, 0, store.period().PendingReservations)
	require.Empty(t, repo.byPayment)
}

func TestCreateReservationRollsBackHoldOnPersistFailure(t *testing.T) {
	svc, store, repo, _, courseID, periodID := newServiceFixture(10, 0, 0)
	repo.createErr = errors.New("database gone")

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{
		CourseID:      courseID.String(),
		PeriodID:      periodID.String(),
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 3,
	})
	require.ErrorContains(t, err, "database gone")
	require.Equal(t, 0, store.period().PendingReservations)
}

func TestCreateReservationInvalidIDs(t *testing.T) {
	svc, _, _, _, _, periodID := newServiceFixture(5, 0, 0)

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{
		CourseID:      "not-a-uuid",
		PeriodID:      periodID.String(),
		Email:         "anna@example.nl",
		Name:          "Anna de Vries",
		NumberOfSpots: 1,
	})
	require.ErrorContains(t, err, "invalid course id")
}
