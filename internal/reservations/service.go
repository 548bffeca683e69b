package reservations

import (
	"context"
	"fmt"

	"kleihaven/internal/courses"
	"kleihaven/internal/payments"
	"kleihaven/internal/shared/config"
	"kleihaven/pkg/logger"

	"github.com/google/uuid"
)

// Service interface defines the contract for the reservation flow
type Service interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest) (*CreateReservationResponse, error)
}

type service struct {
	repo    Repository
	ledger  *Ledger
	store   CourseStore
	gateway payments.Gateway
	paycfg  config.PaymentConfig
	log     *logger.Logger
}

// NewService creates a new reservation service instance
func NewService(repo Repository, ledger *Ledger, store CourseStore, gateway payments.Gateway, paycfg config.PaymentConfig, log *logger.Logger) Service {
	return &service{
		repo:    repo,
		ledger:  ledger,
		store:   store,
		gateway: gateway,
		paycfg:  paycfg,
		log:     log,
	}
}

// CreateReservation provisionally holds spots, opens a hosted checkout and
// persists the reservation attempt. The pending hold is rolled back when
// checkout creation or persistence fails; once the response is returned, only
// the webhook reconciler (or the sweep) resolves the hold.
func (s *service) CreateReservation(ctx context.Context, req CreateReservationRequest) (*CreateReservationResponse, error) {
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("invalid course id: %w", err)
	}
	periodID, err := uuid.Parse(req.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("invalid period id: %w", err)
	}

	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// Step 1: hold the spots. From here on every failure path must release.
	if _, err := s.ledger.Reserve(ctx, courseID, periodID, req.NumberOfSpots); err != nil {
		return nil, err
	}

	amount := course.Price * float64(req.NumberOfSpots)

	// Step 2: open the hosted checkout
	checkout, err := s.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		Amount: payments.Amount{
			Currency: s.paycfg.Currency,
			Value:    fmt.Sprintf("%.2f", amount),
		},
		Description: fmt.Sprintf("Boeking voor %s (%d plekken)", course.Title, req.NumberOfSpots),
		RedirectURL: s.paycfg.RedirectURL,
		WebhookURL:  s.paycfg.WebhookURL,
		Metadata: payments.Metadata{
			CourseID:      req.CourseID,
			PeriodID:      req.PeriodID,
			Email:         req.Email,
			Name:          req.Name,
			NumberOfSpots: req.NumberOfSpots,
		},
	})
	if err != nil {
		s.rollbackHold(ctx, courseID, periodID, req.NumberOfSpots, "checkout creation failed")
		return nil, err
	}

	// Step 3: persist the reservation attempt
	reservation := &Reservation{
		CourseID:      courseID,
		PeriodID:      periodID,
		Email:         req.Email,
		Name:          req.Name,
		NumberOfSpots: req.NumberOfSpots,
		Amount:        amount,
		Currency:      s.paycfg.Currency,
		PaymentID:     checkout.PaymentID,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		s.rollbackHold(ctx, courseID, periodID, req.NumberOfSpots, "reservation persistence failed")
		return nil, err
	}

	// Step 4: point the redirect back at this payment so the confirmation
	// page can poll its status. Best effort: the checkout already works.
	redirectWithID := s.paycfg.RedirectURL + "?id=" + checkout.PaymentID
	if err := s.gateway.UpdateRedirectURL(ctx, checkout.PaymentID, redirectWithID); err != nil {
		s.log.WithPaymentID(checkout.PaymentID).WithError(err).
			Warn("Failed to update checkout redirect URL")
	}

	s.log.LogReservationCreated(ctx, checkout.PaymentID, req.CourseID, req.PeriodID, req.NumberOfSpots)

	return &CreateReservationResponse{
		Success:    true,
		PaymentURL: checkout.CheckoutURL,
		PaymentID:  checkout.PaymentID,
	}, nil
}

// rollbackHold releases a freshly reserved hold after a downstream failure
func (s *service) rollbackHold(ctx context.Context, courseID, periodID uuid.UUID, spots int, reason string) {
	if _, err := s.ledger.Release(ctx, courseID, periodID, spots); err != nil {
		// The sweep reconciles holds that could not be rolled back here.
		s.log.ErrorWithContext(ctx, "Failed to roll back pending hold", err, map[string]interface{}{
			"course_id": courseID.String(),
			"period_id": periodID.String(),
			"spots":     spots,
			"reason":    reason,
		})
		return
	}
	s.log.LogReservationReleased(ctx, "", periodID.String(), spots, reason)
}

// ensure the courses repository satisfies the ledger's store contract
var _ CourseStore = (courses.Repository)(nil)
