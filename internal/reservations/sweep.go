package reservations

import (
	"context"
	"errors"
	"time"

	"kleihaven/internal/payments"
	"kleihaven/pkg/logger"
)

// Sweeper reconciles reservations whose webhook never arrived. It only looks
// at PENDING rows older than the abandonment window and always asks the
// provider for the authoritative status before touching anything, so a sweep
// can never release a hold whose payment actually completed.
type Sweeper struct {
	repo           Repository
	ledger         *Ledger
	gateway        payments.Gateway
	reconciler     *Reconciler
	abandonedAfter time.Duration
	log            *logger.Logger
}

func NewSweeper(repo Repository, ledger *Ledger, gateway payments.Gateway, reconciler *Reconciler, abandonedAfter time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		repo:           repo,
		ledger:         ledger,
		gateway:        gateway,
		reconciler:     reconciler,
		abandonedAfter: abandonedAfter,
		log:            log,
	}
}

// Run executes one sweep. In dry-run mode it only reports what would be
// touched; otherwise each stale reservation is settled against the provider.
func (s *Sweeper) Run(ctx context.Context, dryRun bool) (*SweepReport, error) {
	cutoff := time.Now().Add(-s.abandonedAfter)

	stale, err := s.repo.ListStalePending(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{
		DryRun:  dryRun,
		Scanned: len(stale),
	}

	if dryRun {
		for _, res := range stale {
			report.WouldSweep = append(report.WouldSweep, SweepItem{
				PaymentID:     res.PaymentID,
				CourseID:      res.CourseID.String(),
				PeriodID:      res.PeriodID.String(),
				NumberOfSpots: res.NumberOfSpots,
			})
		}
		return report, nil
	}

	for _, res := range stale {
		s.sweepOne(ctx, res, report)
	}

	s.log.InfoWithContext(ctx, "Sweep completed", map[string]interface{}{
		"scanned":   report.Scanned,
		"confirmed": report.Confirmed,
		"released":  report.Released,
		"failed":    report.Failed,
	})

	return report, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, res Reservation, report *SweepReport) {
	payment, err := s.gateway.GetPayment(ctx, res.PaymentID)
	if err != nil {
		if errors.Is(err, payments.ErrPaymentNotFound) {
			// The provider no longer knows this payment. Nothing could still
			// confirm it, so the hold is released.
			if s.sweepRelease(ctx, res) {
				report.Released++
			} else {
				report.Failed++
			}
			return
		}
		s.log.WithPaymentID(res.PaymentID).WithError(err).
			Warn("Sweep could not fetch payment, leaving reservation for next run")
		report.Failed++
		return
	}

	if payment.Status.IsTerminal() {
		// The webhook was missed; the settlement path handles commit/release
		outcome, err := s.reconciler.Settle(ctx, payment)
		if err != nil {
			s.log.WithPaymentID(res.PaymentID).WithError(err).
				Warn("Sweep settlement failed, leaving reservation for next run")
			report.Failed++
			return
		}
		switch outcome.Kind {
		case OutcomeConfirmed:
			report.Confirmed++
		case OutcomeReleased:
			report.Released++
		}
		return
	}

	// Still open at the provider, but older than the abandonment window.
	// The checkout session has long expired from the customer's point of
	// view, so the hold is released and the spots go back on sale.
	if s.sweepRelease(ctx, res) {
		report.Released++
	} else {
		report.Failed++
	}
}

// sweepRelease marks the reservation SWEPT and releases its hold. The same
// conditional flip the webhook path uses keeps a concurrently arriving
// webhook and the sweep from both acting on the reservation.
func (s *Sweeper) sweepRelease(ctx context.Context, res Reservation) bool {
	claimed, err := s.repo.ResolveFromPending(ctx, res.PaymentID, StatusSwept)
	if err != nil {
		s.log.WithPaymentID(res.PaymentID).WithError(err).Error("Sweep could not resolve reservation")
		return false
	}
	if !claimed {
		// A webhook settled it between listing and this flip; nothing to do
		return false
	}

	if _, err := s.ledger.Release(ctx, res.CourseID, res.PeriodID, res.NumberOfSpots); err != nil {
		if reopenErr := s.repo.Reopen(ctx, res.PaymentID, StatusSwept); reopenErr != nil {
			s.log.WithPaymentID(res.PaymentID).WithError(reopenErr).
				Error("Failed to reopen reservation after sweep release failure")
		}
		s.log.WithPaymentID(res.PaymentID).WithError(err).Error("Sweep could not release hold")
		return false
	}

	s.log.LogReservationReleased(ctx, res.PaymentID, res.PeriodID.String(),
		res.NumberOfSpots, "swept")
	return true
}
