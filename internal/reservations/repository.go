package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrReservationNotFound = errors.New("reservation not found")

type Repository interface {
	Create(ctx context.Context, reservation *Reservation) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Reservation, error)

	// ResolveFromPending flips the reservation with this payment id from
	// PENDING to the given terminal status. Returns false when the row was
	// not PENDING anymore, which is how replayed webhooks are detected.
	ResolveFromPending(ctx context.Context, paymentID string, to Status) (bool, error)

	// Reopen puts a reservation back to PENDING after a transition whose
	// ledger write could not be completed, so a redelivery can re-drive it.
	Reopen(ctx context.Context, paymentID string, from Status) error

	// ListStalePending returns PENDING reservations created before cutoff
	ListStalePending(ctx context.Context, cutoff time.Time) ([]Reservation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, reservation *Reservation) error {
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *repository) GetByPaymentID(ctx context.Context, paymentID string) (*Reservation, error) {
	var reservation Reservation
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *repository) ResolveFromPending(ctx context.Context, paymentID string, to Status) (bool, error) {
	if !to.IsTerminal() {
		return false, fmt.Errorf("cannot resolve to non-terminal status %s", to)
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&Reservation{}).
		Where("payment_id = ? AND status = ?", paymentID, StatusPending).
		Updates(map[string]interface{}{
			"status":      to,
			"resolved_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to resolve reservation: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *repository) Reopen(ctx context.Context, paymentID string, from Status) error {
	res := r.db.WithContext(ctx).Model(&Reservation{}).
		Where("payment_id = ? AND status = ?", paymentID, from).
		Updates(map[string]interface{}{
			"status":      StatusPending,
			"resolved_at": nil,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to reopen reservation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *repository) ListStalePending(ctx context.Context, cutoff time.Time) ([]Reservation, error) {
	var reservations []Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", StatusPending, cutoff).
		Order("created_at ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale reservations: %w", err)
	}
	return reservations, nil
}
