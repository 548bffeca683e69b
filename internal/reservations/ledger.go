package reservations

import (
	"context"
	"errors"
	"fmt"

	"kleihaven/internal/courses"
	"kleihaven/pkg/cache"

	"github.com/google/uuid"
)

var (
	// ErrCapacityExceeded means the period cannot hold the requested spots
	ErrCapacityExceeded = errors.New("not enough spots available")

	// ErrInvalidSpotCount means the requested spot count is not positive
	ErrInvalidSpotCount = errors.New("number of spots must be positive")
)

// CourseStore is the slice of the course repository the ledger needs
// (to avoid depending on the full catalog surface)
type CourseStore interface {
	GetCourse(ctx context.Context, id uuid.UUID) (*courses.Course, error)
	UpdatePeriodCounts(ctx context.Context, p *courses.Period) error
}

// maxConflictRetries bounds how often a ledger operation is recomputed
// against fresh state after losing a version race.
const maxConflictRetries = 3

// Ledger owns the two capacity counters of every period and guarantees
// 0 <= bookedSpots + pendingReservations <= totalSpots under concurrent
// mutation. Serialization is per period: every write is conditional on the
// period's version token and recomputed from fresh state on conflict.
type Ledger struct {
	store CourseStore
	cache cache.Service
}

func NewLedger(store CourseStore, cacheService cache.Service) *Ledger {
	return &Ledger{
		store: store,
		cache: cacheService,
	}
}

// Reserve provisionally holds spots: pendingReservations += spots, only when
// totalSpots - (bookedSpots + pendingReservations) >= spots. Returns the
// updated period snapshot.
func (l *Ledger) Reserve(ctx context.Context, courseID, periodID uuid.UUID, spots int) (*courses.Period, error) {
	if spots <= 0 {
		return nil, ErrInvalidSpotCount
	}

	return l.mutate(ctx, courseID, periodID, func(p *courses.Period) error {
		if !p.CanAccommodate(spots) {
			return ErrCapacityExceeded
		}
		p.PendingReservations += spots
		return nil
	})
}

// Commit converts a hold into a booking: bookedSpots += spots and
// pendingReservations -= spots, floored at zero. The floor keeps an already
// inconsistent counter from going negative; it is not a correctness guarantee.
func (l *Ledger) Commit(ctx context.Context, courseID, periodID uuid.UUID, spots int) (*courses.Period, error) {
	if spots <= 0 {
		return nil, ErrInvalidSpotCount
	}

	return l.mutate(ctx, courseID, periodID, func(p *courses.Period) error {
		p.BookedSpots += spots
		p.PendingReservations = floorAtZero(p.PendingReservations - spots)
		return nil
	})
}

// Release drops a hold without booking: pendingReservations -= spots,
// floored at zero. bookedSpots is untouched.
func (l *Ledger) Release(ctx context.Context, courseID, periodID uuid.UUID, spots int) (*courses.Period, error) {
	if spots <= 0 {
		return nil, ErrInvalidSpotCount
	}

	return l.mutate(ctx, courseID, periodID, func(p *courses.Period) error {
		p.PendingReservations = floorAtZero(p.PendingReservations - spots)
		return nil
	})
}

// mutate runs one counter transition under the optimistic-concurrency loop:
// read fresh state, apply, conditionally write, retry on version conflict.
func (l *Ledger) mutate(ctx context.Context, courseID, periodID uuid.UUID, apply func(*courses.Period) error) (*courses.Period, error) {
	var lastConflict error

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		course, err := l.store.GetCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}

		period := course.FindPeriod(periodID)
		if period == nil {
			return nil, courses.ErrPeriodNotFound
		}

		if err := apply(period); err != nil {
			return nil, err
		}

		err = l.store.UpdatePeriodCounts(ctx, period)
		if errors.Is(err, courses.ErrStoreConflict) {
			lastConflict = err
			continue
		}
		if err != nil {
			return nil, err
		}

		courses.InvalidateCatalogCache(ctx, l.cache)

		snapshot := *period
		return &snapshot, nil
	}

	return nil, fmt.Errorf("period %s: conflict retries exhausted: %w", periodID, lastConflict)
}

func floorAtZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
