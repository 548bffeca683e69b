package reservations

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"kleihaven/internal/courses"
	"kleihaven/internal/notifications"
	"kleihaven/internal/payments"

	"github.com/google/uuid"
)

// fakeCourseStore is an in-memory CourseStore with real version-conditional
// writes, so the optimistic concurrency loop is exercised for real.
type fakeCourseStore struct {
	mu     sync.Mutex
	course *courses.Course

	// forceConflicts makes the next N writes fail with ErrStoreConflict
	// without touching state
	forceConflicts int

	// updateErr fails every write with a non-conflict error
	updateErr error

	updates int
}

func newFakeCourseStore(total, booked, pending int) (*fakeCourseStore, uuid.UUID, uuid.UUID) {
	courseID := uuid.New()
	periodID := uuid.New()

	store := &fakeCourseStore{
		course: &courses.Course{
			ID:    courseID,
			Title: "Draaien voor beginners",
			Price: 95,
			Periods: []courses.Period{{
				ID:                  periodID,
				CourseID:            courseID,
				StartDate:           time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
				EndDate:             time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC),
				TimeInfo:            "10:00 - 12:30",
				TotalSpots:          total,
				BookedSpots:         booked,
				PendingReservations: pending,
			}},
		},
	}
	return store, courseID, periodID
}

func (s *fakeCourseStore) GetCourse(ctx context.Context, id uuid.UUID) (*courses.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.course.ID {
		return nil, courses.ErrCourseNotFound
	}

	copied := *s.course
	copied.Periods = append([]courses.Period(nil), s.course.Periods...)
	return &copied, nil
}

func (s *fakeCourseStore) UpdatePeriodCounts(ctx context.Context, p *courses.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return s.updateErr
	}
	if s.forceConflicts > 0 {
		s.forceConflicts--
		return courses.ErrStoreConflict
	}

	for i := range s.course.Periods {
		stored := &s.course.Periods[i]
		if stored.ID != p.ID {
			continue
		}
		if stored.Version != p.Version {
			return courses.ErrStoreConflict
		}
		stored.BookedSpots = p.BookedSpots
		stored.PendingReservations = p.PendingReservations
		stored.Version++
		p.Version++
		s.updates++
		return nil
	}
	return courses.ErrPeriodNotFound
}

func (s *fakeCourseStore) period() courses.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.course.Periods[0]
}

// fakeReservationRepo is an in-memory Repository keyed by payment id
type fakeReservationRepo struct {
	mu        sync.Mutex
	byPayment map[string]*Reservation
	createErr error
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byPayment: make(map[string]*Reservation)}
}

func (r *fakeReservationRepo) Create(ctx context.Context, reservation *Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.byPayment[reservation.PaymentID]; exists {
		return fmt.Errorf("duplicate payment id %s", reservation.PaymentID)
	}
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now()
	}
	copied := *reservation
	r.byPayment[reservation.PaymentID] = &copied
	return nil
}

func (r *fakeReservationRepo) GetByPaymentID(ctx context.Context, paymentID string) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byPayment[paymentID]
	if !ok {
		return nil, ErrReservationNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *fakeReservationRepo) ResolveFromPending(ctx context.Context, paymentID string, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byPayment[paymentID]
	if !ok || res.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	res.Status = to
	res.ResolvedAt = &now
	return true, nil
}

func (r *fakeReservationRepo) Reopen(ctx context.Context, paymentID string, from Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byPayment[paymentID]
	if !ok || res.Status != from {
		return ErrReservationNotFound
	}
	res.Status = StatusPending
	res.ResolvedAt = nil
	return nil
}

func (r *fakeReservationRepo) ListStalePending(ctx context.Context, cutoff time.Time) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []Reservation
	for _, res := range r.byPayment {
		if res.Status == StatusPending && res.CreatedAt.Before(cutoff) {
			stale = append(stale, *res)
		}
	}
	return stale, nil
}

func (r *fakeReservationRepo) status(paymentID string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byPayment[paymentID].Status
}

// fakeGateway is an in-memory payment provider
type fakeGateway struct {
	mu        sync.Mutex
	payments  map[string]*payments.Payment
	redirects map[string]string
	nextID    int
	createErr error
	getErr    error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		payments:  make(map[string]*payments.Payment),
		redirects: make(map[string]string),
	}
}

func (g *fakeGateway) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, g.createErr
	}

	g.nextID++
	id := fmt.Sprintf("tr_test_%d", g.nextID)
	g.payments[id] = &payments.Payment{
		ID:          id,
		Status:      payments.StatusOpen,
		Amount:      req.Amount,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	return &payments.Checkout{
		PaymentID:   id,
		CheckoutURL: "https://checkout.test/" + id,
	}, nil
}

func (g *fakeGateway) GetPayment(ctx context.Context, paymentID string) (*payments.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.getErr != nil {
		return nil, g.getErr
	}
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, payments.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (g *fakeGateway) UpdateRedirectURL(ctx context.Context, paymentID, redirectURL string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.redirects[paymentID] = redirectURL
	return nil
}

func (g *fakeGateway) setStatus(paymentID string, status payments.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[paymentID].Status = status
}

func (g *fakeGateway) addPayment(p *payments.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

// fakeDispatcher records notification calls
type fakeDispatcher struct {
	mu       sync.Mutex
	outcomes []notifications.BookingOutcome
	result   bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{result: true}
}

func (d *fakeDispatcher) Notify(ctx context.Context, outcome notifications.BookingOutcome) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes = append(d.outcomes, outcome)
	return d.result
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.outcomes)
}

// fakeCache is an in-memory cache.Service
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return fmt.Errorf("cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.data[key] = raw
	return true, nil
}

func (c *fakeCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	value, err := fetcher()
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.Get(ctx, key, dest)
}

func (c *fakeCache) Ping(ctx context.Context) error {
	return nil
}
