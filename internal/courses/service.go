package courses

import (
	"context"
	"fmt"
	"time"

	"kleihaven/pkg/cache"

	"github.com/google/uuid"
)

const courseListCacheKey = "kleihaven:courses:list"

// Service interface defines the contract for course catalog logic
type Service interface {
	ListCourses(ctx context.Context) ([]CourseResponse, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*CourseResponse, error)
	ReplacePeriods(ctx context.Context, courseID uuid.UUID, periods []Period) (*CourseResponse, error)
}

type service struct {
	repo     Repository
	cache    cache.Service
	cacheTTL time.Duration
}

// NewService creates a new course service instance. The cache service may be
// nil, in which case every read goes to the store.
func NewService(repo Repository, cacheService cache.Service, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		cache:    cacheService,
		cacheTTL: cacheTTL,
	}
}

// ListCourses returns the visible course catalog, cache-aside
func (s *service) ListCourses(ctx context.Context) ([]CourseResponse, error) {
	if s.cache == nil {
		courses, err := s.repo.ListCourses(ctx, false)
		if err != nil {
			return nil, err
		}
		return toCourseResponses(courses), nil
	}

	var responses []CourseResponse
	err := s.cache.GetOrSet(ctx, courseListCacheKey, s.cacheTTL, func() (interface{}, error) {
		courses, err := s.repo.ListCourses(ctx, false)
		if err != nil {
			return nil, err
		}
		return toCourseResponses(courses), nil
	}, &responses)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return responses, nil
}

// GetCourse returns a single course with its periods, bypassing the cache so
// availability shown at booking time is current
func (s *service) GetCourse(ctx context.Context, id uuid.UUID) (*CourseResponse, error) {
	course, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toCourseResponse(course)
	return &resp, nil
}

// ReplacePeriods replaces the course's full period sequence
func (s *service) ReplacePeriods(ctx context.Context, courseID uuid.UUID, periods []Period) (*CourseResponse, error) {
	course, err := s.repo.ReplacePeriods(ctx, courseID, periods)
	if err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)

	resp := toCourseResponse(course)
	return &resp, nil
}

// InvalidateCatalog drops the cached catalog; called after counter mutations
func (s *service) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, courseListCacheKey)
}

// InvalidateCatalogCache is exported for collaborators that mutate period
// counters outside this service (ledger, sweep)
func InvalidateCatalogCache(ctx context.Context, cacheService cache.Service) {
	if cacheService == nil {
		return
	}
	_ = cacheService.Delete(ctx, courseListCacheKey)
}
