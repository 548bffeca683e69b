package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrPeriodNotFound = errors.New("period not found")

	// ErrStoreConflict means a concurrent writer changed the record between
	// read and conditional write. Callers recompute against fresh state.
	ErrStoreConflict = errors.New("store conflict: record changed since read")
)

type Repository interface {
	ListCourses(ctx context.Context, includeHidden bool) ([]Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*Course, error)

	// ReplacePeriods atomically replaces the full period sequence of a course.
	// Every incoming period that already exists must carry the version it was
	// read at; a mismatch fails the whole replacement with ErrStoreConflict.
	ReplacePeriods(ctx context.Context, courseID uuid.UUID, periods []Period) (*Course, error)

	// UpdatePeriodCounts conditionally writes the period's counter fields.
	// The write only lands when the stored version still equals p.Version;
	// otherwise ErrStoreConflict is returned and nothing is written. On
	// success p.Version is advanced to the stored value.
	UpdatePeriodCounts(ctx context.Context, p *Period) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListCourses(ctx context.Context, includeHidden bool) ([]Course, error) {
	var courses []Course

	query := r.db.WithContext(ctx).
		Preload("Periods", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, start_date ASC")
		}).
		Order("created_at ASC")

	if !includeHidden {
		query = query.Where("hidden = ?", false)
	}

	if err := query.Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, nil
}

func (r *repository) GetCourse(ctx context.Context, id uuid.UUID) (*Course, error) {
	var course Course
	err := r.db.WithContext(ctx).
		Preload("Periods", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, start_date ASC")
		}).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

func (r *repository) ReplacePeriods(ctx context.Context, courseID uuid.UUID, periods []Period) (*Course, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course Course
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", courseID).
			First(&course).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("failed to lock course: %w", err)
		}

		// Version check against the currently stored periods. Periods the
		// caller read before a concurrent counter update fail the whole
		// replacement rather than silently overwriting fresher counts.
		var current []Period
		if err := tx.Where("course_id = ?", courseID).Find(&current).Error; err != nil {
			return fmt.Errorf("failed to load periods: %w", err)
		}
		stored := make(map[uuid.UUID]int64, len(current))
		for _, p := range current {
			stored[p.ID] = p.Version
		}
		for i := range periods {
			if v, ok := stored[periods[i].ID]; ok && v != periods[i].Version {
				return ErrStoreConflict
			}
		}

		if err := tx.Where("course_id = ?", courseID).Delete(&Period{}).Error; err != nil {
			return fmt.Errorf("failed to clear periods: %w", err)
		}

		for i := range periods {
			periods[i].CourseID = courseID
			periods[i].SortOrder = i
			periods[i].Version++
		}
		if len(periods) > 0 {
			if err := tx.Create(&periods).Error; err != nil {
				return fmt.Errorf("failed to insert periods: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetCourse(ctx, courseID)
}

func (r *repository) UpdatePeriodCounts(ctx context.Context, p *Period) error {
	res := r.db.WithContext(ctx).Model(&Period{}).
		Where("id = ? AND course_id = ? AND version = ?", p.ID, p.CourseID, p.Version).
		Updates(map[string]interface{}{
			"booked_spots":         p.BookedSpots,
			"pending_reservations": p.PendingReservations,
			"version":              p.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update period counts: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStoreConflict
	}

	p.Version++
	return nil
}
