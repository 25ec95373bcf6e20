package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
)

// DefaultMaxImportSize caps the number of courses in one import.
const DefaultMaxImportSize = 1000

// ImportItem is one course in a bulk import. An empty ID gets a generated UUID.
type ImportItem struct {
	ID            string
	Title         string
	Category      string
	Tags          []string
	Rating        float64
	EnrolledCount int64
}

// Service manages the course catalog.
type Service struct {
	repo          Repository
	maxImportSize int
	newID         func() string
}

// New creates a catalog service.
func New(repo Repository) *Service {
	return &Service{
		repo:          repo,
		maxImportSize: DefaultMaxImportSize,
		newID:         func() string { return uuid.NewString() },
	}
}

// WithMaxImportSize overrides the import size cap.
func (s *Service) WithMaxImportSize(n int) *Service {
	if n > 0 {
		s.maxImportSize = n
	}
	return s
}

// Upsert validates and stores a course. Returns true if created.
func (s *Service) Upsert(ctx context.Context, id, title, category string, tags []string, rating float64, enrolled int64) (
	course.Course, bool, error,
) {
	c, err := course.New(id, title, category, tags, rating, enrolled)
	if err != nil {
		return course.Course{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidCourse, err)
	}

	created, err := s.repo.Upsert(ctx, &c)
	if err != nil {
		return course.Course{}, false, fmt.Errorf("upsert course: %w", err)
	}
	return c, created, nil
}

// Get returns a course by ID.
func (s *Service) Get(ctx context.Context, id string) (course.Course, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return course.Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]course.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Delete removes a course.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// Import validates every item and stores them in one round-trip.
// The first invalid item rejects the whole import before anything is written.
func (s *Service) Import(ctx context.Context, items []ImportItem) ([]course.Course, error) {
	courses, err := s.Prepare(items)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return courses, nil
	}

	if err := s.repo.UpsertMany(ctx, courses); err != nil {
		return nil, fmt.Errorf("import courses: %w", err)
	}
	return courses, nil
}

// Prepare validates import items and assigns IDs without storing anything.
func (s *Service) Prepare(items []ImportItem) ([]course.Course, error) {
	if len(items) > s.maxImportSize {
		return nil, fmt.Errorf("%w: import of %d courses exceeds limit %d",
			domain.ErrInvalidCourse, len(items), s.maxImportSize)
	}

	courses := make([]course.Course, len(items))
	seen := make(map[string]int, len(items))
	for i, it := range items {
		id := it.ID
		if id == "" {
			id = s.newID()
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: item %d: duplicate id %q (first at item %d)",
				domain.ErrInvalidCourse, i, id, prev)
		}
		seen[id] = i

		c, err := course.New(id, it.Title, it.Category, it.Tags, it.Rating, it.EnrolledCount)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", domain.ErrInvalidCourse, i, err)
		}
		courses[i] = c
	}
	return courses, nil
}
