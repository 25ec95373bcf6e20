package catalog

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain/course"
)

// Repository defines the storage contract for the course catalog.
type Repository interface {
	Upsert(ctx context.Context, c *course.Course) (created bool, err error)
	UpsertMany(ctx context.Context, courses []course.Course) error
	Get(ctx context.Context, id string) (course.Course, error)
	List(ctx context.Context) ([]course.Course, error)
	Delete(ctx context.Context, id string) error
}
