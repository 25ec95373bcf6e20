package recommend

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain/course"
)

// CatalogReader supplies the full course catalog as one snapshot.
type CatalogReader interface {
	List(ctx context.Context) ([]course.Course, error)
}
