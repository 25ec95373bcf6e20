package recommend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/metrics"
)

const (
	opPopular = "popular"
	opRelated = "related"
)

// Service serves rankings over catalog snapshots. It keeps no ranking state
// between calls; a failed catalog fetch yields an empty ranking, never an error.
type Service struct {
	catalog CatalogReader
	opts    Options
	logger  *zap.Logger
}

// New creates a recommendation service. Non-positive option fields use defaults.
func New(catalog CatalogReader, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, opts: opts.normalized(), logger: logger}
}

// Options returns the effective ranking options.
func (s *Service) Options() Options { return s.opts }

// Popular returns the catalog-wide popularity ranking.
func (s *Service) Popular(ctx context.Context) []course.Course {
	courses, ok := s.fetch(ctx, opPopular)
	if !ok {
		return []course.Course{}
	}

	start := time.Now()
	ranked := Popular(courses, s.opts.Limit)
	metrics.RankingDuration.WithLabelValues(opPopular).Observe(time.Since(start).Seconds())

	return ranked
}

// Related returns the courses most related to target.
func (s *Service) Related(ctx context.Context, target course.Course) []course.Course {
	courses, ok := s.fetch(ctx, opRelated)
	if !ok {
		return []course.Course{}
	}
	return s.rankRelated(target, courses)
}

// RelatedByID resolves the target from the same catalog snapshot and ranks
// against it. Fetch failures yield an empty ranking; a target absent from a
// fetched catalog returns domain.ErrCourseNotFound.
func (s *Service) RelatedByID(ctx context.Context, id string) ([]course.Course, error) {
	courses, ok := s.fetch(ctx, opRelated)
	if !ok {
		return []course.Course{}, nil
	}

	for i := range courses {
		if courses[i].ID() == id {
			return s.rankRelated(courses[i], courses), nil
		}
	}
	return nil, domain.ErrCourseNotFound
}

func (s *Service) rankRelated(target course.Course, courses []course.Course) []course.Course {
	start := time.Now()
	ranked, pool := related(target, courses, s.opts)
	metrics.RankingDuration.WithLabelValues(opRelated).Observe(time.Since(start).Seconds())
	metrics.RelatedPoolTotal.WithLabelValues(string(pool)).Inc()

	s.logger.Debug("Related courses ranked",
		zap.String("course_id", target.ID()),
		zap.String("pool", string(pool)),
		zap.Int("catalog_size", len(courses)),
		zap.Int("results", len(ranked)),
	)
	return ranked
}

// fetch loads a catalog snapshot, logging and counting failures.
func (s *Service) fetch(ctx context.Context, op string) ([]course.Course, bool) {
	courses, err := s.catalog.List(ctx)
	if err != nil {
		metrics.CatalogFetchFailuresTotal.WithLabelValues(op).Inc()
		s.logger.Warn("Catalog fetch failed, returning empty ranking",
			zap.String("operation", op),
			zap.Error(err),
		)
		return nil, false
	}
	return courses, true
}
