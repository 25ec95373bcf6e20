package recommend

import (
	"sort"

	"github.com/kailas-cloud/courserec/internal/domain/category"
	"github.com/kailas-cloud/courserec/internal/domain/course"
)

// categoryBonus is added when a candidate shares the target's canonical category.
const categoryBonus = 2.0

// maxRating scales the rating term into [0, 1] for in-range ratings.
const maxRating = 5.0

// Pool identifies which candidate pool Related ranked.
type Pool string

const (
	// PoolCategory means only same-category courses were ranked.
	PoolCategory Pool = "category"
	// PoolFallback means the category pool was too small and the whole catalog was ranked.
	PoolFallback Pool = "fallback"
)

// scored pairs a candidate with its related score.
type scored struct {
	score  float64
	course course.Course
}

// Popular ranks courses by rating, then enrolled count, both descending.
// Equal keys keep input order. The input slice is not reordered.
func Popular(courses []course.Course, limit int) []course.Course {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := make([]course.Course, len(courses))
	copy(ranked, courses)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating() != ranked[j].Rating() {
			return ranked[i].Rating() > ranked[j].Rating()
		}
		return ranked[i].EnrolledCount() > ranked[j].EnrolledCount()
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Related ranks the courses most related to target. The target itself
// (matched by ID) is never returned.
func Related(target course.Course, all []course.Course, opts Options) []course.Course {
	ranked, _ := related(target, all, opts)
	return ranked
}

// related is Related that also reports which pool was used.
func related(target course.Course, all []course.Course, opts Options) ([]course.Course, Pool) {
	opts = opts.normalized()
	targetCat := category.Normalize(target.Category())

	// Normalize each candidate's category once; the slice index matches all.
	cats := make([]string, len(all))
	var pool []int
	for i := range all {
		if all[i].ID() == target.ID() {
			continue
		}
		cats[i] = category.Normalize(all[i].Category())
		if cats[i] == targetCat {
			pool = append(pool, i)
		}
	}

	used := PoolCategory
	if len(pool) < opts.MinCategoryPool {
		used = PoolFallback
		pool = pool[:0]
		for i := range all {
			if all[i].ID() != target.ID() {
				pool = append(pool, i)
			}
		}
	}

	candidates := make([]scored, 0, len(pool))
	for _, i := range pool {
		c := all[i]
		s := TagOverlap(target.Tags(), c.Tags()) + c.Rating()/maxRating
		if cats[i] == targetCat {
			s += categoryBonus
		}
		candidates = append(candidates, scored{score: s, course: c})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	out := make([]course.Course, len(candidates))
	for i, c := range candidates {
		out[i] = c.course
	}
	return out, used
}
