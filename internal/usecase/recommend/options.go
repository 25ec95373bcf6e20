package recommend

const (
	// DefaultLimit is the maximum number of courses returned by a ranking.
	DefaultLimit = 5
	// DefaultMinCategoryPool is the same-category pool size below which
	// related ranking falls back to the whole catalog.
	DefaultMinCategoryPool = 5
)

// Options tunes the ranking output size and the related-pool fallback.
type Options struct {
	Limit           int
	MinCategoryPool int
}

// DefaultOptions returns Options{Limit: 5, MinCategoryPool: 5}.
func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, MinCategoryPool: DefaultMinCategoryPool}
}

// normalized replaces non-positive fields with defaults.
func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.MinCategoryPool <= 0 {
		o.MinCategoryPool = DefaultMinCategoryPool
	}
	return o
}
