package course

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/courserec/internal/db"
	"github.com/kailas-cloud/courserec/internal/domain"
	domcourse "github.com/kailas-cloud/courserec/internal/domain/course"
)

// DefaultKeyPrefix is the key namespace used when none is configured.
const DefaultKeyPrefix = "courserec:"

// store is the consumer interface for courses (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores one hash per course under <prefix>course:<id>.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a course repository. An empty prefix uses DefaultKeyPrefix.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Upsert creates or replaces a course. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, c *domcourse.Course) (bool, error) {
	key := r.courseKey(c.ID())
	fields, err := buildHashFields(c)
	if err != nil {
		return false, fmt.Errorf("encode course %s: %w", c.ID(), err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	// HSET only overwrites the listed fields; every field is always written.
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}
	return !exists, nil
}

// UpsertMany stores courses in one pipelined round-trip.
func (r *Repo) UpsertMany(ctx context.Context, courses []domcourse.Course) error {
	if len(courses) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(courses))
	for i := range courses {
		fields, err := buildHashFields(&courses[i])
		if err != nil {
			return fmt.Errorf("encode course %s: %w", courses[i].ID(), err)
		}
		items[i] = db.HashSetItem{Key: r.courseKey(courses[i].ID()), Fields: fields}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi (%d courses): %w", len(courses), err)
	}
	return nil
}

// Get returns a course by ID.
func (r *Repo) Get(ctx context.Context, id string) (domcourse.Course, error) {
	key := r.courseKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcourse.Course{}, domain.ErrCourseNotFound
		}
		return domcourse.Course{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domcourse.Course{}, domain.ErrCourseNotFound
	}
	return parseHashFields(id, m), nil
}

// List returns the whole catalog sorted by ID, so the snapshot order is
// stable across calls regardless of SCAN order.
func (r *Repo) List(ctx context.Context) ([]domcourse.Course, error) {
	keys, err := r.store.Scan(ctx, r.courseKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan courses: %w", err)
	}
	if len(keys) == 0 {
		return []domcourse.Course{}, nil
	}
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall courses: %w", err)
	}

	courses := make([]domcourse.Course, 0, len(keys))
	for i, m := range hashes {
		// Deleted between SCAN and HGETALL.
		if len(m) == 0 {
			continue
		}
		courses = append(courses, parseHashFields(r.extractID(keys[i]), m))
	}
	return courses, nil
}

// Delete removes a course.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.courseKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrCourseNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) courseKey(id string) string {
	return r.keyPrefix + "course:" + id
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, r.keyPrefix+"course:")
}
