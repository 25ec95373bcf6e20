package course

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxIDLength is the maximum course ID length.
const MaxIDLength = 128

// Course is a catalog entry (immutable value object).
type Course struct {
	id            string
	title         string
	category      string
	tags          []string
	rating        float64
	enrolledCount int64
}

// New validates and creates a Course.
// ID: ^[a-zA-Z0-9_-]+$, 1-128 chars. Enrolled count must be non-negative.
// Rating range is not enforced.
func New(id, title, category string, tags []string, rating float64, enrolledCount int64) (Course, error) {
	if id == "" {
		return Course{}, fmt.Errorf("course ID is required")
	}
	if len(id) > MaxIDLength {
		return Course{}, fmt.Errorf("course ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Course{}, fmt.Errorf("course ID must be alphanumeric with underscores and hyphens")
	}
	if enrolledCount < 0 {
		return Course{}, fmt.Errorf("enrolled count must be non-negative, got %d", enrolledCount)
	}

	return Course{
		id:            id,
		title:         title,
		category:      category,
		tags:          cloneTags(tags),
		rating:        rating,
		enrolledCount: enrolledCount,
	}, nil
}

// Reconstruct creates a Course without validation (storage hydration).
func Reconstruct(id, title, category string, tags []string, rating float64, enrolledCount int64) Course {
	return Course{
		id: id, title: title, category: category,
		tags: tags, rating: rating, enrolledCount: enrolledCount,
	}
}

// ID returns the course identifier.
func (c *Course) ID() string { return c.id }

// Title returns the display title.
func (c *Course) Title() string { return c.title }

// Category returns the free-text category label.
func (c *Course) Category() string { return c.category }

// Tags returns the tags as authored.
func (c *Course) Tags() []string { return c.tags }

// Rating returns the average rating.
func (c *Course) Rating() float64 { return c.rating }

// EnrolledCount returns the number of enrolled learners.
func (c *Course) EnrolledCount() int64 { return c.enrolledCount }

func cloneTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	c := make([]string, len(tags))
	copy(c, tags)
	return c
}
