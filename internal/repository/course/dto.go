package course

import (
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	domcourse "github.com/kailas-cloud/courserec/internal/domain/course"
)

// Hash field names.
const (
	fieldTitle         = "title"
	fieldCategory      = "category"
	fieldTags          = "tags"
	fieldRating        = "rating"
	fieldEnrolledCount = "enrolled_count"
)

// buildHashFields converts a Course into a flat map[string]string for HSET.
// Tags are stored as a JSON array so tags containing separators round-trip.
func buildHashFields(c *domcourse.Course) (map[string]string, error) {
	tags := c.Tags()
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		fieldTitle:         c.Title(),
		fieldCategory:      c.Category(),
		fieldTags:          string(rawTags),
		fieldRating:        strconv.FormatFloat(c.Rating(), 'f', -1, 64),
		fieldEnrolledCount: strconv.FormatInt(c.EnrolledCount(), 10),
	}, nil
}

// parseHashFields hydrates a Course from a stored hash. Malformed fields
// degrade to zero values instead of failing the whole catalog read.
func parseHashFields(id string, m map[string]string) domcourse.Course {
	var tags []string
	if raw := m[fieldTags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			tags = nil
		}
	}

	rating, err := strconv.ParseFloat(m[fieldRating], 64)
	if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
		rating = 0
	}
	enrolled, err := strconv.ParseInt(m[fieldEnrolledCount], 10, 64)
	if err != nil {
		enrolled = 0
	}

	return domcourse.Reconstruct(id, m[fieldTitle], m[fieldCategory], tags, rating, enrolled)
}
