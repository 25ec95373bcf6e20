package course

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	tags := []string{"go", "web"}
	c, err := New("go-101", "Go Basics", "Programming", tags, 4.5, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "go-101" {
		t.Errorf("expected ID go-101, got %s", c.ID())
	}
	if c.Title() != "Go Basics" {
		t.Errorf("expected title Go Basics, got %s", c.Title())
	}
	if c.Category() != "Programming" {
		t.Errorf("expected category Programming, got %s", c.Category())
	}
	if c.Rating() != 4.5 {
		t.Errorf("expected rating 4.5, got %f", c.Rating())
	}
	if c.EnrolledCount() != 120 {
		t.Errorf("expected enrolled 120, got %d", c.EnrolledCount())
	}

	// Tags are copied on construction.
	tags[0] = "mutated"
	if c.Tags()[0] != "go" {
		t.Errorf("tags must not alias caller slice, got %v", c.Tags())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		enrolled int64
	}{
		{"empty id", "", 0},
		{"too long", strings.Repeat("a", MaxIDLength+1), 0},
		{"bad chars", "go 101", 0},
		{"slash", "a/b", 0},
		{"negative enrolled", "ok", -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.id, "", "", nil, 0, tc.enrolled); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_RatingNotEnforced(t *testing.T) {
	if _, err := New("c1", "", "", nil, 7.5, 0); err != nil {
		t.Fatalf("rating outside [0,5] must be accepted: %v", err)
	}
}

func TestReconstruct_NoValidation(t *testing.T) {
	c := Reconstruct("", "", "", nil, -1, -5)
	if c.ID() != "" || c.EnrolledCount() != -5 {
		t.Errorf("unexpected course: %+v", c)
	}
}
