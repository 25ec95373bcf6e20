package domain

import "errors"

var (
	// ErrCourseNotFound signals a missing course.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidCourse signals a course that failed validation.
	ErrInvalidCourse = errors.New("invalid course")
)
