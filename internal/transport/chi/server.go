package chi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/domain/category"
	domcourse "github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/logger"
	cataloguc "github.com/kailas-cloud/courserec/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

// maxBodyBytes caps request bodies; imports are the largest.
const maxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	catalog       *cataloguc.Service
	recommend     *recommenduc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	metrics       http.Handler
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	catalog *cataloguc.Service,
	recommend *recommenduc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog:   catalog,
		recommend: recommend,
		health:    health,
		logger:    logger,
		metrics:   promhttp.Handler(),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrCourseNotFound, http.StatusNotFound, ErrorResponseCodeCourseNotFound),
		invalidCourseHandler,
	}
	return s
}

// ListCourses handles GET /courses.
func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request, params ListCoursesParams) {
	courses, err := s.catalog.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var bucket string
	if params.Category != nil && *params.Category != "" {
		bucket = category.Normalize(*params.Category)
	}

	items := make([]Course, 0, len(courses))
	for i := range courses {
		if bucket != "" && category.Normalize(courses[i].Category()) != bucket {
			continue
		}
		items = append(items, courseToAPI(&courses[i]))
	}

	writeJSON(w, http.StatusOK, CourseListResponse{Items: items, Total: len(items)})
}

// GetCourse handles GET /courses/{courseID}.
func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	c, err := s.catalog.Get(r.Context(), courseID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courseToAPI(&c))
}

// UpsertCourse handles PUT /courses/{courseID}.
func (s *Server) UpsertCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	var req UpsertCourseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	c, created, err := s.catalog.Upsert(r.Context(),
		courseID, req.Title, req.Category, req.Tags, req.Rating, req.EnrolledCount)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, courseToAPI(&c))
}

// DeleteCourse handles DELETE /courses/{courseID}.
func (s *Server) DeleteCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	if err := s.catalog.Delete(r.Context(), courseID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportCourses handles POST /courses/import.
func (s *Server) ImportCourses(w http.ResponseWriter, r *http.Request) {
	var req ImportCoursesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Courses) == 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "courses must not be empty")
		return
	}

	items := make([]cataloguc.ImportItem, len(req.Courses))
	for i, c := range req.Courses {
		items[i] = importItemFromAPI(c)
	}

	courses, err := s.catalog.Import(r.Context(), items)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logger.FromContextOr(r.Context(), s.logger).Info("Courses imported", zap.Int("count", len(courses)))
	writeJSON(w, http.StatusOK, CourseListResponse{Items: coursesToAPI(courses), Total: len(courses)})
}

// PopularCourses handles GET /recommendations/popular.
func (s *Server) PopularCourses(w http.ResponseWriter, r *http.Request, params RankingParams) {
	if !validLimit(w, params.Limit) {
		return
	}
	ranked := truncate(s.recommend.Popular(r.Context()), params.Limit)
	writeJSON(w, http.StatusOK, RecommendationResponse{Items: coursesToAPI(ranked)})
}

// RelatedCourses handles GET /courses/{courseID}/related.
func (s *Server) RelatedCourses(w http.ResponseWriter, r *http.Request, courseID string, params RankingParams) {
	if !validLimit(w, params.Limit) {
		return
	}
	ranked, err := s.recommend.RelatedByID(r.Context(), courseID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	ranked = truncate(ranked, params.Limit)
	writeJSON(w, http.StatusOK, RecommendationResponse{CourseID: &courseID, Items: coursesToAPI(ranked)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func validLimit(w http.ResponseWriter, limit *int) bool {
	if limit != nil && *limit < 1 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "limit must be positive")
		return false
	}
	return true
}

func truncate(courses []domcourse.Course, limit *int) []domcourse.Course {
	if limit != nil && *limit < len(courses) {
		return courses[:*limit]
	}
	return courses
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrCourseNotFound,
		domain.ErrInvalidCourse,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidCourseHandler reports validation failures with their detail.
// Validation messages carry only client input, never storage internals.
func invalidCourseHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidCourse) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func courseToAPI(c *domcourse.Course) Course {
	tags := c.Tags()
	if tags == nil {
		tags = []string{}
	}
	return Course{
		ID:            c.ID(),
		Title:         c.Title(),
		Category:      c.Category(),
		Tags:          tags,
		Rating:        c.Rating(),
		EnrolledCount: c.EnrolledCount(),
	}
}

func coursesToAPI(courses []domcourse.Course) []Course {
	items := make([]Course, len(courses))
	for i := range courses {
		items[i] = courseToAPI(&courses[i])
	}
	return items
}

func importItemFromAPI(c ImportCourse) cataloguc.ImportItem {
	var id string
	if c.ID != nil {
		id = *c.ID
	}
	return cataloguc.ImportItem{
		ID:            id,
		Title:         c.Title,
		Category:      c.Category,
		Tags:          c.Tags,
		Rating:        c.Rating,
		EnrolledCount: c.EnrolledCount,
	}
}
