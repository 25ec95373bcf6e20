package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is the machine-readable error code in error bodies.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeCourseNotFound   ErrorResponseCode = "course_not_found"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// Course is the wire representation of a course.
type Course struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Rating        float64  `json:"rating"`
	EnrolledCount int64    `json:"enrolled_count"`
}

// UpsertCourseRequest is the body of PUT /courses/{courseID}.
type UpsertCourseRequest struct {
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Rating        float64  `json:"rating"`
	EnrolledCount int64    `json:"enrolled_count"`
}

// ImportCourse is one course in an import body. ID is optional.
type ImportCourse struct {
	ID            *string  `json:"id,omitempty"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Rating        float64  `json:"rating"`
	EnrolledCount int64    `json:"enrolled_count"`
}

// ImportCoursesRequest is the body of POST /courses/import.
type ImportCoursesRequest struct {
	Courses []ImportCourse `json:"courses"`
}

// CourseListResponse lists courses.
type CourseListResponse struct {
	Items []Course `json:"items"`
	Total int      `json:"total"`
}

// RecommendationResponse holds a ranking.
type RecommendationResponse struct {
	CourseID *string  `json:"course_id,omitempty"`
	Items    []Course `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ListCoursesParams are the query parameters of GET /courses.
type ListCoursesParams struct {
	// Category filters by normalized category bucket.
	Category *string
}

// RankingParams are the query parameters of ranking endpoints.
type RankingParams struct {
	// Limit truncates the ranking; it never extends past the configured limit.
	Limit *int
}

// ServerInterface is implemented by Server.
type ServerInterface interface {
	ListCourses(w http.ResponseWriter, r *http.Request, params ListCoursesParams)
	ImportCourses(w http.ResponseWriter, r *http.Request)
	GetCourse(w http.ResponseWriter, r *http.Request, courseID string)
	UpsertCourse(w http.ResponseWriter, r *http.Request, courseID string)
	DeleteCourse(w http.ResponseWriter, r *http.Request, courseID string)
	RelatedCourses(w http.ResponseWriter, r *http.Request, courseID string, params RankingParams)
	PopularCourses(w http.ResponseWriter, r *http.Request, params RankingParams)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerOptions configures route registration.
type ServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions registers all routes on the base router.
func HandlerWithOptions(si ServerInterface, options ServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	b := &binder{si: si, onError: options.ErrorHandlerFunc}

	r.Get("/courses", b.listCourses)
	r.Post("/courses/import", si.ImportCourses)
	r.Get("/courses/{courseID}", b.withCourseID(si.GetCourse))
	r.Put("/courses/{courseID}", b.withCourseID(si.UpsertCourse))
	r.Delete("/courses/{courseID}", b.withCourseID(si.DeleteCourse))
	r.Get("/courses/{courseID}/related", b.relatedCourses)
	r.Get("/recommendations/popular", b.popularCourses)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)

	return r
}

// binder decodes path and query parameters before dispatching.
type binder struct {
	si      ServerInterface
	onError func(w http.ResponseWriter, r *http.Request, err error)
}

func (b *binder) courseID(r *http.Request) (string, error) {
	var courseID string
	err := runtime.BindStyledParameterWithOptions("simple", "courseID", chi.URLParam(r, "courseID"), &courseID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", &InvalidParamFormatError{ParamName: "courseID", Err: err}
	}
	return courseID, nil
}

func (b *binder) withCourseID(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := b.courseID(r)
		if err != nil {
			b.onError(w, r, err)
			return
		}
		h(w, r, courseID)
	}
}

func (b *binder) listCourses(w http.ResponseWriter, r *http.Request) {
	var params ListCoursesParams
	if err := runtime.BindQueryParameter("form", true, false, "category", r.URL.Query(), &params.Category); err != nil {
		b.onError(w, r, &InvalidParamFormatError{ParamName: "category", Err: err})
		return
	}
	b.si.ListCourses(w, r, params)
}

func (b *binder) rankingParams(r *http.Request) (RankingParams, error) {
	var params RankingParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		return params, &InvalidParamFormatError{ParamName: "limit", Err: err}
	}
	return params, nil
}

func (b *binder) relatedCourses(w http.ResponseWriter, r *http.Request) {
	courseID, err := b.courseID(r)
	if err != nil {
		b.onError(w, r, err)
		return
	}
	params, err := b.rankingParams(r)
	if err != nil {
		b.onError(w, r, err)
		return
	}
	b.si.RelatedCourses(w, r, courseID, params)
}

func (b *binder) popularCourses(w http.ResponseWriter, r *http.Request) {
	params, err := b.rankingParams(r)
	if err != nil {
		b.onError(w, r, err)
		return
	}
	b.si.PopularCourses(w, r, params)
}
