package chi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	domcourse "github.com/kailas-cloud/courserec/internal/domain/course"
	cataloguc "github.com/kailas-cloud/courserec/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
)

// --- Fakes ---

type memRepo struct {
	mu      sync.Mutex
	courses map[string]domcourse.Course
	listErr error
}

func newMemRepo() *memRepo {
	return &memRepo{courses: make(map[string]domcourse.Course)}
}

func (m *memRepo) Upsert(_ context.Context, c *domcourse.Course) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.courses[c.ID()]
	m.courses[c.ID()] = *c
	return !exists, nil
}

func (m *memRepo) UpsertMany(_ context.Context, courses []domcourse.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range courses {
		m.courses[courses[i].ID()] = courses[i]
	}
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (domcourse.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return domcourse.Course{}, domain.ErrCourseNotFound
	}
	return c, nil
}

func (m *memRepo) List(_ context.Context) ([]domcourse.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domcourse.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return domain.ErrCourseNotFound
	}
	delete(m.courses, id)
	return nil
}

type stubPinger struct{ err error }

func (p *stubPinger) Ping(_ context.Context) error { return p.err }

// --- Helpers ---

type testEnv struct {
	repo    *memRepo
	pinger  *stubPinger
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newMemRepo()
	pinger := &stubPinger{}

	srv := NewServer(
		cataloguc.New(repo),
		recommenduc.New(repo, recommenduc.DefaultOptions(), zap.NewNop()),
		healthuc.New(pinger, nil),
		zap.NewNop(),
	)
	h := HandlerWithOptions(srv, ServerOptions{BaseRouter: chi.NewRouter()})
	return &testEnv{repo: repo, pinger: pinger, handler: h}
}

func (e *testEnv) seed(t *testing.T, courses ...domcourse.Course) {
	t.Helper()
	if err := e.repo.UpsertMany(context.Background(), courses); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func mk(id, cat string, tags []string, rating float64, enrolled int64) domcourse.Course {
	return domcourse.Reconstruct(id, "Course "+id, cat, tags, rating, enrolled)
}

func itemIDs(items []Course) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return out
}

// --- Catalog CRUD ---

func TestCourseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	body := UpsertCourseRequest{Title: "Go", Category: "Backend Programming", Tags: []string{"go"}, Rating: 4.5, EnrolledCount: 7}

	rr := env.do(t, http.MethodPut, "/courses/go-101", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want %d", rr.Code, http.StatusCreated)
	}

	rr = env.do(t, http.MethodPut, "/courses/go-101", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d, want %d", rr.Code, http.StatusOK)
	}

	rr = env.do(t, http.MethodGet, "/courses/go-101", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: got %d", rr.Code)
	}
	got := decode[Course](t, rr)
	if got.ID != "go-101" || got.EnrolledCount != 7 || len(got.Tags) != 1 {
		t.Errorf("unexpected course: %+v", got)
	}

	rr = env.do(t, http.MethodDelete, "/courses/go-101", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/courses/go-101", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorResponseCodeCourseNotFound {
		t.Errorf("error code: got %s", e.Code)
	}
}

func TestUpsertCourse_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/courses/c1", UpsertCourseRequest{EnrolledCount: -1})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorResponseCodeValidationFailed {
		t.Errorf("error code: got %s", e.Code)
	}
}

func TestUpsertCourse_BadBody(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/courses/c1", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorResponseCodeBadRequest {
		t.Errorf("error code: got %s", e.Code)
	}
}

func TestDeleteCourse_NotFound(t *testing.T) {
	env := newTestEnv(t)

	if rr := env.do(t, http.MethodDelete, "/courses/ghost", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestListCourses_CategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		mk("a", "Flutter Basics", nil, 4, 1),
		mk("b", "Android Development", nil, 4, 1),
		mk("c", "UX Design", nil, 4, 1),
	)

	rr := env.do(t, http.MethodGet, "/courses", nil)
	if all := decode[CourseListResponse](t, rr); all.Total != 3 {
		t.Fatalf("expected 3 courses, got %d", all.Total)
	}

	// "Android Development" hits the development bucket first.
	rr = env.do(t, http.MethodGet, "/courses?category=mobile", nil)
	list := decode[CourseListResponse](t, rr)
	if list.Total != 1 || list.Items[0].ID != "a" {
		t.Errorf("unexpected filtered list: %v", itemIDs(list.Items))
	}
}

func TestImportCourses(t *testing.T) {
	env := newTestEnv(t)
	id := "keep"

	rr := env.do(t, http.MethodPost, "/courses/import", ImportCoursesRequest{Courses: []ImportCourse{
		{ID: &id, Title: "Kept", Category: "Cloud"},
		{Title: "Generated", Category: "Design"},
	}})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[CourseListResponse](t, rr)
	if resp.Total != 2 || resp.Items[0].ID != "keep" {
		t.Fatalf("unexpected import response: %+v", resp)
	}
	if _, err := uuid.Parse(resp.Items[1].ID); err != nil {
		t.Errorf("expected generated uuid, got %q", resp.Items[1].ID)
	}
	if len(env.repo.courses) != 2 {
		t.Errorf("expected 2 stored courses, got %d", len(env.repo.courses))
	}
}

func TestImportCourses_Empty(t *testing.T) {
	env := newTestEnv(t)

	if rr := env.do(t, http.MethodPost, "/courses/import", ImportCoursesRequest{}); rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestImportCourses_InvalidItem(t *testing.T) {
	env := newTestEnv(t)
	bad := "no spaces allowed"

	rr := env.do(t, http.MethodPost, "/courses/import", ImportCoursesRequest{Courses: []ImportCourse{
		{Title: "fine"},
		{ID: &bad},
	}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if len(env.repo.courses) != 0 {
		t.Error("rejected import must not store anything")
	}
}

// --- Rankings ---

func seedPopular(t *testing.T, env *testEnv) {
	env.seed(t,
		mk("c1", "Web", nil, 4.9, 100),
		mk("c2", "Web", nil, 4.5, 1000),
		mk("c3", "Web", nil, 4.9, 500),
		mk("c4", "Web", nil, 3.0, 10),
		mk("c5", "Web", nil, 4.7, 50),
		mk("c6", "Web", nil, 2.0, 5),
		mk("c7", "Web", nil, 4.0, 70),
	)
}

func TestPopularCourses(t *testing.T) {
	env := newTestEnv(t)
	seedPopular(t, env)

	rr := env.do(t, http.MethodGet, "/recommendations/popular", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	resp := decode[RecommendationResponse](t, rr)
	want := []string{"c3", "c1", "c5", "c2", "c7"}
	got := itemIDs(resp.Items)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestPopularCourses_Limit(t *testing.T) {
	env := newTestEnv(t)
	seedPopular(t, env)

	resp := decode[RecommendationResponse](t, env.do(t, http.MethodGet, "/recommendations/popular?limit=2", nil))
	if len(resp.Items) != 2 || resp.Items[0].ID != "c3" {
		t.Errorf("unexpected items: %v", itemIDs(resp.Items))
	}

	// Limit never extends past the configured ranking size.
	resp = decode[RecommendationResponse](t, env.do(t, http.MethodGet, "/recommendations/popular?limit=50", nil))
	if len(resp.Items) != 5 {
		t.Errorf("expected 5 items, got %d", len(resp.Items))
	}
}

func TestPopularCourses_BadLimit(t *testing.T) {
	env := newTestEnv(t)

	if rr := env.do(t, http.MethodGet, "/recommendations/popular?limit=0", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("limit=0: got %d, want 400", rr.Code)
	}
	rr := env.do(t, http.MethodGet, "/recommendations/popular?limit=abc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("limit=abc: got %d, want 400", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorResponseCodeBadRequest {
		t.Errorf("error code: got %s", e.Code)
	}
}

func TestPopularCourses_CatalogDown(t *testing.T) {
	env := newTestEnv(t)
	seedPopular(t, env)
	env.repo.listErr = errors.New("connection refused")

	rr := env.do(t, http.MethodGet, "/recommendations/popular", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if resp := decode[RecommendationResponse](t, rr); len(resp.Items) != 0 {
		t.Errorf("expected empty ranking, got %v", itemIDs(resp.Items))
	}
}

func TestRelatedCourses(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		mk("t", "Flutter Development", []string{"dart", "flutter"}, 4.0, 1),
		mk("m1", "Mobile", []string{"flutter"}, 4.0, 1),
		mk("d1", "Web Development", []string{"dart", "flutter"}, 5.0, 1),
		mk("s1", "Cyber Security", nil, 1.0, 1),
	)

	rr := env.do(t, http.MethodGet, "/courses/t/related", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	resp := decode[RecommendationResponse](t, rr)
	if resp.CourseID == nil || *resp.CourseID != "t" {
		t.Errorf("expected course_id t, got %v", resp.CourseID)
	}
	// Only d1 shares the development bucket, so the pool falls back to the
	// whole catalog: d1 = 2 + 2 + 1.0, m1 = 1 + 0.8, s1 = 0.2.
	got := itemIDs(resp.Items)
	want := []string{"d1", "m1", "s1"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRelatedCourses_UnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, mk("a", "Design", nil, 4, 1))

	rr := env.do(t, http.MethodGet, "/courses/ghost/related", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestRelatedCourses_CatalogDown(t *testing.T) {
	env := newTestEnv(t)
	env.repo.listErr = errors.New("timeout")

	rr := env.do(t, http.MethodGet, "/courses/anything/related", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if resp := decode[RecommendationResponse](t, rr); len(resp.Items) != 0 {
		t.Errorf("expected empty ranking, got %v", itemIDs(resp.Items))
	}
}

// --- Health & metrics ---

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	if h := decode[HealthResponse](t, rr); h.Status != "ok" || h.Checks["database"] != "ok" {
		t.Errorf("unexpected health: %+v", h)
	}

	env.pinger.err = errors.New("down")
	rr = env.do(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	// The database is the only check configured here, so its failure is total.
	if h := decode[HealthResponse](t, rr); h.Status != "error" || h.Checks["database"] != "error" {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	if rr := env.do(t, http.MethodGet, "/metrics", nil); rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
}
