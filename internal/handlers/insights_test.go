package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/balubo/insight-api/internal/cache"
	"github.com/balubo/insight-api/internal/database"
	"github.com/balubo/insight-api/internal/models"
	"github.com/balubo/insight-api/internal/queue"
	"github.com/balubo/insight-api/internal/request"
)

type mockInsightRepo struct {
	mu          sync.Mutex
	getFunc     func(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error)
	upsertFunc  func(ctx context.Context, record *models.InsightRecord) error
	getCalls    int
	upsertCalls int
}

func (m *mockInsightRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error) {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return nil, database.ErrNotFound
}

func (m *mockInsightRepo) Upsert(ctx context.Context, record *models.InsightRecord) error {
	m.mu.Lock()
	m.upsertCalls++
	m.mu.Unlock()
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, record)
	}
	return nil
}

type mockComputer struct {
	computeFunc func(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error)
}

func (m *mockComputer) ComputeInsights(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error) {
	if m.computeFunc != nil {
		return m.computeFunc(ctx, userID)
	}
	return &models.InsightRecord{UserID: userID}, nil
}

type mockCache struct {
	mu              sync.Mutex
	getFunc         func(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error)
	setCalls        int
	invalidateCalls int
}

func (m *mockCache) Get(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return nil, cache.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, record *models.InsightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = m.setCalls + 1
	return nil
}

func (m *mockCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateCalls++
	return nil
}

type mockJobQueue struct {
	mu          sync.Mutex
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	enqueued    []*queue.Job
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.mu.Lock()
	m.enqueued = append(m.enqueued, job)
	m.mu.Unlock()
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

func newTestRouter(h *InsightHandler) *mux.Router {
	r := mux.NewRouter()
	sub := r.PathPrefix("/api/v1/users/{userID}/insights").Subrouter()
	h.RegisterRoutes(sub)
	return r
}

func requestAs(method, path string, principal *models.Principal) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	if principal != nil {
		r = r.WithContext(request.WithPrincipal(r.Context(), principal))
	}
	return r
}

func TestGetInsights_CacheMissThenDB(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	record := &models.InsightRecord{UserID: userID, Specialties: []string{"Writing"}}

	repo := &mockInsightRepo{
		getFunc: func(ctx context.Context, id uuid.UUID) (*models.InsightRecord, error) {
			if id != userID {
				t.Errorf("unexpected user ID %s", id)
			}
			return record, nil
		},
	}
	c := &mockCache{}

	h := NewInsightHandler(repo, &mockComputer{}, nil, c, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("GET", "/api/v1/users/"+userID.String()+"/insights", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if repo.getCalls != 1 {
		t.Errorf("Expected 1 repo call, got %d", repo.getCalls)
	}
	if c.setCalls != 1 {
		t.Errorf("Expected cache to be populated, setCalls = %d", c.setCalls)
	}

	var body struct {
		Success bool                 `json:"success"`
		Data    models.InsightRecord `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.Success {
		t.Error("Expected success to be true")
	}
	if len(body.Data.Specialties) != 1 || body.Data.Specialties[0] != "Writing" {
		t.Errorf("Unexpected specialties: %v", body.Data.Specialties)
	}
}

func TestGetInsights_CacheHitSkipsDB(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cached := &models.InsightRecord{UserID: userID}

	repo := &mockInsightRepo{}
	c := &mockCache{
		getFunc: func(ctx context.Context, id uuid.UUID) (*models.InsightRecord, error) {
			return cached, nil
		},
	}

	h := NewInsightHandler(repo, &mockComputer{}, nil, c, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("GET", "/api/v1/users/"+userID.String()+"/insights", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if repo.getCalls != 0 {
		t.Errorf("Expected no repo calls on cache hit, got %d", repo.getCalls)
	}
}

func TestGetInsights_NotFound(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockInsightRepo{}

	h := NewInsightHandler(repo, &mockComputer{}, nil, nil, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("GET", "/api/v1/users/"+userID.String()+"/insights", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetInsights_InvalidUserID(t *testing.T) {
	t.Parallel()

	h := NewInsightHandler(&mockInsightRepo{}, &mockComputer{}, nil, nil, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("GET", "/api/v1/users/not-a-uuid/insights", &models.Principal{ID: uuid.New()})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetInsights_NoPrincipal(t *testing.T) {
	t.Parallel()

	h := NewInsightHandler(&mockInsightRepo{}, &mockComputer{}, nil, nil, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("GET", "/api/v1/users/"+uuid.New().String()+"/insights", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestGetInsights_OtherUserForbidden(t *testing.T) {
	t.Parallel()

	h := NewInsightHandler(&mockInsightRepo{}, &mockComputer{}, nil, nil, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("GET", "/api/v1/users/"+uuid.New().String()+"/insights", &models.Principal{ID: uuid.New()})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestGetInsights_ServiceRoleAllowed(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &mockInsightRepo{
		getFunc: func(ctx context.Context, id uuid.UUID) (*models.InsightRecord, error) {
			return &models.InsightRecord{UserID: id}, nil
		},
	}

	h := NewInsightHandler(repo, &mockComputer{}, nil, nil, zap.NewNop())
	router := newTestRouter(h)

	principal := &models.Principal{ID: uuid.New(), Role: "service_role"}
	req := requestAs("GET", "/api/v1/users/"+userID.String()+"/insights", principal)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for service role, got %d", w.Code)
	}
}

func TestAnalyzeInsights_ComputesAndCaches(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var computed bool
	computer := &mockComputer{
		computeFunc: func(ctx context.Context, id uuid.UUID) (*models.InsightRecord, error) {
			computed = true
			return &models.InsightRecord{UserID: id}, nil
		},
	}
	c := &mockCache{}

	h := NewInsightHandler(&mockInsightRepo{}, computer, nil, c, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("POST", "/api/v1/users/"+userID.String()+"/insights/analyze", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !computed {
		t.Error("Expected ComputeInsights to be called")
	}
	if c.setCalls != 1 {
		t.Errorf("Expected cache write, setCalls = %d", c.setCalls)
	}
}

func TestAnalyzeInsights_ComputeError(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	computer := &mockComputer{
		computeFunc: func(ctx context.Context, id uuid.UUID) (*models.InsightRecord, error) {
			return nil, errors.New("pipeline failed")
		},
	}

	h := NewInsightHandler(&mockInsightRepo{}, computer, nil, nil, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("POST", "/api/v1/users/"+userID.String()+"/insights/analyze", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestRefreshInsights_EnqueuesDebouncedJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	q := &mockJobQueue{}
	c := &mockCache{}

	h := NewInsightHandler(&mockInsightRepo{}, &mockComputer{}, q, c, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("POST", "/api/v1/users/"+userID.String()+"/insights/refresh", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(q.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued job, got %d", len(q.enqueued))
	}

	job := q.enqueued[0]
	if job.Type != queue.JobTypeInsightAnalysis {
		t.Errorf("Expected job type %s, got %s", queue.JobTypeInsightAnalysis, job.Type)
	}
	if job.UserID != userID {
		t.Errorf("Expected job user ID %s, got %s", userID, job.UserID)
	}
	if job.NotBefore == nil || job.NotBefore.Before(time.Now()) {
		t.Error("Expected NotBefore to be set in the future")
	}
	if job.NotAfter == nil {
		t.Error("Expected NotAfter to be set")
	}
	if c.invalidateCalls != 1 {
		t.Errorf("Expected cache invalidation, invalidateCalls = %d", c.invalidateCalls)
	}
}

func TestRefreshInsights_NoQueue(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	h := NewInsightHandler(&mockInsightRepo{}, &mockComputer{}, nil, nil, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("POST", "/api/v1/users/"+userID.String()+"/insights/refresh", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestRefreshInsights_EnqueueFailure(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	q := &mockJobQueue{
		enqueueFunc: func(ctx context.Context, job *queue.Job) error {
			return errors.New("broker unavailable")
		},
	}

	h := NewInsightHandler(&mockInsightRepo{}, &mockComputer{}, q, nil, zap.NewNop())
	router := newTestRouter(h)

	req := requestAs("POST", "/api/v1/users/"+userID.String()+"/insights/refresh", &models.Principal{ID: userID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}
