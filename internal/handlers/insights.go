package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/balubo/insight-api/internal/cache"
	"github.com/balubo/insight-api/internal/database"
	"github.com/balubo/insight-api/internal/insight"
	logpkg "github.com/balubo/insight-api/internal/logger"
	"github.com/balubo/insight-api/internal/models"
	"github.com/balubo/insight-api/internal/queue"
	"github.com/balubo/insight-api/internal/request"
	"github.com/balubo/insight-api/internal/validation"
)

const (
	// RefreshDebounce delays background refresh jobs so bursts of tag edits
	// collapse into one recompute
	RefreshDebounce = 30 * time.Second
	// RefreshDeadline expires refresh jobs that sat in the queue too long
	RefreshDeadline = 1 * time.Hour
)

// InsightComputer runs the synchronous analysis pipeline
type InsightComputer interface {
	ComputeInsights(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error)
}

// InsightCache is the read/write cache the handler consults before the database
type InsightCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error)
	Set(ctx context.Context, record *models.InsightRecord) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// InsightHandler handles insight-related requests
type InsightHandler struct {
	insightRepo database.InsightRepositoryInterface
	computer    InsightComputer
	jobQueue    queue.JobQueue
	cache       InsightCache
	logger      *zap.Logger
}

// NewInsightHandler creates a new insight handler. jobQueue and cache may be
// nil; refresh then degrades to 503 and reads always hit the database.
func NewInsightHandler(insightRepo database.InsightRepositoryInterface, computer InsightComputer, jobQueue queue.JobQueue, insightCache InsightCache, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{
		insightRepo: insightRepo,
		computer:    computer,
		jobQueue:    jobQueue,
		cache:       insightCache,
		logger:      logger,
	}
}

// RegisterRoutes registers insight routes on the given router.
// The router should already carry the /users/{userID}/insights prefix.
func (h *InsightHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetInsights).Methods("GET")
	r.HandleFunc("/analyze", h.AnalyzeInsights).Methods("POST")
	r.HandleFunc("/refresh", h.RefreshInsights).Methods("POST")
}

// userIDFromRequest validates the path parameter and checks the caller may
// access that user's insights.
func (h *InsightHandler) userIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := validation.ParseUserID(mux.Vars(r)["userID"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return uuid.Nil, false
	}

	principal := request.PrincipalFromContext(r)
	if principal == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Principal not found in context")
		return uuid.Nil, false
	}
	if principal.ID != userID && !principal.IsService() {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Cannot access insights of another user")
		return uuid.Nil, false
	}

	return userID, true
}

// GetInsights returns the stored insight record for a user
func (h *InsightHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	if h.cache != nil {
		if record, err := h.cache.Get(ctx, userID); err == nil {
			respondJSON(w, http.StatusOK, record)
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("insight_cache_read_failed",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	record, err := h.insightRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "No insights computed for this user yet")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve insights")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, record); err != nil {
			h.logger.Warn("insight_cache_write_failed",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	respondJSON(w, http.StatusOK, record)
}

// AnalyzeInsights recomputes insights synchronously and returns the record
func (h *InsightHandler) AnalyzeInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDFromRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	record, err := h.computer.ComputeInsights(ctx, userID)
	if err != nil {
		if errors.Is(err, insight.ErrInvalidUserID) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to analyze works")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, record); err != nil {
			h.logger.Warn("insight_cache_write_failed",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	respondJSON(w, http.StatusOK, record)
}

// RefreshInsights enqueues a debounced background recompute
func (h *InsightHandler) RefreshInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDFromRequest(w, r)
	if !ok {
		return
	}

	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background refresh is not available")
		return
	}

	job := queue.NewJob(queue.JobTypeInsightAnalysis, userID)
	notBefore := time.Now().Add(RefreshDebounce)
	notAfter := time.Now().Add(RefreshDeadline)
	job.NotBefore = &notBefore
	job.NotAfter = &notAfter

	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("refresh_enqueue_failed",
			zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to enqueue refresh")
		return
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context(), userID); err != nil {
			h.logger.Warn("insight_cache_invalidate_failed",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.ID,
		"status": "queued",
	})
}
