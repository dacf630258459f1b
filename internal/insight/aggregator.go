package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/balubo/insight-api/internal/database"
	logpkg "github.com/balubo/insight-api/internal/logger"
	"github.com/balubo/insight-api/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SummaryEnricher rewrites the template summary sentences of a record with
// model-generated text. Implementations must leave levels and top lists
// untouched; on error the caller keeps the template text.
type SummaryEnricher interface {
	EnrichRecord(ctx context.Context, record *models.InsightRecord) error
}

// Aggregator runs the full insight pipeline for one user: fetch works,
// count and classify tags, cluster co-occurrences, summarize, persist.
// A single run is strictly sequential; concurrent runs for different
// users share no mutable state.
type Aggregator struct {
	workRepo    database.WorkRepositoryInterface
	insightRepo database.InsightRepositoryInterface
	enricher    SummaryEnricher
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithEnricher attaches an optional summary enricher.
func WithEnricher(e SummaryEnricher) Option {
	return func(a *Aggregator) { a.enricher = e }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an insight aggregator.
func NewAggregator(
	workRepo database.WorkRepositoryInterface,
	insightRepo database.InsightRepositoryInterface,
	logger *zap.Logger,
	opts ...Option,
) *Aggregator {
	a := &Aggregator{
		workRepo:    workRepo,
		insightRepo: insightRepo,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ComputeInsights runs one aggregation for userID and returns the
// resulting record. The pipeline is designed to always succeed from the
// caller's perspective: a failed or empty works fetch degrades to a
// default-populated record, and a failed upsert is reported but does not
// fail the run. The only surfaced error is an invalid user ID.
func (a *Aggregator) ComputeInsights(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	works, err := a.loadAllWorks(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			a.logger.Debug("no_works_found",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
			)
		} else {
			a.logger.Warn("works_fetch_failed_degrading_to_defaults",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
		works = nil
	}

	record := BuildRecord(userID, works, a.now().UTC())

	if a.enricher != nil && len(works) > 0 {
		if err := a.enricher.EnrichRecord(ctx, record); err != nil {
			a.logger.Debug("summary_enrichment_failed_keeping_templates",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	if err := a.insightRepo.Upsert(ctx, record); err != nil {
		// Persistence failure is non-fatal: the caller still gets the
		// computed record and a later run will write it.
		a.logger.Error("insight_upsert_failed",
			zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}

	a.logger.Info("insights_computed",
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.Int("works", len(works)),
		zap.Int("expertise_level", record.Expertise.Level),
		zap.Int("uniqueness_level", record.Uniqueness.Level),
		zap.Int("interests_level", record.Interests.Level),
	)

	return record, nil
}

func (a *Aggregator) loadAllWorks(ctx context.Context, userID uuid.UUID) ([]*models.Work, error) {
	var all []*models.Work
	page, pageSize := 1, 500
	for {
		works, _, err := a.workRepo.GetByUserIDPaginated(ctx, userID, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to get works: %w", err)
		}
		all = append(all, works...)
		if len(works) < pageSize {
			break
		}
		page++
	}
	a.logger.Debug("loaded_works_for_analysis",
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.Int("total_works", len(all)),
		zap.Int("pages", page),
	)
	return all, nil
}
