package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logpkg "github.com/balubo/insight-api/internal/logger"
	"github.com/balubo/insight-api/internal/models"
	"github.com/balubo/insight-api/internal/queue"
	"github.com/balubo/insight-api/internal/services/ai"
)

// InsightComputer runs the analysis pipeline for one user
type InsightComputer interface {
	ComputeInsights(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error)
}

// InsightCacheInvalidator drops the cached record after a recompute
type InsightCacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// InsightAnalyzer processes insight analysis jobs
type InsightAnalyzer struct {
	computer InsightComputer
	cache    InsightCacheInvalidator
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
	registry map[queue.JobType]processorEntry
}

// NewInsightAnalyzer creates a new insight analyzer and registers the
// insight_analysis processor. cache and jobQueue may be nil.
func NewInsightAnalyzer(
	computer InsightComputer,
	cache InsightCacheInvalidator,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *InsightAnalyzer {
	a := &InsightAnalyzer{
		computer: computer,
		cache:    cache,
		jobQueue: jobQueue,
		logger:   logger,
		registry: make(map[queue.JobType]processorEntry),
	}
	a.RegisterProcessor(queue.JobTypeInsightAnalysis, a.ProcessInsightAnalysisJob, true)
	return a
}

// RegisterProcessor registers a processor for a job type.
func (a *InsightAnalyzer) RegisterProcessor(typ queue.JobType, proc JobProcessor, retryable bool) {
	a.registry[typ] = processorEntry{proc: proc, retryable: retryable}
}

// ProcessInsightAnalysisJob recomputes the insight record for the job's user
func (a *InsightAnalyzer) ProcessInsightAnalysisJob(ctx context.Context, job *queue.Job) error {
	if job.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required for insight analysis job")
	}

	a.logger.Info("processing_insight_analysis_job",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
	)

	record, err := a.computer.ComputeInsights(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to compute insights: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.Invalidate(ctx, job.UserID); err != nil {
			a.logger.Warn("insight_cache_invalidate_failed",
				zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
	}

	a.logger.Info("insight_analysis_job_done",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("expertise_level", record.Expertise.Level),
		zap.Int("uniqueness_level", record.Uniqueness.Level),
		zap.Int("interests_level", record.Interests.Level),
	)
	return nil
}

// ProcessJob processes a job based on its type using the processor registry.
func (a *InsightAnalyzer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		a.logger.Info("insight_job_expired",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Warn("failed_to_nack_expired_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return nil
	}

	if !job.ShouldProcess() {
		fields := []zap.Field{zap.String("job_id", logpkg.SanitizeUserID(job.ID.String()))}
		if job.NotBefore != nil {
			fields = append(fields, zap.Time("not_before", *job.NotBefore))
		}
		a.logger.Debug("insight_job_not_ready", fields...)
		// Requeue and wait for the delay to elapse
		if nackErr := msg.Nack(true); nackErr != nil {
			a.logger.Warn("failed_to_requeue_job_for_later_processing",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return nil
	}

	ent, ok := a.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := ent.proc(ctx, job); err != nil {
		if ent.retryable {
			return a.handleJobError(ctx, msg, job, err)
		}
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Warn("failed_to_nack_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("insight job failed: %w", err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack insight job: %w", ackErr)
	}
	return nil
}

// handleJobError applies retry logic to a failed job. Rate limited jobs are
// re-enqueued with a delay, other failures retry until MaxRetries and then
// land in the DLQ.
func (a *InsightAnalyzer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if ai.IsRateLimitError(err) && job.CanRetry() && a.jobQueue != nil {
		notBefore := time.Now().Add(rateLimitRetryDelay(job.RetryCount))
		delayedJob := &queue.Job{
			ID:         job.ID,
			Type:       job.Type,
			UserID:     job.UserID,
			NotBefore:  &notBefore,
			NotAfter:   job.NotAfter,
			Metadata:   job.Metadata,
			CreatedAt:  job.CreatedAt,
			RetryCount: job.RetryCount + 1,
			MaxRetries: job.MaxRetries,
		}

		if ackErr := msg.Ack(); ackErr != nil {
			a.logger.Warn("failed_to_ack_rate_limited_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}

		if enqueueErr := a.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
			a.logger.Error("failed_to_reenqueue_rate_limited_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(enqueueErr)),
			)
			return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
		}

		a.logger.Info("rate_limited_job_reenqueued",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.Time("not_before", notBefore),
			zap.Int("retry_count", delayedJob.RetryCount),
		)
		return nil
	}

	if job.CanRetry() {
		job.IncrementRetry()
		a.logger.Warn("insight_job_failed_will_retry",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			a.logger.Warn("failed_to_nack_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	a.logger.Error("insight_job_failed_sending_to_dlq",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.Int("max_retries", job.MaxRetries),
		zap.String("error", logpkg.SanitizeError(err)),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		a.logger.Warn("failed_to_nack_job_to_dlq",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("error", logpkg.SanitizeError(nackErr)),
		)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// rateLimitRetryDelay backs off exponentially from 60s, capped at 15 minutes
func rateLimitRetryDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 4 {
		retryCount = 4
	}
	delay := 60 * time.Second * time.Duration(1<<uint(retryCount))
	if delay > 15*time.Minute {
		delay = 15 * time.Minute
	}
	return delay
}
