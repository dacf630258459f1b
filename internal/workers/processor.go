package workers

import (
	"context"

	"github.com/balubo/insight-api/internal/queue"
)

// JobProcessor handles one job of a registered type
type JobProcessor func(ctx context.Context, job *queue.Job) error

// processorEntry pairs a processor with its error handling mode. Entries with
// retryable set use delayed re-enqueue and retry accounting on failure;
// others nack straight to the DLQ.
type processorEntry struct {
	proc      JobProcessor
	retryable bool
}
