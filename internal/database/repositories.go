package database

import (
	"context"

	"github.com/balubo/insight-api/internal/models"
	"github.com/google/uuid"
)

// WorkRepositoryInterface defines the interface for work repository operations
// This interface enables better testability by allowing mock implementations
type WorkRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Work, error)
	GetByUserIDPaginated(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.Work, int, error)
}

// InsightRepositoryInterface defines the interface for insight record repository operations
type InsightRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error)
	Upsert(ctx context.Context, record *models.InsightRecord) error
}

// Ensure concrete types implement the interfaces
var (
	_ WorkRepositoryInterface    = (*WorkRepository)(nil)
	_ InsightRepositoryInterface = (*InsightRepository)(nil)
)
