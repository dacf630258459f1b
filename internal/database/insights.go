package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/balubo/insight-api/internal/models"
	"github.com/google/uuid"
)

// InsightRepository handles insight record database operations
type InsightRepository struct {
	db *DB
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// GetByUserID retrieves the insight record for a user
func (r *InsightRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.InsightRecord, error) {
	query := `
		SELECT user_id, expertise, uniqueness, interests, specialties, design_styles, created_at, updated_at
		FROM insight_records
		WHERE user_id = $1
	`

	record := &models.InsightRecord{}
	var expertiseJSON, uniquenessJSON, interestsJSON, specialtiesJSON, designStylesJSON []byte

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&record.UserID,
		&expertiseJSON,
		&uniquenessJSON,
		&interestsJSON,
		&specialtiesJSON,
		&designStylesJSON,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("insight record for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get insight record: %w", err)
	}

	if err := json.Unmarshal(expertiseJSON, &record.Expertise); err != nil {
		return nil, fmt.Errorf("failed to unmarshal expertise: %w", err)
	}
	if err := json.Unmarshal(uniquenessJSON, &record.Uniqueness); err != nil {
		return nil, fmt.Errorf("failed to unmarshal uniqueness: %w", err)
	}
	if err := json.Unmarshal(interestsJSON, &record.Interests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interests: %w", err)
	}
	if err := json.Unmarshal(specialtiesJSON, &record.Specialties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specialties: %w", err)
	}
	if err := json.Unmarshal(designStylesJSON, &record.DesignStyles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal design_styles: %w", err)
	}

	return record, nil
}

// Upsert creates or fully overwrites the insight record for a user.
// Keyed on user_id, so re-upserting the same record is idempotent and
// concurrent upserts resolve as last-write-wins.
func (r *InsightRepository) Upsert(ctx context.Context, record *models.InsightRecord) error {
	query := `
		INSERT INTO insight_records (user_id, expertise, uniqueness, interests, specialties, design_styles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET expertise = EXCLUDED.expertise,
		    uniqueness = EXCLUDED.uniqueness,
		    interests = EXCLUDED.interests,
		    specialties = EXCLUDED.specialties,
		    design_styles = EXCLUDED.design_styles,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	expertiseJSON, err := json.Marshal(record.Expertise)
	if err != nil {
		return fmt.Errorf("failed to marshal expertise: %w", err)
	}
	uniquenessJSON, err := json.Marshal(record.Uniqueness)
	if err != nil {
		return fmt.Errorf("failed to marshal uniqueness: %w", err)
	}
	interestsJSON, err := json.Marshal(record.Interests)
	if err != nil {
		return fmt.Errorf("failed to marshal interests: %w", err)
	}
	specialtiesJSON, err := json.Marshal(record.Specialties)
	if err != nil {
		return fmt.Errorf("failed to marshal specialties: %w", err)
	}
	designStylesJSON, err := json.Marshal(record.DesignStyles)
	if err != nil {
		return fmt.Errorf("failed to marshal design_styles: %w", err)
	}

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	err = r.db.QueryRowContext(ctx, query,
		record.UserID,
		expertiseJSON,
		uniquenessJSON,
		interestsJSON,
		specialtiesJSON,
		designStylesJSON,
		updatedAt,
		updatedAt,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert insight record: %w", err)
	}

	return nil
}

// Delete removes a user's insight record. Not used by the aggregation
// pipeline itself; exposed for data-retention tooling.
func (r *InsightRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM insight_records WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete insight record: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("insight record for user %s: %w", userID, ErrNotFound)
	}
	return nil
}
