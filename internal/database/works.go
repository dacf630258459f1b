package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/balubo/insight-api/internal/models"
	"github.com/google/uuid"
)

// WorkRepository handles work (portfolio entry) database operations.
// Works are written by the portfolio service; this repository is read-only.
type WorkRepository struct {
	db *DB
}

// NewWorkRepository creates a new work repository
func NewWorkRepository(db *DB) *WorkRepository {
	return &WorkRepository{db: db}
}

// GetByID retrieves a work by ID
func (r *WorkRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Work, error) {
	query := `
		SELECT id, user_id, title, description, tags, created_at, updated_at
		FROM works
		WHERE id = $1
	`

	work := &models.Work{}
	var tagsJSON []byte
	var description sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&work.ID,
		&work.UserID,
		&work.Title,
		&description,
		&tagsJSON,
		&work.CreatedAt,
		&work.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("work %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get work: %w", err)
	}

	work.Description = description.String
	if err := unmarshalTags(tagsJSON, work); err != nil {
		return nil, err
	}
	return work, nil
}

// GetByUserIDPaginated retrieves a page of a user's works ordered by
// creation time. Returns the page and the total number of works. A user
// with no works yields ErrNotFound so callers can distinguish "no
// portfolio yet" from an empty page past the end.
func (r *WorkRepository) GetByUserIDPaginated(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.Work, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM works WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count works: %w", err)
	}
	if total == 0 {
		return nil, 0, fmt.Errorf("works for user %s: %w", userID, ErrNotFound)
	}

	query := `
		SELECT id, user_id, title, description, tags, created_at, updated_at
		FROM works
		WHERE user_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get works: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	var works []*models.Work
	for rows.Next() {
		work := &models.Work{}
		var tagsJSON []byte
		var description sql.NullString
		if err := rows.Scan(
			&work.ID,
			&work.UserID,
			&work.Title,
			&description,
			&tagsJSON,
			&work.CreatedAt,
			&work.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan work: %w", err)
		}
		work.Description = description.String
		if err := unmarshalTags(tagsJSON, work); err != nil {
			return nil, 0, err
		}
		works = append(works, work)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate works: %w", err)
	}

	return works, total, nil
}

func unmarshalTags(tagsJSON []byte, work *models.Work) error {
	if len(tagsJSON) == 0 {
		work.Tags = nil
		return nil
	}
	if err := json.Unmarshal(tagsJSON, &work.Tags); err != nil {
		return fmt.Errorf("failed to unmarshal tags for work %s: %w", work.ID, err)
	}
	return nil
}
