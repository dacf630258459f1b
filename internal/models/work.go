package models

import (
	"time"

	"github.com/google/uuid"
)

// Work represents a portfolio entry a creator has registered (an article,
// a design piece, a video, ...). Works are created through the portfolio
// service; the insight pipeline only ever reads them.
type Work struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
