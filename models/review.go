package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Review of a PG listing or a local vendor. Rating is 1-5. Creating,
// editing or deleting a review retriggers aggregation on the target.
type Review struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	AuthorID   uuid.UUID      `json:"author_id" db:"author_id"`
	EntityType string         `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id" db:"entity_id"`
	Rating     int            `json:"rating" db:"rating"`
	Content    *string        `json:"content" db:"content"`
	Images     pq.StringArray `json:"images" db:"images"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

func (Review) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		author_id UUID NOT NULL REFERENCES profiles(id),
		entity_type TEXT NOT NULL,
		entity_id UUID NOT NULL,
		rating SMALLINT NOT NULL CHECK (rating >= 1 AND rating <= 5),
		content TEXT,
		images TEXT[] DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_entity ON reviews(entity_type, entity_id);`
}
