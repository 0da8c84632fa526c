package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CommunityPost is a campus forum post.
type CommunityPost struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	AuthorID   uuid.UUID      `json:"author_id" db:"author_id"`
	Title      string         `json:"title" db:"title"`
	Content    string         `json:"content" db:"content"`
	Category   string         `json:"category" db:"category"`
	Tags       pq.StringArray `json:"tags" db:"tags"`
	College    *string        `json:"college" db:"college"`
	BatchYear  *int           `json:"batch_year" db:"batch_year"`
	Upvotes    int            `json:"upvotes" db:"upvotes"`
	Downvotes  int            `json:"downvotes" db:"downvotes"`
	IsPinned   bool           `json:"is_pinned" db:"is_pinned"`
	IsArchived bool           `json:"is_archived" db:"is_archived"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

func (CommunityPost) TableName() string {
	return "community_posts"
}

func (CommunityPost) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS community_posts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		author_id UUID NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		tags TEXT[] DEFAULT '{}',
		college TEXT,
		batch_year INTEGER,
		upvotes INTEGER NOT NULL DEFAULT 0,
		downvotes INTEGER NOT NULL DEFAULT 0,
		is_pinned BOOLEAN DEFAULT FALSE,
		is_archived BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
