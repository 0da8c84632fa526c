package models

import (
	"time"

	"github.com/google/uuid"
)

// PostComment is a comment on a community post, optionally nested under
// a parent comment.
type PostComment struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	PostID    uuid.UUID  `json:"post_id" db:"post_id"`
	AuthorID  uuid.UUID  `json:"author_id" db:"author_id"`
	ParentID  *uuid.UUID `json:"parent_id" db:"parent_id"`
	Content   string     `json:"content" db:"content"`
	Upvotes   int        `json:"upvotes" db:"upvotes"`
	Downvotes int        `json:"downvotes" db:"downvotes"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

func (PostComment) TableName() string {
	return "post_comments"
}

func (PostComment) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS post_comments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		post_id UUID NOT NULL REFERENCES community_posts(id) ON DELETE CASCADE,
		author_id UUID NOT NULL REFERENCES profiles(id),
		parent_id UUID REFERENCES post_comments(id),
		content TEXT NOT NULL,
		upvotes INTEGER NOT NULL DEFAULT 0,
		downvotes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_post_comments_post ON post_comments(post_id);`
}
