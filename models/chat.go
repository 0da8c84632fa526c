package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is a container for ordered messages. LastSeq is the highest
// sequence position handed out for the room; it is maintained by the
// sequencer and never exposed to clients.
type ChatRoom struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Type       string    `json:"type" db:"type"`
	Metadata   JSONMap   `json:"metadata" db:"metadata"`
	IsArchived bool      `json:"is_archived" db:"is_archived"`
	LastSeq    int64     `json:"-" db:"last_seq"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

func (ChatRoom) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS chat_rooms (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		type TEXT NOT NULL DEFAULT 'direct',
		metadata JSONB DEFAULT '{}',
		is_archived BOOLEAN NOT NULL DEFAULT FALSE,
		last_seq BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}

// ChatMessage is immutable once sequenced. Seq is the room-scoped order
// position assigned at acceptance time; CreatedAt is the sender-reported
// wall clock and carries no ordering meaning.
type ChatMessage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RoomID    uuid.UUID `json:"room_id" db:"room_id"`
	SenderID  uuid.UUID `json:"sender_id" db:"sender_id"`
	Seq       int64     `json:"seq" db:"seq"`
	Content   string    `json:"content" db:"content"`
	Metadata  JSONMap   `json:"metadata" db:"metadata"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (ChatMessage) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		room_id UUID NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
		sender_id UUID NOT NULL REFERENCES profiles(id),
		seq BIGINT NOT NULL,
		content TEXT NOT NULL,
		metadata JSONB DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		UNIQUE (room_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_room_seq ON chat_messages(room_id, seq);`
}
