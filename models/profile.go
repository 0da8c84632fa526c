package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleStudent = "student"
	RolePGOwner = "pg_owner"
	RoleVendor  = "vendor"
	RoleAdmin   = "admin"
)

type Profile struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     *string   `json:"username" db:"username"`
	FullName     *string   `json:"full_name" db:"full_name"`
	AvatarURL    *string   `json:"avatar_url" db:"avatar_url"`
	Role         string    `json:"role" db:"role"`
	Gender       *string   `json:"gender" db:"gender"`
	College      *string   `json:"college" db:"college"`
	BatchYear    *int      `json:"batch_year" db:"batch_year"`
	Phone        *string   `json:"phone" db:"phone"`
	Email        *string   `json:"email" db:"email"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	PushToken    *string   `json:"-" db:"push_token"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (Profile) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username TEXT UNIQUE,
		full_name TEXT,
		avatar_url TEXT,
		role TEXT NOT NULL DEFAULT 'student',
		gender TEXT,
		college TEXT,
		batch_year INTEGER,
		phone TEXT UNIQUE,
		email TEXT UNIQUE,
		is_verified BOOLEAN DEFAULT FALSE,
		password_hash TEXT,
		push_token TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
