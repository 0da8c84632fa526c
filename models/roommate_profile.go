package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RoommateProfile holds a student's roommate-search preferences. One per
// profile. Only active profiles are considered by the matching service.
type RoommateProfile struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	UserID             uuid.UUID      `json:"user_id" db:"user_id"`
	Bio                *string        `json:"bio" db:"bio"`
	Preferences        PrefMap        `json:"preferences" db:"preferences"`
	BudgetRange        BudgetRange    `json:"budget_range" db:"-"`
	PreferredLocations pq.StringArray `json:"preferred_locations" db:"preferred_locations"`
	LifestyleTags      pq.StringArray `json:"lifestyle_tags" db:"lifestyle_tags"`
	IsSmokingOK        bool           `json:"is_smoking_ok" db:"is_smoking_ok"`
	IsPetsOK           bool           `json:"is_pets_ok" db:"is_pets_ok"`
	MoveInDate         *time.Time     `json:"move_in_date" db:"move_in_date"`
	DurationMonths     *int           `json:"duration_months" db:"duration_months"`
	IsActive           bool           `json:"is_active" db:"is_active"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

func (RoommateProfile) TableName() string {
	return "roommate_profiles"
}

func (RoommateProfile) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS roommate_profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES profiles(id) ON DELETE CASCADE,
		bio TEXT,
		preferences JSONB DEFAULT '{}',
		budget_min NUMERIC(12,2) NOT NULL DEFAULT 0,
		budget_max NUMERIC(12,2) NOT NULL DEFAULT 0,
		preferred_locations TEXT[] DEFAULT '{}',
		lifestyle_tags TEXT[] DEFAULT '{}',
		is_smoking_ok BOOLEAN DEFAULT FALSE,
		is_pets_ok BOOLEAN DEFAULT FALSE,
		move_in_date DATE,
		duration_months INTEGER,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		CHECK (budget_min >= 0 AND budget_max >= budget_min)
	);`
}
