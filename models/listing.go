package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PGListing is a paying-guest accommodation listing. The average_rating
// and review_count columns are derived from reviews and written only by
// the aggregation service, never by API callers.
type PGListing struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	OwnerID          uuid.UUID      `json:"owner_id" db:"owner_id"`
	Title            string         `json:"title" db:"title"`
	Description      *string        `json:"description" db:"description"`
	Address          string         `json:"address" db:"address"`
	Location         GeoPoint       `json:"location" db:"-"`
	MonthlyRent      float64        `json:"monthly_rent" db:"monthly_rent"`
	SecurityDeposit  *float64       `json:"security_deposit" db:"security_deposit"`
	IsShared         bool           `json:"is_shared" db:"is_shared"`
	MaxOccupancy     *int           `json:"max_occupancy" db:"max_occupancy"`
	GenderPreference *string        `json:"gender_preference" db:"gender_preference"`
	Amenities        BoolMap        `json:"amenities" db:"amenities"`
	Rules            pq.StringArray `json:"rules" db:"rules"`
	Images           pq.StringArray `json:"images" db:"images"`
	ContactPhone     *string        `json:"contact_phone" db:"contact_phone"`
	ContactEmail     *string        `json:"contact_email" db:"contact_email"`
	IsAvailable      bool           `json:"is_available" db:"is_available"`
	AverageRating    float64        `json:"average_rating" db:"average_rating"`
	ReviewCount      int            `json:"review_count" db:"review_count"`
	RatingSum        int64          `json:"-" db:"rating_sum"`
	Version          int64          `json:"-" db:"version"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

func (PGListing) TableName() string {
	return "pg_listings"
}

func (PGListing) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS pg_listings (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		owner_id UUID NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		description TEXT,
		address TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		monthly_rent NUMERIC(12,2) NOT NULL,
		security_deposit NUMERIC(12,2),
		is_shared BOOLEAN DEFAULT FALSE,
		max_occupancy INTEGER,
		gender_preference TEXT,
		amenities JSONB DEFAULT '{}',
		rules TEXT[] DEFAULT '{}',
		images TEXT[] DEFAULT '{}',
		contact_phone TEXT,
		contact_email TEXT,
		is_available BOOLEAN DEFAULT TRUE,
		average_rating NUMERIC(3,2) NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		rating_sum BIGINT NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
