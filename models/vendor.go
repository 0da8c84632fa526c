package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Vendor types
const (
	VendorTypeMess      = "mess"
	VendorTypeLaundry   = "laundry"
	VendorTypeTransport = "transport"
	VendorTypeOther     = "other"
)

// LocalVendor is a service provider near campus (mess, laundry,
// transport). Carries the same derived rating columns as PGListing.
type LocalVendor struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OwnerID        uuid.UUID      `json:"owner_id" db:"owner_id"`
	Name           string         `json:"name" db:"name"`
	Type           string         `json:"type" db:"type"`
	Description    *string        `json:"description" db:"description"`
	Address        string         `json:"address" db:"address"`
	Location       GeoPoint       `json:"location" db:"-"`
	ContactPhone   *string        `json:"contact_phone" db:"contact_phone"`
	ContactEmail   *string        `json:"contact_email" db:"contact_email"`
	OperatingHours HoursMap       `json:"operating_hours" db:"operating_hours"`
	Services       pq.StringArray `json:"services" db:"services"`
	PriceRange     *PriceRange    `json:"price_range" db:"-"`
	Images         pq.StringArray `json:"images" db:"images"`
	IsVerified     bool           `json:"is_verified" db:"is_verified"`
	AverageRating  float64        `json:"average_rating" db:"average_rating"`
	ReviewCount    int            `json:"review_count" db:"review_count"`
	RatingSum      int64          `json:"-" db:"rating_sum"`
	Version        int64          `json:"-" db:"version"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

func (LocalVendor) TableName() string {
	return "local_vendors"
}

func (LocalVendor) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS local_vendors (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		owner_id UUID NOT NULL REFERENCES profiles(id),
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'other',
		description TEXT,
		address TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		contact_phone TEXT,
		contact_email TEXT,
		operating_hours JSONB,
		services TEXT[] DEFAULT '{}',
		price_min NUMERIC(12,2),
		price_max NUMERIC(12,2),
		images TEXT[] DEFAULT '{}',
		is_verified BOOLEAN DEFAULT FALSE,
		average_rating NUMERIC(3,2) NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0,
		rating_sum BIGINT NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
