package database

import (
	"database/sql"
	"fmt"

	"github.com/BitBlock9310/BachelorBuddy/models"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// InitializeTables creates all tables if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension for gen_random_uuid()
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Order respects foreign key dependencies
	tables := []interface {
		TableName() string
		CreateTableSQL() string
	}{
		models.Profile{},
		models.PGListing{},
		models.LocalVendor{},
		models.RoommateProfile{},
		models.Review{},
		models.ChatRoom{},
		models.ChatMessage{},
		models.CommunityPost{},
		models.PostComment{},
	}

	for _, model := range tables {
		if _, err := db.Exec(model.CreateTableSQL()); err != nil {
			return fmt.Errorf("failed to create table %s: %w", model.TableName(), err)
		}
	}

	return nil
}
