package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/BitBlock9310/BachelorBuddy/models"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrVersionConflict is returned by PutRatingState when the stored
	// version no longer matches the expected one.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicate is returned when a uniqueness constraint would be
	// violated (one roommate profile per user, unique email/phone).
	ErrDuplicate = errors.New("duplicate entity")
)

// RatingState is the aggregation state of a rated entity. Sum is the raw
// integer sum of surviving ratings; Average is derived and rounded by
// the aggregation service before writing back.
type RatingState struct {
	Sum     int64
	Count   int64
	Average float64
	Version int64
}

// ListingFilter narrows QueryListings.
type ListingFilter struct {
	City             string
	MaxRent          *float64
	GenderPreference string
	OnlyAvailable    bool
	Limit            int
	Offset           int
}

// PostFilter narrows QueryPosts.
type PostFilter struct {
	Category        string
	College         string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// Store is the durable entity store behind the engines and the API
// handlers. Implemented by storage/postgres for production and
// storage/inmemory for tests and local development.
type Store interface {
	// Profiles
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error

	// PG listings
	CreateListing(ctx context.Context, l *models.PGListing) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.PGListing, error)
	UpdateListing(ctx context.Context, l *models.PGListing) error
	QueryListings(ctx context.Context, f ListingFilter) ([]*models.PGListing, error)

	// Local vendors
	CreateVendor(ctx context.Context, v *models.LocalVendor) error
	GetVendor(ctx context.Context, id uuid.UUID) (*models.LocalVendor, error)
	UpdateVendor(ctx context.Context, v *models.LocalVendor) error
	QueryVendors(ctx context.Context, vendorType string, limit, offset int) ([]*models.LocalVendor, error)

	// Rating state, keyed by (entityType, entityID). PutRatingState is a
	// compare-and-swap on Version.
	GetRatingState(ctx context.Context, entityType string, entityID uuid.UUID) (RatingState, error)
	PutRatingState(ctx context.Context, entityType string, entityID uuid.UUID, state RatingState, expectedVersion int64) error

	// Reviews
	CreateReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
	ReviewsForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*models.Review, error)
	// ReviewStats returns the raw rating sum and count of the surviving
	// reviews for one entity, used to rebuild its aggregate.
	ReviewStats(ctx context.Context, entityType string, entityID uuid.UUID) (sum, count int64, err error)

	// Roommate profiles
	UpsertRoommateProfile(ctx context.Context, rp *models.RoommateProfile) error
	GetRoommateProfileByUser(ctx context.Context, userID uuid.UUID) (*models.RoommateProfile, error)
	ActiveRoommateProfiles(ctx context.Context) ([]*models.RoommateProfile, error)

	// Chat
	CreateRoom(ctx context.Context, r *models.ChatRoom) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	SetRoomArchived(ctx context.Context, id uuid.UUID, archived bool) error
	// AppendChatMessage persists msg with its already-assigned Seq and
	// advances the room's last_seq in the same transaction.
	AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error
	MessagesAfter(ctx context.Context, roomID uuid.UUID, afterSeq int64, limit int) ([]*models.ChatMessage, error)

	// Community posts and comments
	CreatePost(ctx context.Context, p *models.CommunityPost) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.CommunityPost, error)
	QueryPosts(ctx context.Context, f PostFilter) ([]*models.CommunityPost, error)
	VotePost(ctx context.Context, id uuid.UUID, up bool) error
	CreateComment(ctx context.Context, c *models.PostComment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.PostComment, error)
	CommentsForPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*models.PostComment, error)
	VoteComment(ctx context.Context, id uuid.UUID, up bool) error
}
