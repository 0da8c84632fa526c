package inmemory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/storage"
	"github.com/BitBlock9310/BachelorBuddy/storage/inmemory"
)

func TestProfileEmailUniqueness(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	email := "ravi@example.com"

	require.NoError(t, store.CreateProfile(ctx, &models.Profile{Email: &email}))
	err := store.CreateProfile(ctx, &models.Profile{Email: &email})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestPutRatingStateVersionConflict(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	listing := &models.PGListing{Title: "PG", Address: "BTM"}
	require.NoError(t, store.CreateListing(ctx, listing))

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)

	next := storage.RatingState{Sum: 5, Count: 1, Average: 5}
	require.NoError(t, store.PutRatingState(ctx, models.EntityTypePGListing, listing.ID, next, state.Version))

	// A second write against the stale version must fail.
	err = store.PutRatingState(ctx, models.EntityTypePGListing, listing.ID, next, state.Version)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
}

func TestUpdateListingPreservesRatingColumns(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	listing := &models.PGListing{Title: "PG", Address: "BTM"}
	require.NoError(t, store.CreateListing(ctx, listing))
	require.NoError(t, store.PutRatingState(ctx, models.EntityTypePGListing, listing.ID,
		storage.RatingState{Sum: 8, Count: 2, Average: 4}, 0))

	edited := *listing
	edited.Title = "Renamed PG"
	edited.AverageRating = 99
	edited.ReviewCount = 99
	require.NoError(t, store.UpdateListing(ctx, &edited))

	got, err := store.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed PG", got.Title)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, 2, got.ReviewCount)
}

func TestQueryListingsFilters(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()

	cheap := &models.PGListing{Title: "A", Address: "HSR Layout, Bangalore", MonthlyRent: 6000, IsAvailable: true}
	pricey := &models.PGListing{Title: "B", Address: "HSR Layout, Bangalore", MonthlyRent: 15000, IsAvailable: true}
	gone := &models.PGListing{Title: "C", Address: "HSR Layout, Bangalore", MonthlyRent: 5000, IsAvailable: false}
	for _, l := range []*models.PGListing{cheap, pricey, gone} {
		require.NoError(t, store.CreateListing(ctx, l))
	}

	maxRent := 10000.0
	out, err := store.QueryListings(ctx, storage.ListingFilter{
		City: "bangalore", MaxRent: &maxRent, OnlyAvailable: true, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, cheap.ID, out[0].ID)
}

func TestAppendChatMessageEnforcesSequence(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	room := &models.ChatRoom{Type: "direct"}
	require.NoError(t, store.CreateRoom(ctx, room))

	ok := &models.ChatMessage{RoomID: room.ID, SenderID: uuid.New(), Seq: 1, Content: "hi"}
	require.NoError(t, store.AppendChatMessage(ctx, ok))

	skipped := &models.ChatMessage{RoomID: room.ID, SenderID: uuid.New(), Seq: 3, Content: "gap"}
	assert.ErrorIs(t, store.AppendChatMessage(ctx, skipped), storage.ErrVersionConflict)

	stale := &models.ChatMessage{RoomID: room.ID, SenderID: uuid.New(), Seq: 1, Content: "stale"}
	assert.ErrorIs(t, store.AppendChatMessage(ctx, stale), storage.ErrVersionConflict)
}

func TestUpsertRoommateProfileKeepsIdentity(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	userID := uuid.New()

	first := &models.RoommateProfile{UserID: userID, IsActive: true}
	require.NoError(t, store.UpsertRoommateProfile(ctx, first))

	second := &models.RoommateProfile{UserID: userID, IsActive: false}
	require.NoError(t, store.UpsertRoommateProfile(ctx, second))

	got, err := store.GetRoommateProfileByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID, "upsert must keep the original profile ID")
	assert.False(t, got.IsActive)

	active, err := store.ActiveRoommateProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCommentRequiresPostAndParent(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()

	err := store.CreateComment(ctx, &models.PostComment{PostID: uuid.New(), AuthorID: uuid.New(), Content: "hi"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	post := &models.CommunityPost{AuthorID: uuid.New(), Title: "t", Content: "c", Category: "general"}
	require.NoError(t, store.CreatePost(ctx, post))

	missingParent := uuid.New()
	err = store.CreateComment(ctx, &models.PostComment{
		PostID: post.ID, AuthorID: uuid.New(), ParentID: &missingParent, Content: "reply",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVotePost(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	post := &models.CommunityPost{AuthorID: uuid.New(), Title: "t", Content: "c", Category: "general"}
	require.NoError(t, store.CreatePost(ctx, post))

	require.NoError(t, store.VotePost(ctx, post.ID, true))
	require.NoError(t, store.VotePost(ctx, post.ID, true))
	require.NoError(t, store.VotePost(ctx, post.ID, false))

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Upvotes)
	assert.Equal(t, 1, got.Downvotes)
}
