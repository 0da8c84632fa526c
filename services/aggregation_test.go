package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
	"github.com/BitBlock9310/BachelorBuddy/storage"
	"github.com/BitBlock9310/BachelorBuddy/storage/inmemory"
)

func newAggFixture(t *testing.T) (*services.AggregationService, *inmemory.Store, *models.PGListing) {
	t.Helper()
	store := inmemory.New()
	listing := &models.PGListing{Title: "Sunrise PG", Address: "Koramangala, Bangalore", MonthlyRent: 9000}
	require.NoError(t, store.CreateListing(context.Background(), listing))
	return services.NewAggregationService(store, logger.NewNop()), store, listing
}

func TestSubmitReviewUpdatesAverage(t *testing.T) {
	agg, store, listing := newAggFixture(t)
	ctx := context.Background()

	require.NoError(t, agg.SubmitReview(ctx, &models.Review{
		AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 5,
	}))
	require.NoError(t, agg.SubmitReview(ctx, &models.Review{
		AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 3,
	}))

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), state.Count)
	assert.Equal(t, 4.0, state.Average)
}

func TestDeleteReviewBacksRatingOut(t *testing.T) {
	agg, store, listing := newAggFixture(t)
	ctx := context.Background()

	five := &models.Review{AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 5}
	require.NoError(t, agg.SubmitReview(ctx, five))
	require.NoError(t, agg.SubmitReview(ctx, &models.Review{
		AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 3,
	}))

	require.NoError(t, agg.DeleteReview(ctx, five.ID))

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.Count)
	assert.Equal(t, 3.0, state.Average)
}

func TestUpdateReviewAppliesRatingDelta(t *testing.T) {
	agg, store, listing := newAggFixture(t)
	ctx := context.Background()

	review := &models.Review{AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 2}
	require.NoError(t, agg.SubmitReview(ctx, review))

	updated, err := agg.UpdateReview(ctx, review.ID, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.Count)
	assert.Equal(t, 5.0, state.Average)
}

func TestSubmitReviewRejectsOutOfRangeRating(t *testing.T) {
	agg, _, listing := newAggFixture(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		err := agg.SubmitReview(ctx, &models.Review{
			AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: rating,
		})
		assert.ErrorIs(t, err, services.ErrInvalidRange)
	}
}

func TestSubmitReviewUnknownTarget(t *testing.T) {
	agg, _, _ := newAggFixture(t)

	err := agg.SubmitReview(context.Background(), &models.Review{
		AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: uuid.New(), Rating: 4,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConcurrentSubmitsAllLand(t *testing.T) {
	agg, store, listing := newAggFixture(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- agg.SubmitReview(ctx, &models.Review{
				AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 4,
			})
		}()
	}
	wg.Wait()
	close(errs)

	applied := 0
	for err := range errs {
		if err == nil {
			applied++
		} else {
			// Only the bounded-retry exhaustion error is acceptable, and
			// a failed submit must not leave its review behind.
			require.ErrorIs(t, err, services.ErrAggregationConflict)
		}
	}

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(applied), state.Count)
	assert.Equal(t, int64(applied)*4, state.Sum)
	if state.Count > 0 {
		assert.Equal(t, 4.0, state.Average)
	}

	// The surviving reviews are exactly the counted ones.
	sum, count, err := store.ReviewStats(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, state.Sum, sum)
	assert.Equal(t, state.Count, count)
}

func TestNegativeCountClampsToZero(t *testing.T) {
	agg, store, listing := newAggFixture(t)
	ctx := context.Background()

	require.NoError(t, agg.ApplyReviewDelta(ctx, models.EntityTypePGListing, listing.ID, -5, -1))

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Count)
	assert.Equal(t, int64(0), state.Sum)
	assert.Equal(t, 0.0, state.Average)
}

// contendedStore fails PutRatingState with a version conflict until
// failures reaches zero. A negative count means it never succeeds.
type contendedStore struct {
	storage.Store
	failures int
}

func (s *contendedStore) PutRatingState(ctx context.Context, entityType string, entityID uuid.UUID, state storage.RatingState, expectedVersion int64) error {
	if s.failures != 0 {
		if s.failures > 0 {
			s.failures--
		}
		return storage.ErrVersionConflict
	}
	return s.Store.PutRatingState(ctx, entityType, entityID, state, expectedVersion)
}

func TestSubmitReviewRemovesReviewWhenAggregateCannotAdvance(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	listing := &models.PGListing{Title: "Sunrise PG", Address: "Koramangala, Bangalore", MonthlyRent: 9000}
	require.NoError(t, store.CreateListing(ctx, listing))

	agg := services.NewAggregationService(&contendedStore{Store: store, failures: -1}, logger.NewNop())
	err := agg.SubmitReview(ctx, &models.Review{
		AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 5,
	})
	require.ErrorIs(t, err, services.ErrAggregationConflict)

	reviews, err := store.ReviewsForEntity(ctx, models.EntityTypePGListing, listing.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, reviews, "a review the aggregate never counted must not survive")

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Count)
}

func TestExhaustedDeltaRebuildsFromReviews(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	listing := &models.PGListing{Title: "Sunrise PG", Address: "Koramangala, Bangalore", MonthlyRent: 9000}
	require.NoError(t, store.CreateListing(ctx, listing))

	// Burn the delta loop's whole retry budget; the rebuild write that
	// follows gets through.
	agg := services.NewAggregationService(&contendedStore{Store: store, failures: 5}, logger.NewNop())
	require.NoError(t, agg.SubmitReview(ctx, &models.Review{
		AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 5,
	}))

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.Count)
	assert.Equal(t, int64(5), state.Sum)
	assert.Equal(t, 5.0, state.Average)
}

func TestUpdateReviewRevertsRatingWhenAggregateCannotAdvance(t *testing.T) {
	agg, store, listing := newAggFixture(t)
	ctx := context.Background()

	review := &models.Review{AuthorID: uuid.New(), EntityType: models.EntityTypePGListing, EntityID: listing.ID, Rating: 2}
	require.NoError(t, agg.SubmitReview(ctx, review))

	contended := services.NewAggregationService(&contendedStore{Store: store, failures: -1}, logger.NewNop())
	_, err := contended.UpdateReview(ctx, review.ID, 5, nil)
	require.ErrorIs(t, err, services.ErrAggregationConflict)

	got, err := store.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rating, "stored rating must match the counted aggregate")

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, state.Average)
}

func TestAverageRoundsToTwoDecimals(t *testing.T) {
	agg, store, listing := newAggFixture(t)
	ctx := context.Background()

	for _, rating := range []int64{5, 5, 4} {
		require.NoError(t, agg.ApplyReviewDelta(ctx, models.EntityTypePGListing, listing.ID, rating, 1))
	}

	state, err := store.GetRatingState(ctx, models.EntityTypePGListing, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.67, state.Average)
}
