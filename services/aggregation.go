package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

// maxAggregationAttempts bounds optimistic retries under hot-entity
// review bursts.
const maxAggregationAttempts = 5

// AggregationService keeps the derived average_rating and review_count
// columns on listings and vendors consistent with the surviving reviews.
// It is the only writer of those columns.
type AggregationService struct {
	store storage.Store
	log   *logger.Logger
}

func NewAggregationService(store storage.Store, log *logger.Logger) *AggregationService {
	return &AggregationService{store: store, log: log.With("service", "aggregation")}
}

// ApplyReviewDelta applies one review lifecycle event to the target
// entity: create is (+rating, +1), delete is (-rating, -1), a rating
// edit is (new-old, 0). The update is a compare-and-swap on the entity's
// version, retried with a fresh read up to maxAggregationAttempts. When
// the delta budget is exhausted the state is rebuilt from the reviews
// table instead, so reviews already persisted stay counted.
func (s *AggregationService) ApplyReviewDelta(ctx context.Context, entityType string, entityID uuid.UUID, ratingDelta, countDelta int64) error {
	for attempt := 0; attempt < maxAggregationAttempts; attempt++ {
		state, err := s.store.GetRatingState(ctx, entityType, entityID)
		if err != nil {
			return err
		}

		next := storage.RatingState{
			Sum:   state.Sum + ratingDelta,
			Count: state.Count + countDelta,
		}
		if next.Count < 0 {
			s.log.Warn("review count would go negative, clamping",
				"entity_type", entityType, "entity_id", entityID, "count", next.Count)
			next.Count = 0
			next.Sum = 0
		}
		if next.Count > 0 {
			next.Average = roundRating(float64(next.Sum) / float64(next.Count))
		}

		err = s.store.PutRatingState(ctx, entityType, entityID, next, state.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
	}

	s.log.Warn("delta retries exhausted, rebuilding from reviews",
		"entity_type", entityType, "entity_id", entityID)
	return s.recomputeRatingState(ctx, entityType, entityID)
}

// recomputeRatingState rewrites the aggregate from the authoritative
// review rows. Used when delta CAS retries run out under contention.
func (s *AggregationService) recomputeRatingState(ctx context.Context, entityType string, entityID uuid.UUID) error {
	for attempt := 0; attempt < maxAggregationAttempts; attempt++ {
		state, err := s.store.GetRatingState(ctx, entityType, entityID)
		if err != nil {
			return err
		}
		sum, count, err := s.store.ReviewStats(ctx, entityType, entityID)
		if err != nil {
			return err
		}

		next := storage.RatingState{Sum: sum, Count: count}
		if next.Count > 0 {
			next.Average = roundRating(float64(next.Sum) / float64(next.Count))
		}

		err = s.store.PutRatingState(ctx, entityType, entityID, next, state.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: %s %s", ErrAggregationConflict, entityType, entityID)
}

// SubmitReview validates and persists a new review, then folds its
// rating into the target entity.
func (s *AggregationService) SubmitReview(ctx context.Context, review *models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("%w: rating %d", ErrInvalidRange, review.Rating)
	}
	// Target must exist before the review is accepted.
	if _, err := s.store.GetRatingState(ctx, review.EntityType, review.EntityID); err != nil {
		return err
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return err
	}
	if err := s.ApplyReviewDelta(ctx, review.EntityType, review.EntityID, int64(review.Rating), 1); err != nil {
		// Back the review out so a caller retry cannot double-insert an
		// uncounted row.
		if delErr := s.store.DeleteReview(ctx, review.ID); delErr != nil {
			s.log.Error("failed to remove uncounted review",
				"review_id", review.ID, "error", delErr)
		}
		return err
	}
	return nil
}

// UpdateReview changes a review's rating and content, retriggering
// aggregation with the combined delta.
func (s *AggregationService) UpdateReview(ctx context.Context, id uuid.UUID, newRating int, newContent *string) (*models.Review, error) {
	if newRating < 1 || newRating > 5 {
		return nil, fmt.Errorf("%w: rating %d", ErrInvalidRange, newRating)
	}
	review, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	oldRating := review.Rating
	review.Rating = newRating
	if newContent != nil {
		review.Content = newContent
	}
	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	if newRating != oldRating {
		if err := s.ApplyReviewDelta(ctx, review.EntityType, review.EntityID, int64(newRating-oldRating), 0); err != nil {
			// Revert the stored rating so the review agrees with the
			// aggregate it is counted under.
			review.Rating = oldRating
			if revErr := s.store.UpdateReview(ctx, review); revErr != nil {
				s.log.Error("failed to revert review rating",
					"review_id", review.ID, "error", revErr)
			}
			return nil, err
		}
	}
	return review, nil
}

// DeleteReview removes a review and backs its rating out of the target.
func (s *AggregationService) DeleteReview(ctx context.Context, id uuid.UUID) error {
	review, err := s.store.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return err
	}
	return s.ApplyReviewDelta(ctx, review.EntityType, review.EntityID, -int64(review.Rating), -1)
}

// roundRating rounds to 2 decimal places, the precision stored on the
// rated entities.
func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}
