package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

// MatchWeights controls the relative importance of each compatibility
// sub-score. Weights are normalized before use, so any positive values
// work.
type MatchWeights struct {
	Budget     float64
	Location   float64
	Lifestyle  float64
	Preference float64
}

func DefaultMatchWeights() MatchWeights {
	return MatchWeights{Budget: 0.3, Location: 0.25, Lifestyle: 0.25, Preference: 0.2}
}

func (w MatchWeights) total() float64 {
	return w.Budget + w.Location + w.Lifestyle + w.Preference
}

// Match is one ranked candidate.
type Match struct {
	CandidateID uuid.UUID               `json:"candidate_id"`
	Profile     *models.RoommateProfile `json:"profile"`
	Score       float64                 `json:"score"`
	Breakdown   ScoreBreakdown          `json:"breakdown"`
}

// ScoreBreakdown exposes the sub-scores so clients can explain a match.
type ScoreBreakdown struct {
	Budget     float64 `json:"budget"`
	Location   float64 `json:"location"`
	Lifestyle  float64 `json:"lifestyle"`
	Preference float64 `json:"preference"`
}

// MatchingService ranks active roommate profiles against a seeker.
// Scoring is pure and deterministic; the candidate pool may be a
// slightly stale snapshot.
type MatchingService struct {
	store   storage.Store
	weights MatchWeights
}

func NewMatchingService(store storage.Store, weights MatchWeights) *MatchingService {
	if weights.total() <= 0 {
		weights = DefaultMatchWeights()
	}
	return &MatchingService{store: store, weights: weights}
}

// MatchesFor loads the active candidate pool and ranks it for the given
// user's roommate profile.
func (s *MatchingService) MatchesFor(ctx context.Context, userID uuid.UUID, limit int) ([]Match, error) {
	seeker, err := s.store.GetRoommateProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pool, err := s.store.ActiveRoommateProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return RankCandidates(seeker, pool, s.weights, limit), nil
}

// RankCandidates scores every active candidate against the seeker and
// returns them ordered by descending score, ties broken by candidate ID
// for a deterministic order. The seeker never matches itself.
func RankCandidates(seeker *models.RoommateProfile, pool []*models.RoommateProfile, weights MatchWeights, limit int) []Match {
	if seeker == nil || len(pool) == 0 {
		return []Match{}
	}
	total := weights.total()
	if total <= 0 {
		weights = DefaultMatchWeights()
		total = weights.total()
	}

	matches := make([]Match, 0, len(pool))
	for _, cand := range pool {
		if cand == nil || !cand.IsActive || cand.ID == seeker.ID || cand.UserID == seeker.UserID {
			continue
		}
		b := ScoreBreakdown{
			Budget:     BudgetOverlap(seeker.BudgetRange, cand.BudgetRange),
			Location:   LocationOverlap(seeker.PreferredLocations, cand.PreferredLocations),
			Lifestyle:  jaccard(seeker.LifestyleTags, cand.LifestyleTags),
			Preference: PreferenceAgreement(seeker.Preferences, cand.Preferences),
		}
		score := (b.Budget*weights.Budget + b.Location*weights.Location +
			b.Lifestyle*weights.Lifestyle + b.Preference*weights.Preference) / total
		matches = append(matches, Match{
			CandidateID: cand.ID,
			Profile:     cand,
			Score:       score,
			Breakdown:   b,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].CandidateID.String() < matches[j].CandidateID.String()
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// BudgetOverlap is the length of the intersection of the two ranges over
// the length of their union, 0 when they do not intersect. Symmetric in
// its arguments.
func BudgetOverlap(a, b models.BudgetRange) float64 {
	lo := math.Max(a.Min, b.Min)
	hi := math.Min(a.Max, b.Max)
	if hi < lo {
		return 0
	}
	unionLo := math.Min(a.Min, b.Min)
	unionHi := math.Max(a.Max, b.Max)
	if unionHi == unionLo {
		// Both ranges are the same single point.
		return 1
	}
	return (hi - lo) / (unionHi - unionLo)
}

// LocationOverlap is the mean of the two directional containment
// fractions: how much of the seeker's locations the candidate covers and
// vice versa.
func LocationOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return (containedFraction(a, b) + containedFraction(b, a)) / 2
}

func containedFraction(of, in []string) float64 {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[s] = struct{}{}
	}
	hits := 0
	for _, s := range of {
		if _, ok := set[s]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(of))
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := set[s]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// PreferenceAgreement averages exact-match agreement over the keys
// present in both maps. Keys held by only one side are ignored, so
// sparse profiles are never penalized for missing data. Unset values
// never agree.
func PreferenceAgreement(a, b models.PrefMap) float64 {
	shared := 0
	agreed := 0
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			continue
		}
		shared++
		if av.Equal(bv) {
			agreed++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(agreed) / float64(shared)
}

// ValidateBudget rejects malformed budget ranges before they enter the
// candidate pool.
func ValidateBudget(b models.BudgetRange) error {
	if !b.Valid() {
		return fmt.Errorf("%w: budget min %.2f max %.2f", ErrInvalidRange, b.Min, b.Max)
	}
	return nil
}
