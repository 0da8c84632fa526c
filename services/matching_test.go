package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
	"github.com/BitBlock9310/BachelorBuddy/storage/inmemory"
)

func roommate(budget models.BudgetRange, locations, tags []string, prefs models.PrefMap) *models.RoommateProfile {
	return &models.RoommateProfile{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		BudgetRange:        budget,
		PreferredLocations: locations,
		LifestyleTags:      tags,
		Preferences:        prefs,
		IsActive:           true,
	}
}

func TestBudgetOverlap(t *testing.T) {
	cases := []struct {
		name string
		a, b models.BudgetRange
		want float64
	}{
		{"disjoint", models.BudgetRange{Min: 1000, Max: 2000}, models.BudgetRange{Min: 3000, Max: 4000}, 0},
		{"partial", models.BudgetRange{Min: 5000, Max: 8000}, models.BudgetRange{Min: 7000, Max: 10000}, 0.2},
		{"identical", models.BudgetRange{Min: 5000, Max: 8000}, models.BudgetRange{Min: 5000, Max: 8000}, 1},
		{"identical point", models.BudgetRange{Min: 6000, Max: 6000}, models.BudgetRange{Min: 6000, Max: 6000}, 1},
		{"touching endpoints", models.BudgetRange{Min: 1000, Max: 2000}, models.BudgetRange{Min: 2000, Max: 3000}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, services.BudgetOverlap(tc.a, tc.b), 1e-9)
			assert.InDelta(t, tc.want, services.BudgetOverlap(tc.b, tc.a), 1e-9, "must be symmetric")
		})
	}
}

func TestLocationOverlap(t *testing.T) {
	assert.Equal(t, 0.0, services.LocationOverlap(nil, []string{"hsr"}))
	assert.Equal(t, 1.0, services.LocationOverlap([]string{"hsr", "btm"}, []string{"btm", "hsr"}))
	// One of two covered on each side.
	assert.InDelta(t, 0.5, services.LocationOverlap([]string{"hsr", "btm"}, []string{"hsr", "indiranagar"}), 1e-9)
	// Asymmetric coverage averages the two directions.
	assert.InDelta(t, 0.75, services.LocationOverlap([]string{"hsr", "btm"}, []string{"hsr"}), 1e-9)
}

func TestPreferenceAgreementSharedKeysOnly(t *testing.T) {
	a := models.PrefMap{
		"smoking":   models.BoolPref(false),
		"food":      models.StringPref("veg"),
		"night_owl": models.BoolPref(true),
	}
	b := models.PrefMap{
		"smoking": models.BoolPref(false),
		"food":    models.StringPref("non-veg"),
		"pets":    models.BoolPref(true),
	}
	// 2 shared keys, 1 agrees. Keys on only one side are ignored.
	assert.InDelta(t, 0.5, services.PreferenceAgreement(a, b), 1e-9)
}

func TestPreferenceAgreementUnsetNeverAgrees(t *testing.T) {
	a := models.PrefMap{"smoking": {Kind: models.PrefUnset}}
	b := models.PrefMap{"smoking": {Kind: models.PrefUnset}}
	assert.Equal(t, 0.0, services.PreferenceAgreement(a, b))
}

func TestRankCandidatesDeterministic(t *testing.T) {
	seeker := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, []string{"early_riser"}, nil)
	pool := []*models.RoommateProfile{
		roommate(models.BudgetRange{Min: 6000, Max: 9000}, []string{"hsr"}, []string{"early_riser"}, nil),
		roommate(models.BudgetRange{Min: 1000, Max: 2000}, []string{"whitefield"}, nil, nil),
		roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr", "btm"}, []string{"early_riser"}, nil),
	}

	first := services.RankCandidates(seeker, pool, services.DefaultMatchWeights(), 0)
	for i := 0; i < 10; i++ {
		again := services.RankCandidates(seeker, pool, services.DefaultMatchWeights(), 0)
		require.Equal(t, first, again)
	}
	require.Len(t, first, 3)
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].Score, first[i].Score)
	}
}

func TestRankCandidatesTieBreakByID(t *testing.T) {
	seeker := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)
	// Two identical candidates produce identical scores.
	a := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)
	b := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)

	matches := services.RankCandidates(seeker, []*models.RoommateProfile{a, b}, services.DefaultMatchWeights(), 0)
	require.Len(t, matches, 2)
	assert.Equal(t, matches[0].Score, matches[1].Score)
	assert.Less(t, matches[0].CandidateID.String(), matches[1].CandidateID.String())
}

func TestRankCandidatesExcludesSelfAndInactive(t *testing.T) {
	seeker := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)
	inactive := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)
	inactive.IsActive = false
	other := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)

	matches := services.RankCandidates(seeker, []*models.RoommateProfile{seeker, inactive, other}, services.DefaultMatchWeights(), 0)
	require.Len(t, matches, 1)
	assert.Equal(t, other.ID, matches[0].CandidateID)
}

func TestRankCandidatesLimit(t *testing.T) {
	seeker := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)
	pool := make([]*models.RoommateProfile, 10)
	for i := range pool {
		pool[i] = roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, nil, nil)
	}
	matches := services.RankCandidates(seeker, pool, services.DefaultMatchWeights(), 3)
	assert.Len(t, matches, 3)
}

func TestMatchesForLoadsPool(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()

	seeker := roommate(models.BudgetRange{Min: 5000, Max: 9000}, []string{"hsr"}, []string{"early_riser"}, nil)
	cand := roommate(models.BudgetRange{Min: 6000, Max: 9000}, []string{"hsr"}, []string{"early_riser"}, nil)
	require.NoError(t, store.UpsertRoommateProfile(ctx, seeker))
	require.NoError(t, store.UpsertRoommateProfile(ctx, cand))

	svc := services.NewMatchingService(store, services.DefaultMatchWeights())
	matches, err := svc.MatchesFor(ctx, seeker.UserID, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, cand.ID, matches[0].CandidateID)
	assert.Greater(t, matches[0].Score, 0.0)
}

func TestValidateBudget(t *testing.T) {
	assert.NoError(t, services.ValidateBudget(models.BudgetRange{Min: 1000, Max: 2000}))
	assert.NoError(t, services.ValidateBudget(models.BudgetRange{Min: 2000, Max: 2000}))
	assert.ErrorIs(t, services.ValidateBudget(models.BudgetRange{Min: 3000, Max: 2000}), services.ErrInvalidRange)
	assert.ErrorIs(t, services.ValidateBudget(models.BudgetRange{Min: -1, Max: 2000}), services.ErrInvalidRange)
}
