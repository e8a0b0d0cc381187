package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"agrisage/internal/model"
)

func TestPolicyChunks_CoverAllSchemes(t *testing.T) {
	chunks, err := PolicyChunks()
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	bySchemeID := map[string]int{}
	seen := map[string]bool{}
	for _, c := range chunks {
		require.NotEmpty(t, c.ID)
		require.NotEmpty(t, c.Title)
		require.NotEmpty(t, c.Content)
		require.False(t, seen[c.ID], "duplicate chunk id %s", c.ID)
		seen[c.ID] = true
		bySchemeID[c.SchemeID]++
	}

	for _, id := range []string{"pm-kisan", "pmfby", "soil-health-card", "kisan-credit-card", "pmksy"} {
		require.GreaterOrEqual(t, bySchemeID[id], 1, "scheme %s has no corpus chunks", id)
	}
}

func TestCropProfiles_CompleteFeatureStats(t *testing.T) {
	profiles, err := CropProfiles()
	require.NoError(t, err)
	require.NotEmpty(t, profiles)

	for crop, profile := range profiles {
		for _, field := range model.FeatureOrder {
			_, hasMean := profile.Mean[field]
			require.True(t, hasMean, "crop %s missing mean for %s", crop, field)
			std, hasStd := profile.Std[field]
			require.True(t, hasStd, "crop %s missing std for %s", crop, field)
			require.Greater(t, std, 0.0, "crop %s std for %s", crop, field)
		}
	}
}

func TestMarketReference_CoversProfiledCrops(t *testing.T) {
	profiles, err := CropProfiles()
	require.NoError(t, err)
	table, err := MarketReference()
	require.NoError(t, err)

	for crop := range profiles {
		ref, ok := table[crop]
		require.True(t, ok, "crop %s missing from market table", crop)
		require.Greater(t, ref.PricePerQuintal, 0.0)
		require.Greater(t, ref.YieldPerAcre, 0.0)
		require.Greater(t, ref.Volatility, 0.0)
		require.Less(t, ref.Volatility, 1.0)
	}
}
