package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvedLocation_PrefersExplicitLocation(t *testing.T) {
	req := &RecommendationRequest{Location: "Warangal, Telangana", District: "Guntur", State: "Andhra Pradesh"}
	require.Equal(t, "Warangal, Telangana", req.ResolvedLocation())
}

func TestResolvedLocation_JoinsDistrictAndState(t *testing.T) {
	req := &RecommendationRequest{District: "Guntur", State: "Andhra Pradesh"}
	require.Equal(t, "Guntur, Andhra Pradesh", req.ResolvedLocation())

	req = &RecommendationRequest{District: "Guntur"}
	require.Equal(t, "Guntur", req.ResolvedLocation())

	req = &RecommendationRequest{State: "Telangana"}
	require.Equal(t, "Telangana", req.ResolvedLocation())
}

func TestResolvedAcres_AcceptsLandSizeAlias(t *testing.T) {
	req := &RecommendationRequest{LandSize: 3.5}
	require.Equal(t, 3.5, req.ResolvedAcres())

	req = &RecommendationRequest{Acres: 2, LandSize: 9}
	require.Equal(t, 2.0, req.ResolvedAcres())
}

func TestMergedFarmerInput_FoldsStructuredFields(t *testing.T) {
	req := &RecommendationRequest{
		FarmerInput: "black soil near the river",
		Season:      "kharif",
		Water:       "canal",
		SoilType:    "clay",
	}
	merged := req.MergedFarmerInput()
	require.Contains(t, merged, "black soil near the river")
	require.Contains(t, merged, "season kharif")
	require.Contains(t, merged, "water canal")
	require.Contains(t, merged, "clay soil")

	empty := &RecommendationRequest{}
	require.Equal(t, "", empty.MergedFarmerInput())
}

func TestRecommendationRequestValidate(t *testing.T) {
	require.NoError(t, (&RecommendationRequest{Location: "Pune", Acres: 1}).Validate())
	require.Error(t, (&RecommendationRequest{Location: "Pune"}).Validate())
	require.Error(t, (&RecommendationRequest{Location: "Pune", Acres: -2}).Validate())
	require.Error(t, (&RecommendationRequest{Location: "Pune", Acres: math.NaN()}).Validate())
	require.Error(t, (&RecommendationRequest{Acres: 1}).Validate())
}

func TestSoilFeaturesValidate(t *testing.T) {
	good := SoilFeatures{N: 80, P: 48, K: 40, Temperature: 24, Humidity: 80, Rainfall: 230, PH: 6.4}
	require.NoError(t, good.Validate())

	bad := good
	bad.Humidity = 120
	require.Error(t, bad.Validate())

	bad = good
	bad.N = math.NaN()
	require.Error(t, bad.Validate())

	bad = good
	bad.PH = 15
	require.Error(t, bad.Validate())

	bad = good
	bad.Temperature = 80
	require.Error(t, bad.Validate())
}

func TestNormalizeLanguage(t *testing.T) {
	require.Equal(t, LangHindi, NormalizeLanguage(" HI "))
	require.Equal(t, LangTelugu, NormalizeLanguage("te"))
	require.Equal(t, LangEnglish, NormalizeLanguage("fr"))
	require.Equal(t, LangEnglish, NormalizeLanguage(""))
}

func TestAssistantChatRequestNormalize(t *testing.T) {
	req := &AssistantChatRequest{Message: "which schemes help me"}
	req.Normalize()
	require.Equal(t, "India", req.Location)
	require.Equal(t, 1.0, req.Acres)

	require.Error(t, (&AssistantChatRequest{Message: "x"}).Validate())
	require.NoError(t, (&AssistantChatRequest{Message: "ok"}).Validate())
}
