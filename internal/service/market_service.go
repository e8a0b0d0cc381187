package service

import (
	"math"
	"sort"

	"agrisage/internal/corpus"
	"agrisage/internal/model"
)

const defaultYieldVolatility = 0.10

// MarketService computes per-crop market and climate-risk outlooks from the
// embedded market reference table, with a formula fallback for crops the
// table does not cover.
type MarketService struct {
	table map[string]corpus.MarketRef
}

// NewMarketService loads the market reference table.
func NewMarketService() (*MarketService, error) {
	table, err := corpus.MarketReference()
	if err != nil {
		return nil, err
	}
	return &MarketService{table: table}, nil
}

// priceAndYield looks up the reference table, falling back to a
// condition-derived estimate for unknown crops.
func (s *MarketService) priceAndYield(crop string, features model.SoilFeatures, confidence float64) corpus.MarketRef {
	if ref, ok := s.table[crop]; ok {
		return ref
	}

	rainfallFactor := clamp(features.Rainfall/180.0, 0.7, 1.35)
	tempPenalty := math.Max(0.72, 1-math.Abs(features.Temperature-27)*0.015)
	phFactor := math.Max(0.8, 1-math.Abs(features.PH-6.5)*0.1)

	basePrice := 2100 + confidence*2900
	baseYield := 12 + (features.N+features.P+features.K)/42.0

	return corpus.MarketRef{
		PricePerQuintal: round2(basePrice * phFactor),
		YieldPerAcre:    round2(baseYield * rainfallFactor * tempPenalty),
		Volatility:      0.16,
	}
}

// BuildMarketPredictions computes the market outlook for every ranked crop.
// Entries are sorted by expected total revenue; the recommended market crop
// maximizes revenue discounted by volatility, which can differ from the
// ranker's top-confidence crop.
func (s *MarketService) BuildMarketPredictions(topCrops []model.CropPrediction, features model.SoilFeatures, acres float64) model.MarketPrediction {
	perCrop := make([]model.MarketCropPrediction, 0, len(topCrops))

	for _, item := range topCrops {
		ref := s.priceAndYield(item.Crop, features, item.Confidence)
		risk := climateRiskEngine(item.Crop, ref.PricePerQuintal, ref.YieldPerAcre, ref.Volatility, defaultYieldVolatility)

		perCrop = append(perCrop, model.MarketCropPrediction{
			Crop:                    item.Crop,
			PricePerQuintal:         round2(ref.PricePerQuintal),
			YieldPerAcre:            round2(ref.YieldPerAcre),
			ExpectedRevenuePerAcre:  risk.ExpectedRevenue,
			WorstCaseRevenuePerAcre: risk.WorstCaseRevenue,
			ExpectedRevenueTotal:    round2(risk.ExpectedRevenue * acres),
			WorstCaseRevenueTotal:   round2(risk.WorstCaseRevenue * acres),
			CVI:                     risk.CVI,
			RiskLevel:               risk.RiskLevel,
			Confidence:              math.Round(item.Confidence*1e4) / 1e4,
			Scenarios: model.ScenarioRevenues{
				RainfallDrop:  risk.RainfallDropRevenue,
				PriceCrash:    risk.PriceCrashRevenue,
				CombinedShock: risk.CombinedShockRevenue,
			},
		})
	}

	sort.SliceStable(perCrop, func(i, j int) bool {
		if perCrop[i].ExpectedRevenueTotal != perCrop[j].ExpectedRevenueTotal {
			return perCrop[i].ExpectedRevenueTotal > perCrop[j].ExpectedRevenueTotal
		}
		return perCrop[i].Crop < perCrop[j].Crop
	})

	overallCVI := 0.0
	for _, row := range perCrop {
		overallCVI += row.CVI
	}
	if len(perCrop) > 0 {
		overallCVI = round2(overallCVI / float64(len(perCrop)))
	}

	return model.MarketPrediction{
		PerCrop:               perCrop,
		OverallCVI:            overallCVI,
		RecommendedMarketCrop: recommendedMarketCrop(perCrop),
	}
}

// recommendedMarketCrop picks the crop with the best risk-adjusted revenue:
// expected total discounted by (1 + CVI/100).
func recommendedMarketCrop(perCrop []model.MarketCropPrediction) string {
	best := ""
	bestScore := math.Inf(-1)
	for _, row := range perCrop {
		score := row.ExpectedRevenueTotal / (1 + row.CVI/100)
		if score > bestScore {
			bestScore = score
			best = row.Crop
		}
	}
	return best
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
