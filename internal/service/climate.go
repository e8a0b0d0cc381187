package service

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
)

const riskIterations = 10000

// ClimateRisk is the output of the climate risk engine for one crop.
type ClimateRisk struct {
	ExpectedRevenue      float64
	WorstCaseRevenue     float64
	CVI                  float64
	RainfallDropRevenue  float64
	PriceCrashRevenue    float64
	CombinedShockRevenue float64
	RiskLevel            string
}

// climateRiskEngine runs a Monte-Carlo revenue simulation plus fixed shock
// scenarios. The simulation is seeded from its inputs, so identical inputs
// always produce identical numbers.
func climateRiskEngine(seedLabel string, basePrice, baseYield, priceVolatility, yieldVolatility float64) ClimateRisk {
	rng := rand.New(rand.NewPCG(riskSeed(seedLabel, basePrice, baseYield), riskSeed(seedLabel, priceVolatility, yieldVolatility)))

	revenues := make([]float64, riskIterations)
	sum := 0.0
	for i := range revenues {
		price := basePrice + rng.NormFloat64()*basePrice*priceVolatility
		yield := baseYield + rng.NormFloat64()*baseYield*yieldVolatility
		revenues[i] = price * yield
		sum += revenues[i]
	}

	expected := sum / riskIterations

	variance := 0.0
	for _, r := range revenues {
		variance += (r - expected) * (r - expected)
	}
	stdDev := math.Sqrt(variance / riskIterations)

	sort.Float64s(revenues)
	worstCase := revenues[riskIterations/20] // 5th percentile
	if worstCase > expected {
		worstCase = expected
	}

	cvi := 0.0
	if expected != 0 {
		cvi = (stdDev / expected) * 100
	}

	return ClimateRisk{
		ExpectedRevenue:      round2(expected),
		WorstCaseRevenue:     round2(worstCase),
		CVI:                  round2(cvi),
		RainfallDropRevenue:  round2(basePrice * baseYield * 0.8),
		PriceCrashRevenue:    round2(basePrice * 0.75 * baseYield),
		CombinedShockRevenue: round2(basePrice * 0.75 * baseYield * 0.75),
		RiskLevel:            riskLevelForCVI(cvi),
	}
}

func riskLevelForCVI(cvi float64) string {
	switch {
	case cvi < 15:
		return "Low Risk"
	case cvi < 30:
		return "Moderate Risk"
	case cvi < 50:
		return "High Risk"
	default:
		return "Extreme Risk"
	}
}

func riskSeed(label string, a, b float64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(label))
	var buf [16]byte
	writeFloat(buf[:8], a)
	writeFloat(buf[8:], b)
	h.Write(buf[:])
	return h.Sum64()
}

func writeFloat(dst []byte, f float64) {
	bits := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		dst[i] = byte(bits >> (8 * i))
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
