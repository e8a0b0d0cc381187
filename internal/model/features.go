package model

import (
	"fmt"
	"math"
)

// FeatureOrder is the canonical ordering of soil/climate features expected by
// the crop model.
var FeatureOrder = []string{"N", "P", "K", "temperature", "humidity", "rainfall", "ph"}

// SoilFeatures is the normalized feature vector produced once per request.
type SoilFeatures struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	PH          float64 `json:"ph"`
}

// Map returns the features keyed by their canonical names.
func (f SoilFeatures) Map() map[string]float64 {
	return map[string]float64{
		"N":           f.N,
		"P":           f.P,
		"K":           f.K,
		"temperature": f.Temperature,
		"humidity":    f.Humidity,
		"rainfall":    f.Rainfall,
		"ph":          f.PH,
	}
}

// FeaturesFromMap builds a SoilFeatures from a map keyed by canonical names.
// Missing keys are left at zero.
func FeaturesFromMap(m map[string]float64) SoilFeatures {
	return SoilFeatures{
		N:           m["N"],
		P:           m["P"],
		K:           m["K"],
		Temperature: m["temperature"],
		Humidity:    m["humidity"],
		Rainfall:    m["rainfall"],
		PH:          m["ph"],
	}
}

// Validate rejects feature vectors the crop model cannot score.
func (f SoilFeatures) Validate() error {
	for name, value := range f.Map() {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("feature %s is not a finite number", name)
		}
	}
	if f.N < 0 || f.P < 0 || f.K < 0 {
		return fmt.Errorf("nutrient values must be non-negative")
	}
	if f.Humidity < 0 || f.Humidity > 100 {
		return fmt.Errorf("humidity must be between 0 and 100")
	}
	if f.Rainfall < 0 {
		return fmt.Errorf("rainfall must be non-negative")
	}
	if f.PH < 0 || f.PH > 14 {
		return fmt.Errorf("ph must be between 0 and 14")
	}
	if f.Temperature < -20 || f.Temperature > 60 {
		return fmt.Errorf("temperature %.1f outside plausible climate range", f.Temperature)
	}
	return nil
}
