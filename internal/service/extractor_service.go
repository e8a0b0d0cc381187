package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"agrisage/internal/config"
	"agrisage/internal/model"
)

// featureRanges bound every extracted value to agronomically plausible spans.
var featureRanges = map[string][2]float64{
	"N":           {10.0, 150.0},
	"P":           {5.0, 120.0},
	"K":           {5.0, 150.0},
	"temperature": {10.0, 45.0},
	"humidity":    {20.0, 100.0},
	"rainfall":    {0.0, 500.0},
	"ph":          {3.5, 9.5},
}

const extractionPrompt = `You are an agricultural feature estimator for crop recommendation.
Based on the farmer context, estimate realistic values for:
N, P, K, temperature, humidity, rainfall, ph.

Inputs:
- Location: %s
- Farm size (acres): %g
- Farmer input: %s

Requirements:
- Return ONLY strict JSON with numeric values for all keys.
- Do not return null.
- Use agronomically plausible estimates for the location when details are missing.
- Keep values in realistic ranges.

Output keys exactly:
N, P, K, temperature, humidity, rainfall, ph`

var hintPatterns = map[string]*regexp.Regexp{
	"N":           regexp.MustCompile(`\b(?:n|nitrogen)\s*[:=]?\s*(-?\d+(?:\.\d+)?)`),
	"P":           regexp.MustCompile(`\b(?:p|phosphorus)\s*[:=]?\s*(-?\d+(?:\.\d+)?)`),
	"K":           regexp.MustCompile(`\b(?:k|potassium)\s*[:=]?\s*(-?\d+(?:\.\d+)?)`),
	"temperature": regexp.MustCompile(`\b(?:temperature|temp)\s*[:=]?\s*(-?\d+(?:\.\d+)?)`),
	"humidity":    regexp.MustCompile(`\bhumidity\s*[:=]?\s*(-?\d+(?:\.\d+)?)`),
	"rainfall":    regexp.MustCompile(`\brainfall\s*[:=]?\s*(-?\d+(?:\.\d+)?)`),
	"ph":          regexp.MustCompile(`\bph\s*[:=]?\s*(-?\d+(?:\.\d+)?)`),
}

// ExtractorService turns free-form farmer context into a soil feature vector.
// Providers are tried in a fixed order (Gemini, OpenAI, heuristic); the
// heuristic step always succeeds, so extraction never fails a request.
type ExtractorService struct {
	config *config.AIConfig
	client *http.Client
	openai openai.Client
}

// NewExtractorService creates a new feature extractor
func NewExtractorService(cfg *config.AIConfig) *ExtractorService {
	return &ExtractorService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		openai: openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
	}
}

// ExtractionResult bundles the feature vector with its provenance.
type ExtractionResult struct {
	Features model.SoilFeatures
	Notes    []string
	Source   model.InputSource
}

// InferFeatures produces a complete, clamped feature vector for the request.
func (s *ExtractorService) InferFeatures(ctx context.Context, location string, acres float64, farmerInput string) ExtractionResult {
	defaults := heuristicDefaults(location, farmerInput)
	hints := extractNumericHints(farmerInput)
	base := fillMissing(hints, defaults)

	if s.config.GeminiEnabled() {
		if est := s.tryGemini(ctx, location, acres, farmerInput); len(est) > 0 {
			return ExtractionResult{
				Features: model.FeaturesFromMap(fillMissing(est, base)),
				Notes:    []string{"Feature inference via Gemini with location-aware estimation."},
				Source:   model.SourceGemini,
			}
		}
	}

	if s.config.OpenAIEnabled() {
		if est := s.tryOpenAI(ctx, location, acres, farmerInput); len(est) > 0 {
			return ExtractionResult{
				Features: model.FeaturesFromMap(fillMissing(est, base)),
				Notes:    []string{"Feature inference via OpenAI with location-aware estimation."},
				Source:   model.SourceOpenAI,
			}
		}
	}

	return ExtractionResult{
		Features: model.FeaturesFromMap(base),
		Notes:    []string{"Gemini/OpenAI unavailable; used deterministic location-based fallback inference."},
		Source:   model.SourceHeuristic,
	}
}

// tryGemini asks Gemini for a strict-JSON feature estimate. Any failure
// returns an empty map so the chain falls through.
func (s *ExtractorService) tryGemini(ctx context.Context, location string, acres float64, farmerInput string) map[string]float64 {
	prompt := buildExtractionPrompt(location, acres, farmerInput)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.1,
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(s.config.Models.GeminiExtract), s.config.GeminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return parseFeaturePayload(text.String())
}

// tryOpenAI asks OpenAI for the same strict-JSON estimate.
func (s *ExtractorService) tryOpenAI(ctx context.Context, location string, acres float64, farmerInput string) map[string]float64 {
	timeout := time.Duration(s.config.TimeoutMS) * time.Millisecond
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatCompletion, err := s.openai.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Estimate agronomic features from farmer context and output JSON only."),
			openai.UserMessage(buildExtractionPrompt(location, acres, farmerInput)),
		},
		Model:       shared.ChatModel(s.config.Models.OpenAIExtract),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil || len(chatCompletion.Choices) == 0 {
		return nil
	}
	return parseFeaturePayload(chatCompletion.Choices[0].Message.Content)
}

func buildExtractionPrompt(location string, acres float64, farmerInput string) string {
	if strings.TrimSpace(farmerInput) == "" {
		farmerInput = "(none)"
	}
	return fmt.Sprintf(extractionPrompt, location, acres, farmerInput)
}

// parseFeaturePayload reads a strict-JSON feature object, dropping anything
// non-numeric, and clamps the survivors.
func parseFeaturePayload(text string) map[string]float64 {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil
	}

	out := make(map[string]float64)
	for _, field := range model.FeatureOrder {
		raw, ok := data[field]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			out[field] = v
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				out[field] = parsed
			}
		}
	}
	return normalizeFeatures(out)
}

// extractNumericHints pulls explicit "rainfall: 200"-style values out of the
// farmer's narrative.
func extractNumericHints(text string) map[string]float64 {
	lowered := strings.ToLower(text)
	hints := make(map[string]float64)
	for field, pattern := range hintPatterns {
		if m := pattern.FindStringSubmatch(lowered); m != nil {
			if value, err := strconv.ParseFloat(m[1], 64); err == nil {
				hints[field] = value
			}
		}
	}
	return normalizeFeatures(hints)
}

var (
	coastalWords = []string{"coastal", "delta", "kerala", "goa", "assam", "odisha", "andhra", "bengal"}
	dryWords     = []string{"dry", "arid", "drought", "desert", "rajasthan", "rayalaseema"}
	hillWords    = []string{"hill", "mountain", "himalaya", "uttarakhand", "himachal", "sikkim"}
)

// heuristicDefaults derives a deterministic regional baseline from the
// location text, nudged by coastal/dry/hill keywords.
func heuristicDefaults(location, farmerInput string) map[string]float64 {
	digest := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(location))))
	seed := binary.BigEndian.Uint32(digest[:4])

	pick := func(lo, hi float64, shift uint) float64 {
		bucket := float64((seed >> shift) % 1000)
		return lo + (bucket/999.0)*(hi-lo)
	}

	features := map[string]float64{
		"N":           pick(35, 110, 0),
		"P":           pick(20, 75, 3),
		"K":           pick(20, 90, 6),
		"temperature": pick(20, 34, 9),
		"humidity":    pick(45, 85, 12),
		"rainfall":    pick(80, 260, 15),
		"ph":          pick(5.5, 7.5, 18),
	}

	text := strings.ToLower(location + " " + farmerInput)
	if containsAny(text, coastalWords) {
		features["humidity"] += 8
		features["rainfall"] += 70
	}
	if containsAny(text, dryWords) {
		features["humidity"] -= 12
		features["rainfall"] -= 80
		features["temperature"] += 2
	}
	if containsAny(text, hillWords) {
		features["temperature"] -= 4
		features["rainfall"] += 20
	}

	return normalizeFeatures(features)
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// fillMissing overlays features on top of a complete fallback vector.
func fillMissing(features, fallback map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(fallback))
	for k, v := range fallback {
		merged[k] = v
	}
	for k, v := range features {
		merged[k] = v
	}
	return normalizeFeatures(merged)
}

func normalizeFeatures(features map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(features))
	for _, field := range model.FeatureOrder {
		value, ok := features[field]
		if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		bounds := featureRanges[field]
		clamped := math.Max(bounds[0], math.Min(bounds[1], value))
		normalized[field] = math.Round(clamped*100) / 100
	}
	return normalized
}
