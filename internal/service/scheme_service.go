package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"agrisage/internal/model"
)

// SchemeDefinition is one government scheme in the static corpus, with
// localized copy per supported language.
type SchemeDefinition struct {
	ID              string
	Name            string
	Description     map[model.Language]string
	Benefit         map[model.Language]string
	EligibilityHint map[model.Language]string
	Tags            []string
	Link            string
}

var schemes = []SchemeDefinition{
	{
		ID:   "pm-kisan",
		Name: "PM-KISAN",
		Description: map[model.Language]string{
			model.LangEnglish: "Income support scheme with direct benefit transfer.",
			model.LangHindi:   "सीधी आय सहायता के लिए DBT योजना।",
			model.LangTelugu:  "నేరుగా ఆదాయ మద్దతు అందించే DBT పథకం.",
		},
		Benefit: map[model.Language]string{
			model.LangEnglish: "Rs 6,000 per year in 3 installments.",
			model.LangHindi:   "सालाना 6,000 रुपये, 3 किस्तों में।",
			model.LangTelugu:  "ఏడాదికి రూ.6,000 మూడు విడతల్లో.",
		},
		EligibilityHint: map[model.Language]string{
			model.LangEnglish: "Small and marginal farmer families with valid land records.",
			model.LangHindi:   "वैध भूमि रिकॉर्ड वाले छोटे और सीमांत किसान परिवार।",
			model.LangTelugu:  "చెల్లుబాటు అయ్యే భూ రికార్డులు ఉన్న చిన్న/సూక్ష్మ రైతు కుటుంబాలు.",
		},
		Tags: []string{"income", "support", "kisan", "cash", "benefit"},
		Link: "https://pmkisan.gov.in/",
	},
	{
		ID:   "pmfby",
		Name: "PMFBY",
		Description: map[model.Language]string{
			model.LangEnglish: "Crop insurance against natural calamities and crop loss.",
			model.LangHindi:   "प्राकृतिक आपदाओं और फसल नुकसान के लिए फसल बीमा।",
			model.LangTelugu:  "ప్రకృతి వైపరీత్యాలు, పంట నష్టానికి బీమా పథకం.",
		},
		Benefit: map[model.Language]string{
			model.LangEnglish: "Low premium crop insurance with claim support.",
			model.LangHindi:   "कम प्रीमियम पर फसल बीमा और क्लेम सहायता।",
			model.LangTelugu:  "తక్కువ ప్రీమియంతో పంట బీమా మరియు క్లెయిమ్ మద్దతు.",
		},
		EligibilityHint: map[model.Language]string{
			model.LangEnglish: "Farmers growing notified crops in notified areas.",
			model.LangHindi:   "सूचित क्षेत्रों में सूचित फसल उगाने वाले किसान।",
			model.LangTelugu:  "నోటిఫై చేసిన ప్రాంతాల్లో నోటిఫై చేసిన పంటలు పండించే రైతులు.",
		},
		Tags: []string{"insurance", "risk", "claim", "crop loss", "premium"},
		Link: "https://pmfby.gov.in/",
	},
	{
		ID:   "soil-health-card",
		Name: "Soil Health Card",
		Description: map[model.Language]string{
			model.LangEnglish: "Soil testing and nutrient recommendations.",
			model.LangHindi:   "मृदा परीक्षण और पोषक तत्व आधारित सिफारिशें।",
			model.LangTelugu:  "నేల పరీక్ష మరియు పోషక విలువలపై సిఫార్సులు.",
		},
		Benefit: map[model.Language]string{
			model.LangEnglish: "Get NPK and soil health guidance from nearby labs.",
			model.LangHindi:   "नजदीकी लैब से NPK और मिट्टी स्वास्थ्य मार्गदर्शन।",
			model.LangTelugu:  "సమీప ల్యాబ్‌ల ద్వారా NPK మరియు నేల ఆరోగ్య మార్గదర్శకం.",
		},
		EligibilityHint: map[model.Language]string{
			model.LangEnglish: "Available for most farmers via agriculture department channels.",
			model.LangHindi:   "कृषि विभाग चैनलों के जरिए अधिकांश किसानों के लिए उपलब्ध।",
			model.LangTelugu:  "వ్యవసాయ శాఖ ఛానల్స్ ద్వారా చాలా మంది రైతులకు అందుబాటులో ఉంటుంది.",
		},
		Tags: []string{"soil", "npk", "fertilizer", "test", "nutrient"},
		Link: "https://soilhealth.dac.gov.in/",
	},
	{
		ID:   "kisan-credit-card",
		Name: "Kisan Credit Card",
		Description: map[model.Language]string{
			model.LangEnglish: "Short-term credit for crop cultivation expenses.",
			model.LangHindi:   "फसल खेती खर्च के लिए अल्पकालिक ऋण।",
			model.LangTelugu:  "పంట సాగు ఖర్చులకు తక్షణ వ్యవసాయ రుణం.",
		},
		Benefit: map[model.Language]string{
			model.LangEnglish: "Working capital and interest subvention support.",
			model.LangHindi:   "वर्किंग कैपिटल और ब्याज में सहायता।",
			model.LangTelugu:  "వర్కింగ్ క్యాపిటల్ మరియు వడ్డీ రాయితీ మద్దతు.",
		},
		EligibilityHint: map[model.Language]string{
			model.LangEnglish: "Farmers with basic KYC and land/cultivation proof.",
			model.LangHindi:   "मूल KYC और भूमि/खेती प्रमाण वाले किसान।",
			model.LangTelugu:  "మౌలిక KYC మరియు భూ/సాగు ధృవీకరణ ఉన్న రైతులు.",
		},
		Tags: []string{"loan", "credit", "kcc", "interest", "bank"},
		Link: "https://www.myscheme.gov.in/schemes/kcc",
	},
	{
		ID:   "pmksy",
		Name: "PMKSY",
		Description: map[model.Language]string{
			model.LangEnglish: "Irrigation and water-use efficiency support.",
			model.LangHindi:   "सिंचाई और जल उपयोग दक्षता सहायता।",
			model.LangTelugu:  "పారుదల మరియు నీటి వినియోగ సామర్థ్య మద్దతు.",
		},
		Benefit: map[model.Language]string{
			model.LangEnglish: "Support for micro-irrigation and better water management.",
			model.LangHindi:   "माइक्रो-इरिगेशन और बेहतर जल प्रबंधन के लिए सहायता।",
			model.LangTelugu:  "మైక్రో ఇరిగేషన్ మరియు నీటి నిర్వహణకు మద్దతు.",
		},
		EligibilityHint: map[model.Language]string{
			model.LangEnglish: "Farmers in regions covered by state agriculture departments.",
			model.LangHindi:   "राज्य कृषि विभाग द्वारा कवर क्षेत्रों के किसान।",
			model.LangTelugu:  "రాష్ట్ర వ్యవసాయ శాఖ కవరేజి ఉన్న ప్రాంతాల రైతులు.",
		},
		Tags: []string{"irrigation", "water", "drip", "sprinkler", "pmksy"},
		Link: "https://pmksy.gov.in/",
	},
}

// Intent tags returned by DetectIntent. Closed set.
const (
	IntentRiskInsurance = "risk_insurance"
	IntentFinanceCredit = "finance_credit"
	IntentSoilNutrients = "soil_nutrients"
	IntentIrrigation    = "irrigation"
	IntentSchemeLookup  = "scheme_lookup"
	IntentGeneral       = "general"
)

var intentKeywords = []struct {
	intent string
	words  []string
}{
	{IntentRiskInsurance, []string{"insurance", "risk", "loss", "premium", "claim", "बीमा", "जोखिम", "బీమా", "నష్టం"}},
	{IntentFinanceCredit, []string{"loan", "credit", "bank", "kcc", "ऋण", "लोन", "రుణం", "లోన్"}},
	{IntentSoilNutrients, []string{"soil", "npk", "fertilizer", "ph", "मिट्टी", "उर्वरक", "నేల", "ఎరువు"}},
	{IntentIrrigation, []string{"water", "irrigation", "drip", "rain", "पानी", "सिंचाई", "నీరు", "పారుదల"}},
	{IntentSchemeLookup, []string{"scheme", "subsidy", "yojana", "benefit", "government", "योजना", "सब्सिडी", "పథకం", "సబ్సిడీ"}},
}

var intentBoost = map[string]map[string]float64{
	IntentRiskInsurance: {"pmfby": 3.0},
	IntentFinanceCredit: {"kisan-credit-card": 3.0},
	IntentSoilNutrients: {"soil-health-card": 3.0},
	IntentIrrigation:    {"pmksy": 3.0},
	IntentSchemeLookup:  {"pm-kisan": 1.5},
}

// SchemeService matches government schemes to a farmer's situation and
// composes localized replies.
type SchemeService struct{}

// NewSchemeService creates a new scheme service
func NewSchemeService() *SchemeService {
	return &SchemeService{}
}

// DetectIntent classifies a message against the closed intent set.
func (s *SchemeService) DetectIntent(query string) string {
	q := strings.ToLower(query)
	for _, group := range intentKeywords {
		for _, word := range group.words {
			if strings.Contains(q, word) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}

func isSmallFarmer(acres float64) bool {
	return acres <= 5
}

// eligibilityFlag evaluates the per-scheme rule against the farmer context.
// Independent of retrieval scores.
func eligibilityFlag(schemeID string, acres float64) bool {
	switch schemeID {
	case "pm-kisan":
		return isSmallFarmer(acres)
	case "kisan-credit-card":
		return acres > 0
	default:
		return true
	}
}

func schemeScore(scheme SchemeDefinition, queryTokens []string, location string, crop string) float64 {
	score := 0.0
	tagSet := make(map[string]bool, len(scheme.Tags))
	for _, tag := range scheme.Tags {
		tagSet[tag] = true
	}

	for _, token := range queryTokens {
		if tagSet[token] {
			score += 2.0
			continue
		}
		for _, tag := range scheme.Tags {
			if strings.Contains(tag, token) {
				score += 0.5
				break
			}
		}
	}

	loc := strings.ToLower(location)
	if strings.Contains(loc, "water") && tagSet["irrigation"] {
		score += 1.0
	}
	cropLower := strings.ToLower(crop)
	if (cropLower == "paddy" || cropLower == "rice") && scheme.ID == "pmfby" {
		score += 0.75
	}

	if scheme.ID == "pm-kisan" {
		score += 0.4
	}
	return score
}

// FindRelevantSchemes ranks the scheme corpus for a query and farmer
// context. Retrieval hits boost the schemes their evidence maps to, with
// the highest score per scheme winning.
func (s *SchemeService) FindRelevantSchemes(query, location string, acres float64, crop string, language model.Language, ragHits []model.RetrievalHit, limit int) ([]model.SchemeSuggestion, string) {
	intent := s.DetectIntent(query)
	tokens := tokenize(query)
	hitBoost := BestScorePerScheme(ragHits)

	type scoredScheme struct {
		score  float64
		scheme SchemeDefinition
	}
	scored := make([]scoredScheme, 0, len(schemes))
	for _, scheme := range schemes {
		score := schemeScore(scheme, tokens, location, crop)
		score += intentBoost[intent][scheme.ID]
		score += hitBoost[scheme.ID] * 1.5
		scored = append(scored, scoredScheme{score: score, scheme: scheme})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].scheme.ID < scored[j].scheme.ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	top := make([]model.SchemeSuggestion, 0, len(scored))
	for _, entry := range scored {
		top = append(top, model.SchemeSuggestion{
			ID:              entry.scheme.ID,
			Name:            entry.scheme.Name,
			Description:     entry.scheme.Description[language],
			Benefit:         entry.scheme.Benefit[language],
			EligibilityHint: entry.scheme.EligibilityHint[language],
			Eligible:        eligibilityFlag(entry.scheme.ID, acres),
			Score:           math.Round(entry.score*100) / 100,
			Link:            entry.scheme.Link,
		})
	}
	return top, intent
}

// BuildReply composes the natural-language reply for the detected intent in
// the requested language. Falls back to a templated sentence when there is
// nothing richer to say, never failing the request.
func (s *SchemeService) BuildReply(location string, acres float64, crop string, language model.Language, suggestions []model.SchemeSuggestion, intent string) string {
	var names []string
	for i, sg := range suggestions {
		if i == 2 {
			break
		}
		names = append(names, sg.Name)
	}
	topNames := strings.Join(names, ", ")

	cropLabel := crop
	if cropLabel == "" {
		cropLabel = "your crop"
	}

	switch language {
	case model.LangHindi:
		switch intent {
		case IntentRiskInsurance:
			return fmt.Sprintf("आपके क्षेत्र (%s) और %g एकड़ के आधार पर जोखिम प्रबंधन के लिए %s उपयोगी हैं। %s के लिए बीमा और आय सुरक्षा पर ध्यान दें।", location, acres, topNames, cropLabel)
		case IntentFinanceCredit:
			return fmt.Sprintf("वित्त/क्रेडिट सहायता के लिए %s देखें। बैंक में KYC, भूमि विवरण और फसल योजना साथ रखें।", topNames)
		default:
			return fmt.Sprintf("आपकी जानकारी (स्थान: %s, भूमि: %g एकड़) के आधार पर ये सरकारी योजनाएँ उपयोगी हैं: %s।", location, acres, topNames)
		}
	case model.LangTelugu:
		switch intent {
		case IntentRiskInsurance:
			return fmt.Sprintf("మీ ప్రాంతం (%s) మరియు %g ఎకరాల ప్రకారం రిస్క్ మేనేజ్‌మెంట్‌కు %s ఉపయోగపడతాయి. %s కోసం బీమా, ఆదాయ భద్రత చూడండి.", location, acres, topNames, cropLabel)
		case IntentFinanceCredit:
			return fmt.Sprintf("ఫైనాన్స్/క్రెడిట్ కోసం %s చూడండి. బ్యాంక్‌లో KYC, భూ పత్రాలు, పంట ప్రణాళిక తీసుకెళ్లండి.", topNames)
		default:
			return fmt.Sprintf("మీ వివరాల ఆధారంగా (ప్రాంతం: %s, భూమి: %g ఎకరాలు) ఈ ప్రభుత్వ పథకాలు ఉపయోగకరంగా ఉన్నాయి: %s.", location, acres, topNames)
		}
	default:
		switch intent {
		case IntentRiskInsurance:
			return fmt.Sprintf("For risk and loss protection in %s (%g acres), start with %s. These can reduce downside for %s.", location, acres, topNames, cropLabel)
		case IntentFinanceCredit:
			return fmt.Sprintf("For financing and input-cost support, check %s. Keep KYC, land records, and crop plan ready at your bank/CSC.", topNames)
		default:
			return fmt.Sprintf("Based on your profile (%s, %g acres), these government schemes are most relevant: %s.", location, acres, topNames)
		}
	}
}
