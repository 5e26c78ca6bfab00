package analysis

import "wastewatch/internal/service/ai"

// WasteAnalysis is the aggregate detection result for one image.
// It is not modified after Analyze returns it.
type WasteAnalysis struct {
	Detected          bool                `json:"detected"`
	ObjectsCount      int                 `json:"objectsCount"`
	Objects           []ai.DetectedObject `json:"objects"`
	AverageConfidence float64             `json:"averageConfidence"`
	WasteCategories   ai.CategoryCounts   `json:"wasteCategories"`
	SuggestedSeverity int                 `json:"suggestedSeverity"`
	ModelVersion      string              `json:"modelVersion"`
	ProcessingTime    int64               `json:"processingTime"` // milliseconds, informational
}

// IsMock reports whether the analysis came from the fallback instead of inference.
func (a *WasteAnalysis) IsMock() bool {
	return IsMockVersion(a.ModelVersion)
}

// Recommendation is the qualitative cleanup tier.
type Recommendation string

const (
	RecommendationExcellent Recommendation = "excellent"
	RecommendationGood      Recommendation = "good"
	RecommendationPartial   Recommendation = "partial"
	RecommendationMinimal   Recommendation = "minimal"
)

var recommendationMessages = map[Recommendation]string{
	RecommendationExcellent: "Excellent cleanup! The area has been significantly improved.",
	RecommendationGood:      "Good cleanup effort. Most waste has been removed.",
	RecommendationPartial:   "Partial cleanup detected. Consider revisiting the area.",
	RecommendationMinimal:   "Minimal cleanup detected. Please ensure thorough waste removal.",
}

// Message returns the display text for the tier.
func (r Recommendation) Message() string {
	return recommendationMessages[r]
}

// RecommendationFor maps an effectiveness percentage to its tier.
func RecommendationFor(effectiveness int) Recommendation {
	switch {
	case effectiveness >= 80:
		return RecommendationExcellent
	case effectiveness >= 60:
		return RecommendationGood
	case effectiveness >= 40:
		return RecommendationPartial
	default:
		return RecommendationMinimal
	}
}

// VerificationResult compares a before and an after analysis of one site.
type VerificationResult struct {
	BeforeAnalysis       *WasteAnalysis `json:"beforeAnalysis"`
	AfterAnalysis        *WasteAnalysis `json:"afterAnalysis"`
	ObjectsRemoved       int            `json:"objectsRemoved"`
	Verified             bool           `json:"verified"`
	CleanupEffectiveness int            `json:"cleanupEffectiveness"`
	Confidence           float64        `json:"confidence"`
	Recommendation       Recommendation `json:"recommendation"`
	Message              string         `json:"message"`
}
