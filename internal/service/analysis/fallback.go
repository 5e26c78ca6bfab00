package analysis

import (
	"strings"

	"wastewatch/internal/service/ai"
)

// MockSuffix tags the model version of analyses produced without inference.
const MockSuffix = " (Mock)"

var mockDetections = []struct {
	class      string
	confidence float64
}{
	{"plastic_bottle", 0.92},
	{"plastic_bag", 0.87},
	{"can", 0.81},
}

// MockAnalysis returns the canned analysis used when the detector cannot run.
// Every call builds a new value with identical contents.
func MockAnalysis(modelVersion string) *WasteAnalysis {
	objects := make([]ai.DetectedObject, 0, len(mockDetections))
	for i, d := range mockDetections {
		objects = append(objects, ai.DetectedObject{
			Class:      d.class,
			Confidence: d.confidence,
			Box: ai.BoundingBox{
				X:      float64(100 + i*50),
				Y:      100,
				Width:  50,
				Height: 120,
			},
		})
	}

	return &WasteAnalysis{
		Detected:          true,
		ObjectsCount:      len(objects),
		Objects:           objects,
		AverageConfidence: 0.87,
		WasteCategories:   ai.CountCategories(objects),
		SuggestedSeverity: 3,
		ModelVersion:      modelVersion + MockSuffix,
		ProcessingTime:    150,
	}
}

// ReportFallbackVersion is the model version of ReportFallbackAnalysis.
const ReportFallbackVersion = "Fallback Mock"

var reportFallbackDetections = []struct {
	class      string
	confidence float64
}{
	{"plastic_bottle", 0.85},
	{"plastic_bag", 0.80},
}

// ReportFallbackAnalysis is stored on a report whose photo could not be analyzed at all,
// so every report carries an analysis.
func ReportFallbackAnalysis() *WasteAnalysis {
	objects := make([]ai.DetectedObject, 0, len(reportFallbackDetections))
	for i, d := range reportFallbackDetections {
		objects = append(objects, ai.DetectedObject{
			Class:      d.class,
			Confidence: d.confidence,
			Box: ai.BoundingBox{
				X:      float64(100 + i*100),
				Y:      100,
				Width:  50,
				Height: 120,
			},
		})
	}

	return &WasteAnalysis{
		Detected:          true,
		ObjectsCount:      len(objects),
		Objects:           objects,
		AverageConfidence: 0.825,
		WasteCategories:   ai.CountCategories(objects),
		SuggestedSeverity: 3,
		ModelVersion:      ReportFallbackVersion,
		ProcessingTime:    50,
	}
}

// IsMockVersion reports whether a model version belongs to a canned analysis.
func IsMockVersion(version string) bool {
	return strings.HasSuffix(version, MockSuffix) || version == ReportFallbackVersion
}
