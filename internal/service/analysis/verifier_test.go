package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastewatch/internal/logger"
	"wastewatch/internal/service/ai"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

// stubAnalyzer answers by image content so before and after can differ.
type stubAnalyzer map[string]*WasteAnalysis

func (s stubAnalyzer) Analyze(image []byte) (*WasteAnalysis, error) {
	result, ok := s[string(image)]
	if !ok {
		return nil, &ai.ImageDecodeError{Cause: errors.New("unknown format")}
	}
	return result, nil
}

func withCount(n int) *WasteAnalysis {
	objects := make([]ai.DetectedObject, n)
	for i := range objects {
		objects[i] = ai.DetectedObject{Class: "can", Confidence: 0.7}
	}
	return Aggregate(objects, "YOLO11n")
}

func TestVerify_Scenario(t *testing.T) {
	analyzer := stubAnalyzer{"before": withCount(5), "after": withCount(2)}
	v := NewVerifier(analyzer, fixedRandom(0.5), logger.NewDiscard())

	result, err := v.Verify([]byte("before"), []byte("after"))
	require.NoError(t, err)

	assert.Equal(t, 3, result.ObjectsRemoved)
	assert.True(t, result.Verified)
	assert.Equal(t, 60, result.CleanupEffectiveness)
	assert.Equal(t, RecommendationGood, result.Recommendation)
	assert.Equal(t, RecommendationGood.Message(), result.Message)
	assert.InDelta(t, 0.875, result.Confidence, 1e-9)
	assert.Equal(t, 5, result.BeforeAnalysis.ObjectsCount)
	assert.Equal(t, 2, result.AfterAnalysis.ObjectsCount)
}

func TestVerify_DecodeError(t *testing.T) {
	analyzer := stubAnalyzer{"before": withCount(5)}
	v := NewVerifier(analyzer, fixedRandom(0), logger.NewDiscard())

	result, err := v.Verify([]byte("before"), []byte("garbage"))

	assert.Nil(t, result)
	var decodeErr *ai.ImageDecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestCompare_Cases(t *testing.T) {
	tests := []struct {
		name           string
		before, after  int
		removed        int
		verified       bool
		effectiveness  int
		recommendation Recommendation
	}{
		{"all removed", 4, 0, 4, true, 100, RecommendationExcellent},
		{"exactly eighty", 5, 1, 4, true, 80, RecommendationExcellent},
		{"half", 4, 2, 2, true, 50, RecommendationPartial},
		{"one of three", 3, 2, 1, true, 33, RecommendationMinimal},
		{"two of three rounds up", 3, 1, 2, true, 67, RecommendationGood},
		{"unchanged", 3, 3, 0, false, 0, RecommendationMinimal},
		{"more waste after", 2, 6, 0, false, 0, RecommendationMinimal},
		{"clean before", 0, 0, 0, false, 0, RecommendationMinimal},
		{"clean before dirty after", 0, 3, 0, false, 0, RecommendationMinimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compare(withCount(tt.before), withCount(tt.after), 0.3)

			assert.Equal(t, tt.removed, result.ObjectsRemoved)
			assert.Equal(t, tt.verified, result.Verified)
			assert.Equal(t, tt.effectiveness, result.CleanupEffectiveness)
			assert.Equal(t, tt.recommendation, result.Recommendation)
			assert.GreaterOrEqual(t, result.CleanupEffectiveness, 0)
			assert.LessOrEqual(t, result.CleanupEffectiveness, 100)
		})
	}
}

func TestCompare_ConfidenceRange(t *testing.T) {
	for _, jitter := range []float64{0, 0.25, 0.5, 0.999999, 1, 7, -3} {
		result := Compare(withCount(4), withCount(1), jitter)

		assert.GreaterOrEqual(t, result.Confidence, VerifiedBaseConfidence, "jitter %v", jitter)
		assert.Less(t, result.Confidence, 0.95, "jitter %v", jitter)
	}

	unverified := Compare(withCount(1), withCount(1), 0.9)
	assert.Equal(t, UnverifiedConfidence, unverified.Confidence)
}

func TestNewRandomSource_Seeded(t *testing.T) {
	a := NewRandomSource(42)
	b := NewRandomSource(42)

	for i := 0; i < 10; i++ {
		x := a.Float64()
		assert.Equal(t, x, b.Float64())
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}
}

func TestVerify_WithRealAnalyzerAndFallback(t *testing.T) {
	analyzer := newTestAnalyzer(&fakeDetector{err: &ai.ModelUnavailableError{Path: "/missing.onnx"}})
	v := NewVerifier(analyzer, nil, logger.NewDiscard())

	img := testImage(t)
	result, err := v.Verify(img, img)
	require.NoError(t, err)

	assert.True(t, result.BeforeAnalysis.IsMock())
	assert.False(t, result.Verified)
	assert.Equal(t, 0, result.ObjectsRemoved)
	assert.Equal(t, UnverifiedConfidence, result.Confidence)
}
