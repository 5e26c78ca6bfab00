package analysis

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastewatch/internal/config"
	"wastewatch/internal/logger"
	"wastewatch/internal/service/ai"
)

type candidate struct {
	cx, cy, w, h float32
	class        int
	score        float32
}

type fakeDetector struct {
	candidates []candidate
	err        error
	panics     bool
}

func (d *fakeDetector) Detect(input *ai.Tensor) (*ai.RawOutput, error) {
	if d.panics {
		panic("segfault in native code")
	}
	if d.err != nil {
		return nil, d.err
	}
	return rawOutput(d.candidates...), nil
}

func rawOutput(candidates ...candidate) *ai.RawOutput {
	data := make([]float32, len(candidates)*ai.RowWidth)
	for i, c := range candidates {
		row := data[i*ai.RowWidth : (i+1)*ai.RowWidth]
		row[0], row[1], row[2], row[3] = c.cx, c.cy, c.w, c.h
		row[ai.BoxValues+c.class] = c.score
	}
	return &ai.RawOutput{Data: data, Rows: len(candidates), Width: ai.RowWidth}
}

func testImage(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 10), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestAnalyzer(detector Detector) *Analyzer {
	cfg := &config.Config{ModelVersion: "YOLO11n", ConfidenceThreshold: 0.5}
	return NewAnalyzer(cfg, ai.NewPreprocessor(64), detector, logger.NewDiscard())
}

func TestAnalyze_AggregatesDetections(t *testing.T) {
	detector := &fakeDetector{candidates: []candidate{
		{cx: 20, cy: 20, w: 10, h: 10, class: 0, score: 0.9},
		{cx: 30, cy: 30, w: 8, h: 8, class: 2, score: 0.3},
		{cx: 40, cy: 40, w: 12, h: 6, class: 2, score: 0.7},
		{cx: 2, cy: 3, w: 10, h: 10, class: 12, score: 0.8}, // wraps to straw
		{cx: 50, cy: 50, w: 10, h: 10, class: 3, score: 0.6},
	}}
	a := newTestAnalyzer(detector)

	result, err := a.Analyze(testImage(t))
	require.NoError(t, err)

	assert.True(t, result.Detected)
	assert.Equal(t, 4, result.ObjectsCount)
	require.Len(t, result.Objects, 4)
	assert.Equal(t, "plastic_bottle", result.Objects[0].Class)
	assert.Equal(t, "can", result.Objects[1].Class)
	assert.Equal(t, "straw", result.Objects[2].Class)
	assert.Equal(t, "cup", result.Objects[3].Class)
	assert.Equal(t, ai.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, result.Objects[2].Box)

	assert.InDelta(t, (0.9+0.7+0.8+0.6)/4, result.AverageConfidence, 1e-6)
	assert.Equal(t, 2, result.SuggestedSeverity)
	assert.Equal(t, "YOLO11n", result.ModelVersion)
	assert.False(t, result.IsMock())

	assert.Equal(t, result.ObjectsCount, result.WasteCategories.Total())
	assert.Equal(t, 1, result.WasteCategories[ai.CategoryPlastic])
	assert.Equal(t, 1, result.WasteCategories[ai.CategoryMetal])
	assert.Equal(t, 1, result.WasteCategories[ai.CategoryGlass])
	assert.Equal(t, 1, result.WasteCategories[ai.CategoryOther])
}

func TestAnalyze_NothingDetected(t *testing.T) {
	a := newTestAnalyzer(&fakeDetector{candidates: []candidate{{class: 1, score: 0.2}}})

	result, err := a.Analyze(testImage(t))
	require.NoError(t, err)

	assert.False(t, result.Detected)
	assert.Equal(t, 0, result.ObjectsCount)
	assert.NotNil(t, result.Objects)
	assert.Empty(t, result.Objects)
	assert.Equal(t, 0.0, result.AverageConfidence)
	assert.Equal(t, 0, result.SuggestedSeverity)
	assert.Equal(t, 0, result.WasteCategories.Total())
}

func TestAnalyze_DecodeErrorIsSurfaced(t *testing.T) {
	a := newTestAnalyzer(&fakeDetector{})

	result, err := a.Analyze([]byte("definitely not an image"))

	assert.Nil(t, result)
	var decodeErr *ai.ImageDecodeError
	assert.True(t, errors.As(err, &decodeErr), "got %v", err)
}

func TestAnalyze_FallsBackOnDetectorFailure(t *testing.T) {
	tests := []struct {
		name     string
		detector Detector
	}{
		{"model unavailable", &fakeDetector{err: &ai.ModelUnavailableError{Path: "/missing.onnx"}}},
		{"inference error", &fakeDetector{err: &ai.InferenceError{Cause: errors.New("shape mismatch")}}},
		{"panic", &fakeDetector{panics: true}},
		{"no detector", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(tt.detector)

			first, err := a.Analyze(testImage(t))
			require.NoError(t, err)
			second, err := a.Analyze(testImage(t))
			require.NoError(t, err)

			assert.True(t, first.IsMock())
			assert.Equal(t, "YOLO11n (Mock)", first.ModelVersion)
			assert.Equal(t, 3, first.ObjectsCount)
			assert.Equal(t, 3, first.SuggestedSeverity)
			assert.Equal(t, first, second)
		})
	}
}

func TestNewAnalyzer_Defaults(t *testing.T) {
	a := NewAnalyzer(&config.Config{ConfidenceThreshold: -1}, ai.NewPreprocessor(0), nil, logger.NewDiscard())

	assert.Equal(t, ai.DefaultConfidenceThreshold, a.threshold)
	assert.Equal(t, "YOLO11n", a.modelVersion)

	a = NewAnalyzer(&config.Config{ConfidenceThreshold: math.NaN()}, ai.NewPreprocessor(0), nil, logger.NewDiscard())
	assert.Equal(t, ai.DefaultConfidenceThreshold, a.threshold)
}

func TestAnalyze_ZeroThresholdKeepsLowScores(t *testing.T) {
	detector := &fakeDetector{candidates: []candidate{
		{cx: 10, cy: 10, w: 4, h: 4, class: 0, score: 0.1},
		{cx: 20, cy: 20, w: 4, h: 4, class: 2, score: 0.05},
	}}
	cfg := &config.Config{ModelVersion: "YOLO11n", ConfidenceThreshold: 0}
	a := NewAnalyzer(cfg, ai.NewPreprocessor(64), detector, logger.NewDiscard())

	result, err := a.Analyze(testImage(t))

	require.NoError(t, err)
	assert.Zero(t, a.threshold)
	assert.Equal(t, 2, result.ObjectsCount)
	assert.False(t, result.IsMock())
}

func TestSuggestedSeverity(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 9: 5, 10: 5, 40: 5}
	for count, want := range cases {
		assert.Equal(t, want, SuggestedSeverity(count), "count %d", count)
	}
}

func TestAggregate_NilObjects(t *testing.T) {
	result := Aggregate(nil, "YOLO11n")

	assert.NotNil(t, result.Objects)
	assert.False(t, result.Detected)
	assert.Len(t, result.WasteCategories, len(ai.Categories))
}
