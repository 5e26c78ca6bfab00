package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"wastewatch/internal/config"
	"wastewatch/internal/logger"
	"wastewatch/internal/service/ai"
)

// Detector produces raw candidates for a preprocessed image.
type Detector interface {
	Detect(input *ai.Tensor) (*ai.RawOutput, error)
}

// Analyzer turns one image into a WasteAnalysis. Detector failures are absorbed by the
// mock fallback; only undecodable input is returned as an error.
type Analyzer struct {
	preprocessor *ai.Preprocessor
	detector     Detector
	threshold    float64
	modelVersion string
	logger       *logger.Logger
	now          func() time.Time
}

// NewAnalyzer wires the preprocessing and detection stages.
func NewAnalyzer(config *config.Config, preprocessor *ai.Preprocessor, detector Detector, logger *logger.Logger) *Analyzer {
	threshold := config.ConfidenceThreshold
	if threshold < 0 || math.IsNaN(threshold) {
		threshold = ai.DefaultConfidenceThreshold
	}
	version := config.ModelVersion
	if version == "" {
		version = "YOLO11n"
	}

	return &Analyzer{
		preprocessor: preprocessor,
		detector:     detector,
		threshold:    threshold,
		modelVersion: version,
		logger:       logger,
		now:          time.Now,
	}
}

// Analyze decodes, detects and aggregates. The returned error is always *ai.ImageDecodeError.
func (a *Analyzer) Analyze(imageBytes []byte) (*WasteAnalysis, error) {
	start := a.now()

	tensor, err := a.preprocessor.Preprocess(imageBytes)
	if err != nil {
		a.logger.Error("Image preprocessing error: %v", err)
		return nil, err
	}

	a.logger.Info("Analyzing image: %dx%d", tensor.SourceWidth, tensor.SourceHeight)

	objects, err := a.detect(tensor)
	if err != nil {
		a.logger.WithFields(logger.Fields{
			"width":  tensor.SourceWidth,
			"height": tensor.SourceHeight,
			"model":  a.modelVersion,
			"error":  err.Error(),
			"kind":   failureKind(err),
		}).Warn("Detector unavailable, using mock analysis")
		return MockAnalysis(a.modelVersion), nil
	}

	result := Aggregate(objects, a.modelVersion)
	result.ProcessingTime = a.now().Sub(start).Milliseconds()

	a.logger.Info("Waste analysis: %d objects detected", result.ObjectsCount)
	return result, nil
}

// detect runs inference and postprocessing; panics become *ai.InferenceError.
func (a *Analyzer) detect(tensor *ai.Tensor) (objects []ai.DetectedObject, err error) {
	defer func() {
		if r := recover(); r != nil {
			objects = nil
			err = &ai.InferenceError{Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if a.detector == nil {
		return nil, &ai.ModelUnavailableError{Cause: errors.New("no detector configured")}
	}

	raw, err := a.detector.Detect(tensor)
	if err != nil {
		return nil, err
	}
	return ai.Postprocess(raw, a.threshold), nil
}

// Aggregate builds the per-image summary for a list of detections.
func Aggregate(objects []ai.DetectedObject, modelVersion string) *WasteAnalysis {
	if objects == nil {
		objects = []ai.DetectedObject{}
	}

	average := 0.0
	if len(objects) > 0 {
		sum := 0.0
		for _, obj := range objects {
			sum += obj.Confidence
		}
		average = sum / float64(len(objects))
	}

	return &WasteAnalysis{
		Detected:          len(objects) > 0,
		ObjectsCount:      len(objects),
		Objects:           objects,
		AverageConfidence: average,
		WasteCategories:   ai.CountCategories(objects),
		SuggestedSeverity: SuggestedSeverity(len(objects)),
		ModelVersion:      modelVersion,
	}
}

// SuggestedSeverity is ceil(count/2) capped at 5; zero objects give 0.
func SuggestedSeverity(count int) int {
	return int(math.Min(5, math.Ceil(float64(count)/2)))
}

func failureKind(err error) string {
	var unavailable *ai.ModelUnavailableError
	var inference *ai.InferenceError
	switch {
	case errors.As(err, &unavailable):
		return "model_unavailable"
	case errors.As(err, &inference):
		return "inference"
	default:
		return "unknown"
	}
}
