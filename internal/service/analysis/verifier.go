package analysis

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wastewatch/internal/logger"
)

const (
	// VerifiedBaseConfidence is the lowest confidence of a verified cleanup.
	VerifiedBaseConfidence = 0.8
	// VerifiedConfidenceSpread bounds the random part added on top of the base.
	VerifiedConfidenceSpread = 0.15
	// UnverifiedConfidence is reported when the object count did not drop.
	UnverifiedConfidence = 0.5

	verifiedConfidenceLimit = 0.95
)

// ImageAnalyzer analyzes a single image.
type ImageAnalyzer interface {
	Analyze(imageBytes []byte) (*WasteAnalysis, error)
}

// RandomSource yields values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a goroutine-safe source; seed 0 seeds from the clock.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Verifier compares before and after photos of a cleanup.
type Verifier struct {
	analyzer ImageAnalyzer
	random   RandomSource
	logger   *logger.Logger
}

// NewVerifier creates a verifier over an analyzer and a jitter source.
func NewVerifier(analyzer ImageAnalyzer, random RandomSource, logger *logger.Logger) *Verifier {
	if random == nil {
		random = NewRandomSource(0)
	}
	return &Verifier{
		analyzer: analyzer,
		random:   random,
		logger:   logger,
	}
}

// Verify analyzes both images concurrently and compares them. Since the analyzer absorbs
// detector failures, the only possible error is undecodable input.
func (v *Verifier) Verify(beforeImage, afterImage []byte) (*VerificationResult, error) {
	var before, after *WasteAnalysis

	var g errgroup.Group
	g.Go(func() error {
		var err error
		before, err = v.analyzer.Analyze(beforeImage)
		return err
	})
	g.Go(func() error {
		var err error
		after, err = v.analyzer.Analyze(afterImage)
		return err
	})
	if err := g.Wait(); err != nil {
		v.logger.Error("Cleanup verification error: %v", err)
		return nil, err
	}

	result := Compare(before, after, v.random.Float64())

	status := "FAILED"
	if result.Verified {
		status = "PASSED"
	}
	v.logger.Info("Cleanup verification: %s - %d objects removed (%d%% effective)",
		status, result.ObjectsRemoved, result.CleanupEffectiveness)

	return result, nil
}

// Compare derives the verdict from two analyses. jitter in [0,1) scales the random part
// of a verified confidence.
func Compare(before, after *WasteAnalysis, jitter float64) *VerificationResult {
	removed := before.ObjectsCount - after.ObjectsCount
	if removed < 0 {
		removed = 0
	}

	verified := after.ObjectsCount < before.ObjectsCount

	confidence := UnverifiedConfidence
	if verified {
		confidence = VerifiedBaseConfidence + clampJitter(jitter)*VerifiedConfidenceSpread
		if confidence >= verifiedConfidenceLimit {
			confidence = math.Nextafter(verifiedConfidenceLimit, 0)
		}
	}

	effectiveness := 0
	if before.ObjectsCount > 0 {
		effectiveness = int(math.Round(float64(removed) / float64(before.ObjectsCount) * 100))
	}

	recommendation := RecommendationFor(effectiveness)

	return &VerificationResult{
		BeforeAnalysis:       before,
		AfterAnalysis:        after,
		ObjectsRemoved:       removed,
		Verified:             verified,
		CleanupEffectiveness: effectiveness,
		Confidence:           confidence,
		Recommendation:       recommendation,
		Message:              recommendation.Message(),
	}
}

func clampJitter(j float64) float64 {
	if j < 0 || math.IsNaN(j) {
		return 0
	}
	if j > 1 {
		return 1
	}
	return j
}
