package analysis

import "math"

const (
	// BasePoints is awarded for any approved cleanup before bonuses.
	BasePoints = 10
	// PointsPerObject is the bonus for each detected object removed.
	PointsPerObject = 5
	// MinimumPoints is the floor of every calculated award.
	MinimumPoints = 5
	// FallbackPoints is awarded when an approved cleanup could not be verified at all.
	FallbackPoints = 10
)

// CalculateCarbonPoints converts a verified cleanup into a point award:
// round((10 + removed*5) * (1 + severity/5) * confidence), never below MinimumPoints.
// Severity is expected in 1..5 and confidence in 0..1.
func CalculateCarbonPoints(severity, objectsRemoved int, confidence float64) int {
	severityMultiplier := float64(severity) / 5
	objectsBonus := float64(objectsRemoved * PointsPerObject)

	points := int(math.Round((BasePoints + objectsBonus) * (1 + severityMultiplier) * confidence))
	if points < MinimumPoints {
		return MinimumPoints
	}
	return points
}
