package ai

import "math"

// DefaultConfidenceThreshold is the minimum winning class score kept by Postprocess.
const DefaultConfidenceThreshold = 0.5

// Postprocess keeps candidates whose best class score reaches threshold. Output order is
// the candidate scan order; nothing is sorted, merged or capped.
func Postprocess(out *RawOutput, threshold float64) []DetectedObject {
	objects := make([]DetectedObject, 0)
	if out == nil || out.Width <= BoxValues {
		return objects
	}

	rows := len(out.Data) / out.Width
	for i := 0; i < rows; i++ {
		row := out.Row(i)

		score, class := bestClass(row[BoxValues:])
		if score < threshold {
			continue
		}

		cx, cy := float64(row[0]), float64(row[1])
		w, h := float64(row[2]), float64(row[3])

		objects = append(objects, DetectedObject{
			Class:      ClassName(class),
			Confidence: score,
			Box: BoundingBox{
				X:      math.Max(0, cx-w/2),
				Y:      math.Max(0, cy-h/2),
				Width:  w,
				Height: h,
			},
		})
	}
	return objects
}

// bestClass returns the highest score and its index. Scores at or below zero never win,
// so an all-zero row reports score 0 for class 0.
func bestClass(scores []float32) (float64, int) {
	best, index := 0.0, 0
	for j, s := range scores {
		if float64(s) > best {
			best = float64(s)
			index = j
		}
	}
	return best, index
}
