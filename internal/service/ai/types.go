package ai

// BoundingBox is a top-left anchored box in model-input pixel space.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectedObject is one candidate waste item kept by the postprocessor.
type DetectedObject struct {
	Class      string      `json:"class"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"bbox"`
}

// Tensor is a channel-planar (all R, then G, then B) float buffer scaled to 0..1.
type Tensor struct {
	Data         []float32
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// RawOutput is the detector's flat candidate table: Rows rows of Width values,
// 4 box values (cx, cy, w, h) followed by one score per native class.
type RawOutput struct {
	Data  []float32
	Rows  int
	Width int
}

// Row returns the values of candidate i.
func (o *RawOutput) Row(i int) []float32 {
	start := i * o.Width
	return o.Data[start : start+o.Width]
}
