// Package dnn runs ONNX detectors through OpenCV's DNN module.
package dnn

import (
	"fmt"
	"sync"
	"unsafe"

	"gocv.io/x/gocv"

	"wastewatch/internal/service/ai"
)

// inputName is the input node of an exported YOLO graph.
const inputName = "images"

// Network wraps a gocv.Net. OpenCV nets keep per-call state, so Forward is serialized.
type Network struct {
	net gocv.Net
	mu  sync.Mutex
}

// Load reads an ONNX model and prepares it for CPU inference. It matches ai.Loader.
func Load(modelPath string) (ai.Network, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	return &Network{net: net}, nil
}

// Forward feeds a planar tensor as a 1x3xHxW blob and returns one row per candidate.
func (n *Network) Forward(input *ai.Tensor) (*ai.RawOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("input tensor is nil")
	}
	if len(input.Data) != 3*input.Width*input.Height {
		return nil, fmt.Errorf("input tensor does not hold 3 planes of %dx%d", input.Width, input.Height)
	}

	blob, err := gocv.NewMatWithSizesFromBytes(
		[]int{1, 3, input.Height, input.Width},
		gocv.MatTypeCV32F,
		float32Bytes(input.Data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build input blob: %w", err)
	}
	defer blob.Close()

	n.mu.Lock()
	defer n.mu.Unlock()

	n.net.SetInput(blob, inputName)
	output := n.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, fmt.Errorf("network produced no output")
	}

	values, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	return toRows(values, output.Size())
}

// Close releases the OpenCV network.
func (n *Network) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.net.Close()
}

// toRows converts the head output into candidate rows. YOLO exports emit
// [1, features, candidates]; a [1, candidates, features] layout is copied as is.
func toRows(values []float32, dims []int) (*ai.RawOutput, error) {
	if len(dims) != 3 || dims[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	features, candidates := dims[1], dims[2]
	if len(values) != features*candidates {
		return nil, fmt.Errorf("output holds %d values, shape %v needs %d", len(values), dims, features*candidates)
	}

	if candidates == ai.RowWidth && features != ai.RowWidth {
		data := make([]float32, len(values))
		copy(data, values)
		return &ai.RawOutput{Data: data, Rows: features, Width: candidates}, nil
	}

	data := make([]float32, len(values))
	for f := 0; f < features; f++ {
		for c := 0; c < candidates; c++ {
			data[c*features+f] = values[f*candidates+c]
		}
	}
	return &ai.RawOutput{Data: data, Rows: candidates, Width: features}, nil
}

func float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}
