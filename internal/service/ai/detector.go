package ai

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"wastewatch/internal/config"
	"wastewatch/internal/logger"
)

const (
	// BoxValues is the number of box coordinates leading every candidate row.
	BoxValues = 4
	// NativeClasses is the class count of the pretrained detector head.
	NativeClasses = 80
	// RowWidth is the expected width of a candidate row.
	RowWidth = BoxValues + NativeClasses
)

// Network is a loaded detector. Implementations must tolerate concurrent Forward calls.
type Network interface {
	Forward(input *Tensor) (*RawOutput, error)
	Close() error
}

// Loader reads a detector artifact from disk.
type Loader func(modelPath string) (Network, error)

// DetectorService owns the detector handle. The model is loaded lazily on first use and
// kept for the life of the process; concurrent first callers share one load.
type DetectorService struct {
	modelPath string
	loader    Loader
	logger    *logger.Logger

	mu    sync.RWMutex
	net   Network
	group singleflight.Group
}

// NewDetectorService creates a detector for the configured model path. Nothing is
// loaded until the first Detect call.
func NewDetectorService(config *config.Config, loader Loader, logger *logger.Logger) *DetectorService {
	return &DetectorService{
		modelPath: config.ModelPath,
		loader:    loader,
		logger:    logger,
	}
}

// Ready reports whether a model has been loaded.
func (s *DetectorService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.net != nil
}

// ModelPath returns the configured artifact location.
func (s *DetectorService) ModelPath() string {
	return s.modelPath
}

// network returns the cached handle, loading it when absent. Failed loads are not
// cached so a model dropped in later is picked up.
func (s *DetectorService) network() (Network, error) {
	s.mu.RLock()
	net := s.net
	s.mu.RUnlock()
	if net != nil {
		return net, nil
	}

	v, err, _ := s.group.Do("load", func() (interface{}, error) {
		s.mu.RLock()
		loaded := s.net
		s.mu.RUnlock()
		if loaded != nil {
			return loaded, nil
		}

		loaded, err := s.load()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.net = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Network), nil
}

func (s *DetectorService) load() (Network, error) {
	if _, err := os.Stat(s.modelPath); err != nil {
		s.logger.Warning("Detection model not found at %s", s.modelPath)
		return nil, &ModelUnavailableError{Path: s.modelPath, Cause: err}
	}
	if s.loader == nil {
		return nil, &ModelUnavailableError{Path: s.modelPath, Cause: errors.New("no model loader configured")}
	}

	s.logger.Info("Loading detection model from %s", s.modelPath)
	net, err := s.loader(s.modelPath)
	if err != nil {
		s.logger.Error("Failed to load detection model: %v", err)
		return nil, &ModelUnavailableError{Path: s.modelPath, Cause: err}
	}
	if net == nil {
		return nil, &ModelUnavailableError{Path: s.modelPath, Cause: errors.New("loader returned no network")}
	}

	s.logger.Info("Detection model loaded successfully")
	return net, nil
}

// Detect runs the detector over a preprocessed tensor and returns the unfiltered
// candidate table. Errors are *ModelUnavailableError or *InferenceError.
func (s *DetectorService) Detect(input *Tensor) (out *RawOutput, err error) {
	net, err := s.network()
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &InferenceError{Cause: fmt.Errorf("detector panic: %v", r)}
		}
	}()

	out, err = net.Forward(input)
	if err != nil {
		return nil, &InferenceError{Cause: err}
	}
	if err := validateOutput(out); err != nil {
		return nil, &InferenceError{Cause: err}
	}
	return out, nil
}

// Close releases the loaded model, if any.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.net == nil {
		return nil
	}
	err := s.net.Close()
	s.net = nil
	return err
}

// validateOutput checks the candidate table shape instead of trusting the model.
func validateOutput(out *RawOutput) error {
	if out == nil {
		return errors.New("detector returned no output")
	}
	if out.Width != RowWidth {
		return fmt.Errorf("unexpected candidate width %d, want %d", out.Width, RowWidth)
	}
	if out.Rows < 0 || len(out.Data) != out.Rows*out.Width {
		return fmt.Errorf("candidate data length %d does not match %d rows of %d", len(out.Data), out.Rows, out.Width)
	}
	return nil
}
