package ai

import "fmt"

// ImageDecodeError reports input bytes that could not be decoded as an image.
// It is a caller input error and is never absorbed by the fallback.
type ImageDecodeError struct {
	Cause error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Cause)
}

func (e *ImageDecodeError) Unwrap() error {
	return e.Cause
}

// ModelUnavailableError reports a missing or unreadable detector artifact.
type ModelUnavailableError struct {
	Path  string
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("detection model unavailable at %s: %v", e.Path, e.Cause)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Cause
}

// InferenceError reports a runtime failure while running a loaded detector.
type InferenceError struct {
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Cause)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}
