// Package detector provides hand detection interfaces and types for sign capture.
package detector

import (
	"context"

	"gocv.io/x/gocv"
)

// Detector defines the interface for frame-based hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Source delivers hand observations to a registered callback, one call per
// processed frame. A frame without hands is delivered as an empty slice.
type Source interface {
	// Start begins producing observations until ctx is done or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the observation stream. Stopping is not an error for consumers;
	// they simply stop receiving observations.
	Stop() error

	// OnObservation registers the callback. Only the last registration is kept.
	OnObservation(fn func(hands []HandLandmarks))
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// ModelComplexity selects the landmark model (0 = lite, 1 = full).
	ModelComplexity int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns the settings the browser capture page uses.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		ModelComplexity: 1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
