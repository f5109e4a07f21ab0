package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrLandmarkCount is returned when a wire hand does not carry exactly NumLandmarks points.
var ErrLandmarkCount = errors.New("unexpected landmark count")

// Point3D is one landmark. X and Y are normalized to the frame (0-1),
// Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one observation of one hand at one frame.
// Values are treated as immutable once produced.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Validate rejects observations that cannot be serialized meaningfully.
func (h *HandLandmarks) Validate() error {
	if h.Score < 0 || h.Score > 1 {
		return fmt.Errorf("score must be between 0 and 1, got %f", h.Score)
	}
	switch h.Handedness {
	case "", "Left", "Right":
	default:
		return fmt.Errorf("handedness must be Left or Right, got %q", h.Handedness)
	}
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("landmark %d is not a finite point", i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WireHand is the JSON shape produced by the MediaPipe service and by
// browser clients: a variable-length point list.
type WireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// ToLandmarks converts the wire shape, requiring a full landmark set.
func (w WireHand) ToLandmarks() (HandLandmarks, error) {
	if len(w.Points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(w.Points), NumLandmarks)
	}

	lm := HandLandmarks{
		Handedness: w.Handedness,
		Score:      w.Score,
	}
	copy(lm.Points[:], w.Points)

	if err := lm.Validate(); err != nil {
		return HandLandmarks{}, err
	}
	return lm, nil
}

// FromWire converts a batch of wire hands, stopping at the first invalid one.
func FromWire(hands []WireHand) ([]HandLandmarks, error) {
	out := make([]HandLandmarks, 0, len(hands))
	for i, h := range hands {
		lm, err := h.ToLandmarks()
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		out = append(out, lm)
	}
	return out, nil
}
