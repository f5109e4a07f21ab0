package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/isharavaani/internal/assist"
	"github.com/ayusman/isharavaani/internal/capture"
	"github.com/ayusman/isharavaani/internal/detector"
	"github.com/ayusman/isharavaani/internal/session"
)

type staticInterpreter struct {
	text string
}

func (s staticInterpreter) Interpret(ctx context.Context, payload string, lang assist.Language) (string, error) {
	return s.text, nil
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSpeaker) Speak(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return nil
}

func (r *recordingSpeaker) said() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

func eventually(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", desc)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestApp_CommandsWithoutCapture(t *testing.T) {
	a := New(Config{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
		Session:  session.Config{Interpreter: staticInterpreter{text: "Hello"}},
	})
	defer a.Stop()

	if err := a.Speak(); !errors.Is(err, ErrNothingToSpeak) {
		t.Errorf("Speak() = %v, want ErrNothingToSpeak", err)
	}
	if err := a.StopRecording(); !errors.Is(err, session.ErrNotRecording) {
		t.Errorf("StopRecording() = %v, want ErrNotRecording", err)
	}

	if err := a.StartRecording(); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if !a.Detecting() {
		t.Error("detection should be on while recording")
	}

	// Nothing captured: still recording.
	if err := a.StopRecording(); err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	if !a.Detecting() || a.Snapshot().State != session.StateRecording {
		t.Error("empty stop should keep recording")
	}

	if err := a.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if a.Detecting() || a.Snapshot().State != session.StateIdle {
		t.Error("Reset should return to idle with detection off")
	}
}

func TestPipeline_ReportsHands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	p := NewPipeline(PipelineConfig{Camera: cam, Detector: det})

	var mu sync.Mutex
	var seen int
	p.OnObservation(func(hands []detector.HandLandmarks) {
		mu.Lock()
		seen += len(hands)
		mu.Unlock()
	})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrPipelineRunning) {
		t.Errorf("second Start() = %v, want ErrPipelineRunning", err)
	}

	eventually(t, "first frame", func() bool { return p.LatestJPEG() != nil })

	mu.Lock()
	if seen != 0 {
		t.Errorf("hands reported while detection is off: %d", seen)
	}
	mu.Unlock()

	p.SetDetecting(true)
	eventually(t, "hands", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen > 0
	})

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if cam.IsOpen() {
		t.Error("Stop should close the camera")
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop() = %v", err)
	}
}

func TestApp_RecognitionFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.ThumbsUpLandmarks()})
	speaker := &recordingSpeaker{}

	a := New(Config{
		Camera:          capture.NewMockCamera([]*gocv.Mat{&black, &white}, true),
		Detector:        det,
		MotionThreshold: 0.01,
		Session:         session.Config{Interpreter: staticInterpreter{text: "Good job"}},
		Speaker:         speaker,
	})

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	if err := a.StartRecording(); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	eventually(t, "samples", func() bool { return a.Snapshot().Buffered >= 3 })

	if err := a.StopRecording(); err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	eventually(t, "interpretation", func() bool {
		s := a.Snapshot()
		return s.State == session.StateIdle && s.Result.Primary == "Good job"
	})
	if a.Detecting() {
		t.Error("detection should be off after submitting")
	}

	if err := a.Speak(); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	eventually(t, "speech", func() bool { return len(speaker.said()) == 1 })
	if got := speaker.said()[0]; got != "Good job" {
		t.Errorf("spoke %q", got)
	}
}
