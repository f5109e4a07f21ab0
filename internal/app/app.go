// Package app runs desktop capture: camera, hand detection and one
// recognition session driven from the tray or the local HTTP API.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/capture"
	"github.com/ayusman/isharavaani/internal/detector"
	"github.com/ayusman/isharavaani/internal/session"
	"github.com/ayusman/isharavaani/internal/speech"
)

// ErrNothingToSpeak is returned by Speak when there is no recognized sentence.
var ErrNothingToSpeak = errors.New("no recognized sentence to speak")

// Config holds configuration options for the application.
type Config struct {
	Capture         capture.Config
	MotionThreshold float64
	// Session configures the recognition controller.
	Session session.Config
	Speaker speech.Speaker
	Logger  logrus.FieldLogger

	// Camera and Detector override the device camera and MediaPipe detector.
	Camera   capture.Camera
	Detector detector.Detector
}

// App owns the capture pipeline and the recognition session it feeds.
type App struct {
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	pipeline *Pipeline
	session  *session.Controller
	speaker  speech.Speaker
	log      logrus.FieldLogger
}

// New creates an App. The MediaPipe detector is used when its service can
// be found; otherwise a MockDetector stands in and no hands are reported.
func New(cfg Config) *App {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "app")

	camera := cfg.Camera
	if camera == nil {
		camera = capture.NewCamera(cfg.Capture)
	}

	det := cfg.Detector
	if det == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			det = mp
			log.Info("using MediaPipe hand detection")
		} else {
			log.WithError(err).Warn("MediaPipe not available, hand detection disabled")
			det = detector.NewMockDetector()
		}
	}

	speaker := cfg.Speaker
	if speaker == nil {
		speaker = speech.Nop{}
	}

	motion := capture.NewMotionDetector(cfg.MotionThreshold)

	if cfg.Session.Logger == nil {
		cfg.Session.Logger = cfg.Logger
	}
	ctrl := session.New(cfg.Session)

	pipeline := NewPipeline(PipelineConfig{
		Camera:   camera,
		Detector: det,
		Motion:   motion,
		Logger:   cfg.Logger,
	})
	ctrl.Bind(pipeline)

	return &App{
		camera:   camera,
		motion:   motion,
		detector: det,
		pipeline: pipeline,
		session:  ctrl,
		speaker:  speaker,
		log:      log,
	}
}

// Start opens the camera and begins reading frames.
func (a *App) Start(ctx context.Context) error {
	return a.pipeline.Start(ctx)
}

// Stop halts capture and releases the camera, the detector and the session.
func (a *App) Stop() {
	if err := a.pipeline.Stop(); err != nil {
		a.log.WithError(err).Warn("closing camera")
	}
	a.session.Close()
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		a.log.WithError(err).Warn("closing detector")
	}
}

// StartRecording begins a capture and turns hand detection on.
func (a *App) StartRecording() error {
	if err := a.session.Start(); err != nil {
		return err
	}
	a.pipeline.SetDetecting(true)
	return nil
}

// StopRecording submits the capture for interpretation. With nothing
// captured yet the session keeps recording.
func (a *App) StopRecording() error {
	if err := a.session.Stop(); err != nil {
		return err
	}
	a.syncDetecting()
	return nil
}

// Reset abandons the current capture or request.
func (a *App) Reset() error {
	if err := a.session.Reset(); err != nil {
		return err
	}
	a.pipeline.SetDetecting(false)
	return nil
}

// Speak reads the latest recognized sentence aloud in the background.
func (a *App) Speak() error {
	text := a.session.Snapshot().Result.Primary
	if text == "" {
		return ErrNothingToSpeak
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), speech.DefaultTimeout+5*time.Second)
		defer cancel()
		if err := a.speaker.Speak(ctx, text); err != nil {
			a.log.WithError(err).Warn("speech failed")
		}
	}()
	return nil
}

// Snapshot returns the session state.
func (a *App) Snapshot() session.Snapshot {
	return a.session.Snapshot()
}

// Subscribe registers fn for session changes.
func (a *App) Subscribe(fn func(session.Snapshot)) func() {
	return a.session.Subscribe(fn)
}

// LatestJPEG returns the most recent camera frame.
func (a *App) LatestJPEG() []byte {
	return a.pipeline.LatestJPEG()
}

// Detecting reports whether hand detection is on.
func (a *App) Detecting() bool {
	return a.pipeline.Detecting()
}

func (a *App) syncDetecting() {
	a.pipeline.SetDetecting(a.session.Snapshot().State == session.StateRecording)
}
