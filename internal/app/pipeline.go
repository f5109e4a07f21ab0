package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/isharavaani/internal/capture"
	"github.com/ayusman/isharavaani/internal/detector"
)

// Pipeline timing.
const (
	// IdleFPS is the frame rate while the signer is still.
	IdleFPS = 5
	// ActiveFPS is the frame rate while motion is seen.
	ActiveFPS = 15
	// IdleAfter is how long without motion before dropping to IdleFPS.
	IdleAfter = 2 * time.Second
)

// ErrPipelineRunning is returned by Start on a running pipeline.
var ErrPipelineRunning = errors.New("pipeline already running")

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Motion is optional; without it every frame is treated as active.
	Motion *capture.MotionDetector
	Logger logrus.FieldLogger
}

// Pipeline is a detector.Source over a camera. It reads frames on a ticker,
// keeps the latest JPEG for streaming and, while detection is enabled, runs
// the hand detector on frames and reports the hands it finds.
type Pipeline struct {
	camera   capture.Camera
	detector detector.Detector
	motion   *capture.MotionDetector
	log      logrus.FieldLogger

	mu        sync.RWMutex
	fn        func([]detector.HandLandmarks)
	detecting bool
	latest    []byte
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewPipeline creates a stopped pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		camera:   cfg.Camera,
		detector: cfg.Detector,
		motion:   cfg.Motion,
		log:      log.WithField("component", "pipeline"),
	}
}

// OnObservation registers the callback for detected hands.
func (p *Pipeline) OnObservation(fn func([]detector.HandLandmarks)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn = fn
}

// SetDetecting turns hand detection on or off. Frames are still read for
// streaming while detection is off.
func (p *Pipeline) SetDetecting(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detecting = on
}

// Detecting reports whether hand detection is on.
func (p *Pipeline) Detecting() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.detecting
}

// LatestJPEG returns the most recent frame as JPEG, or nil before the first frame.
func (p *Pipeline) LatestJPEG() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Start opens the camera and runs the capture loop until ctx ends or Stop is called.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrPipelineRunning
	}
	if err := p.camera.Open(); err != nil {
		return err
	}
	p.camera.SetFPS(IdleFPS)

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)

	p.log.Info("capture pipeline started")
	return nil
}

// Stop ends the capture loop and closes the camera.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	if p.motion != nil {
		p.motion.Reset()
	}
	p.log.Info("capture pipeline stopped")
	return p.camera.Close()
}

func (p *Pipeline) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	active := p.motion == nil
	lastMotion := time.Now()

	fps := IdleFPS
	if active {
		fps = ActiveFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	setRate := func(fps int) {
		p.camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := p.camera.ReadFrame()
		if err != nil {
			p.log.WithError(err).Debug("frame read failed")
			continue
		}

		p.publish(frame)

		if p.motion != nil {
			moved, _ := p.motion.Detect(frame)
			switch {
			case moved:
				lastMotion = time.Now()
				if !active {
					active = true
					setRate(ActiveFPS)
					p.log.Debug("motion seen, switching to active rate")
				}
			case active && time.Since(lastMotion) > IdleAfter:
				active = false
				setRate(IdleFPS)
				p.log.Debug("no motion, switching to idle rate")
			}
		}

		p.detect(frame, active)
		frame.Close()
	}
}

func (p *Pipeline) publish(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.mu.Lock()
	p.latest = data
	p.mu.Unlock()
}

func (p *Pipeline) detect(frame *gocv.Mat, active bool) {
	p.mu.RLock()
	fn, on := p.fn, p.detecting
	p.mu.RUnlock()

	if !on || !active || fn == nil || p.detector == nil {
		return
	}

	hands, err := p.detector.Detect(frame)
	if err != nil {
		p.log.WithError(err).Warn("hand detection failed")
		return
	}
	if len(hands) > 0 {
		fn(hands)
	}
}
