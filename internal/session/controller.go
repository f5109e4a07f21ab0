// Package session implements the live sign-capture session controller: it
// buffers hand-pose observations while recording and drives a single
// interpretation request (plus its dependent translation) per capture.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/assist"
	"github.com/ayusman/isharavaani/internal/detector"
)

// Session defaults.
const (
	// DefaultCapacity is the number of most recent samples kept while recording.
	DefaultCapacity = 51
	// DefaultWindow is the number of newest samples submitted for interpretation.
	DefaultWindow = 10
	// FallbackMessage replaces the sentence when interpretation fails.
	FallbackMessage = "Recognition failed. Please try again."
)

var (
	// ErrNotRecording is returned by Stop when no capture is running.
	ErrNotRecording = errors.New("session is not recording")
	// ErrBusy is returned when a command arrives while an interpretation is outstanding.
	ErrBusy = errors.New("interpretation in progress")
	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("session closed")
)

// Interpreter turns a serialized sample batch into a sentence.
type Interpreter interface {
	Interpret(ctx context.Context, payload string, lang assist.Language) (string, error)
}

// Translator translates an interpreted sentence into the secondary language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Result holds the outcome of the latest interpretation attempt.
type Result struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Snapshot is a point-in-time copy of the controller state.
// Version increases with every change; listeners that may run concurrently
// should drop snapshots older than the last one they handled.
type Snapshot struct {
	ID          string `json:"id"`
	State       State  `json:"state"`
	Buffered    int    `json:"buffered"`
	Capacity    int    `json:"capacity"`
	Result      Result `json:"result"`
	Translating bool   `json:"translating"`
	Generation  uint64 `json:"generation"`
	Version     uint64 `json:"version"`
}

// Config holds the controller collaborators and limits.
type Config struct {
	Interpreter Interpreter
	// Translator is optional; without it the secondary result stays empty.
	Translator Translator
	// Language is the interpretation target (default English).
	Language assist.Language
	// Capacity bounds the capture buffer (default 51).
	Capacity int
	// Window is how many of the newest samples are submitted (default 10).
	Window int
	// Timeout bounds an interpretation and its translation. Zero means no timeout.
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// Controller is the capture session state machine. Commands and
// observations are serialized by an internal mutex; requests run on their
// own goroutine and their results are applied only while their generation
// is still current.
type Controller struct {
	id  string
	cfg Config
	log logrus.FieldLogger

	mu          sync.Mutex
	state       State
	buf         *Buffer
	result      Result
	translating bool
	generation  uint64
	version     uint64
	cancel      context.CancelFunc
	closed      bool
	subs        map[int]func(Snapshot)
	nextSub     int

	wg sync.WaitGroup
}

// New creates an idle controller. It panics if cfg.Interpreter is nil.
func New(cfg Config) *Controller {
	if cfg.Interpreter == nil {
		panic("session: Config.Interpreter is nil")
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Language == "" {
		cfg.Language = assist.English
	}

	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	id := uuid.NewString()
	return &Controller{
		id:   id,
		cfg:  cfg,
		log:  logger.WithFields(logrus.Fields{"component": "session", "session_id": id}),
		buf:  NewBuffer(cfg.Capacity),
		subs: make(map[int]func(Snapshot)),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Bind routes a detector source's observations into the controller.
func (c *Controller) Bind(src detector.Source) {
	src.OnObservation(c.Observe)
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Start begins recording from Idle, discarding the previous buffer and
// result. Starting while already recording is a no-op.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	switch c.state {
	case StateInterpreting:
		c.mu.Unlock()
		return ErrBusy
	case StateRecording:
		c.mu.Unlock()
		return nil
	}

	// A translation from the previous capture may still be running.
	c.generation++
	c.cancelLocked()
	c.buf.Clear()
	c.result = Result{}
	c.translating = false
	c.state = StateRecording

	c.log.WithField("generation", c.generation).Debug("recording started")
	c.commit()
	return nil
}

// Observe appends every hand in one frame's observation while recording.
// Observations in any other state, or after Close, are ignored.
func (c *Controller) Observe(hands []detector.HandLandmarks) {
	c.mu.Lock()
	if c.closed || c.state != StateRecording || len(hands) == 0 {
		c.mu.Unlock()
		return
	}

	for _, h := range hands {
		c.buf.Append(h)
	}
	c.commit()
}

// Stop ends recording and submits the newest samples for interpretation.
// With an empty buffer it does nothing and the session keeps recording.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		return ErrNotRecording
	case StateInterpreting:
		c.mu.Unlock()
		return ErrBusy
	}

	if c.buf.Len() == 0 {
		c.mu.Unlock()
		c.log.Debug("stop ignored, nothing captured")
		return nil
	}

	payload := Serialize(c.buf.Last(c.cfg.Window))

	c.generation++
	gen := c.generation
	ctx, cancel := c.requestContext()
	c.cancel = cancel
	c.state = StateInterpreting
	c.wg.Add(1)

	c.log.WithFields(logrus.Fields{
		"generation": gen,
		"buffered":   c.buf.Len(),
	}).Info("submitting capture for interpretation")
	c.commit()

	go c.interpret(ctx, gen, payload)
	return nil
}

// Reset returns to Idle from any state, clearing the buffer and result.
// Any outstanding request is cancelled and its response ignored.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.generation++
	c.cancelLocked()
	c.buf.Clear()
	c.result = Result{}
	c.translating = false
	c.state = StateIdle

	c.log.WithField("generation", c.generation).Debug("session reset")
	c.commit()
	return nil
}

// Close cancels outstanding work and waits for request goroutines to exit.
// Later commands fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.cancelLocked()
	c.subs = make(map[int]func(Snapshot))
	c.mu.Unlock()

	c.wg.Wait()
}

// interpret runs the interpretation request and, on success, the dependent
// translation. Each result is applied only if gen is still current.
func (c *Controller) interpret(ctx context.Context, gen uint64, payload string) {
	defer c.wg.Done()

	log := c.log.WithField("generation", gen)

	text, err := c.cfg.Interpreter.Interpret(ctx, payload, c.cfg.Language)

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		log.Debug("discarding stale interpretation response")
		return
	}

	c.buf.Clear()
	c.state = StateIdle

	if err != nil {
		log.WithError(err).Warn("interpretation failed")
		c.result = Result{Error: FallbackMessage}
		c.cancelLocked()
		c.commit()
		return
	}

	c.result = Result{Primary: text}
	if c.cfg.Translator == nil {
		c.cancelLocked()
		c.commit()
		return
	}
	c.translating = true
	c.commit()

	secondary, err := c.cfg.Translator.Translate(ctx, text)

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		log.Debug("discarding stale translation response")
		return
	}

	c.translating = false
	if err != nil {
		log.WithError(err).Warn("translation failed")
	} else {
		c.result.Secondary = secondary
	}
	c.cancelLocked()
	c.commit()
}

func (c *Controller) stale(gen uint64) bool {
	return c.closed || gen != c.generation
}

func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(context.Background(), c.cfg.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (c *Controller) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ID:          c.id,
		State:       c.state,
		Buffered:    c.buf.Len(),
		Capacity:    c.buf.Cap(),
		Result:      c.result,
		Translating: c.translating,
		Generation:  c.generation,
		Version:     c.version,
	}
}

// commit bumps the version, releases the lock and notifies subscribers.
// It must be called with c.mu held.
func (c *Controller) commit() {
	c.version++
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
