package detector

import (
	"context"
	"errors"
	"sync"
)

// ErrFeedStopped is returned by Push after the feed has been stopped.
var ErrFeedStopped = errors.New("feed stopped")

// Feed is a push-driven Source. Observations arrive from outside the
// process (a browser running its own hand tracker) and are forwarded to
// the registered callback in the order they are pushed.
type Feed struct {
	mu      sync.Mutex
	fn      func([]HandLandmarks)
	running bool
}

// NewFeed creates a stopped Feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Start marks the feed as running. The context is accepted for interface
// compatibility; cancellation stops the feed.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			f.Stop()
		}()
	}
	return nil
}

// Stop ends the stream. Later pushes are dropped.
func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

// OnObservation registers the observation callback.
func (f *Feed) OnObservation(fn func(hands []HandLandmarks)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

// Push delivers one frame's observations. Delivery happens under the feed
// lock so concurrent pushes keep their arrival order.
func (f *Feed) Push(hands []HandLandmarks) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return ErrFeedStopped
	}
	if f.fn != nil {
		f.fn(hands)
	}
	return nil
}
