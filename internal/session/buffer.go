package session

import "github.com/ayusman/isharavaani/internal/detector"

// Buffer is a fixed-capacity ring of hand-pose samples. Appending past
// capacity evicts the oldest sample, so the buffer always holds the most
// recent Cap() samples in arrival order.
type Buffer struct {
	samples []detector.HandLandmarks
	head    int // index of the oldest sample
	size    int
}

// NewBuffer creates a buffer holding at most capacity samples.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{samples: make([]detector.HandLandmarks, capacity)}
}

// Append adds a sample, evicting the oldest one when full.
func (b *Buffer) Append(s detector.HandLandmarks) {
	if b.size < len(b.samples) {
		b.samples[(b.head+b.size)%len(b.samples)] = s
		b.size++
		return
	}
	b.samples[b.head] = s
	b.head = (b.head + 1) % len(b.samples)
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.samples)
}

// Last returns a copy of the newest n samples, oldest first.
// It returns fewer than n when fewer are buffered.
func (b *Buffer) Last(n int) []detector.HandLandmarks {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}

	out := make([]detector.HandLandmarks, n)
	start := b.head + b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.samples[(start+i)%len(b.samples)]
	}
	return out
}

// Samples returns a copy of every buffered sample, oldest first.
func (b *Buffer) Samples() []detector.HandLandmarks {
	return b.Last(b.size)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	clear(b.samples)
	b.head = 0
	b.size = 0
}
