// Package speech reads recognized sentences aloud.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single utterance.
const DefaultTimeout = 30 * time.Second

// ErrNoEngine is returned by Detect when no speech program is installed.
var ErrNoEngine = errors.New("no text-to-speech engine found")

// Speaker speaks text. Implementations may block until speech finishes.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Nop discards everything. It stands in when no engine is available.
type Nop struct{}

func (Nop) Speak(ctx context.Context, text string) error { return nil }

// CommandSpeaker runs an external program with the text on stdin.
// Utterances are serialized so they never overlap.
type CommandSpeaker struct {
	Path    string
	Args    []string
	Timeout time.Duration

	mu sync.Mutex
}

// NewCommandSpeaker creates a speaker for the program at path.
func NewCommandSpeaker(path string, args ...string) *CommandSpeaker {
	return &CommandSpeaker{Path: path, Args: args, Timeout: DefaultTimeout}
}

// engines lists known programs that read text from stdin.
var engines = []struct {
	name string
	args []string
}{
	{"espeak-ng", []string{"--stdin"}},
	{"espeak", []string{"--stdin"}},
	{"say", []string{"-f", "-"}},
}

// Detect returns a speaker for the first installed engine.
func Detect() (*CommandSpeaker, error) {
	for _, e := range engines {
		if path, err := exec.LookPath(e.name); err == nil {
			return NewCommandSpeaker(path, e.args...), nil
		}
	}
	return nil, ErrNoEngine
}

// Speak runs the program and waits for it to exit or time out.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("speech timed out after %s", timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("speech failed: %w", err)
	}
	return nil
}
