package llm

import (
	"context"
	"strings"
	"sync"
)

// Echo is an offline Generator for development and tests. It answers with
// a canned reply, or echoes the prompt when no reply is set, and records
// every request.
type Echo struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []Request
}

// NewEcho creates an Echo that replies with reply.
func NewEcho(reply string) *Echo {
	return &Echo{reply: reply}
}

// SetReply changes the canned reply.
func (e *Echo) SetReply(reply string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reply = reply
}

// SetError makes subsequent calls fail with err.
func (e *Echo) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Requests returns the requests seen so far.
func (e *Echo) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Request, len(e.requests))
	copy(out, e.requests)
	return out
}

// Generate records req and returns the canned reply.
func (e *Echo) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, req)
	if e.err != nil {
		return "", e.err
	}
	if e.reply != "" {
		return e.reply, nil
	}
	return req.Prompt, nil
}

// Close is a no-op.
func (e *Echo) Close() error { return nil }
