package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/isharavaani/internal/assist"
	"github.com/ayusman/isharavaani/internal/detector"
)

type reply struct {
	text string
	err  error
}

// request is one blocked call into a fake collaborator.
type request struct {
	ctx   context.Context
	input string
	lang  assist.Language
	resp  chan reply
}

func (r request) respond(text string, err error) {
	r.resp <- reply{text: text, err: err}
}

// fakeModel implements Interpreter and Translator. Each call blocks until
// the test responds or the request context ends.
type fakeModel struct {
	calls chan request
}

func newFakeModel() *fakeModel {
	return &fakeModel{calls: make(chan request, 16)}
}

func (f *fakeModel) do(ctx context.Context, input string, lang assist.Language) (string, error) {
	r := request{ctx: ctx, input: input, lang: lang, resp: make(chan reply, 1)}
	f.calls <- r
	select {
	case rep := <-r.resp:
		return rep.text, rep.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeModel) Interpret(ctx context.Context, payload string, lang assist.Language) (string, error) {
	return f.do(ctx, payload, lang)
}

func (f *fakeModel) Translate(ctx context.Context, text string) (string, error) {
	return f.do(ctx, text, assist.Hindi)
}

func (f *fakeModel) next(t *testing.T) request {
	t.Helper()
	select {
	case r := <-f.calls:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a request")
		return request{}
	}
}

func (f *fakeModel) expectNone(t *testing.T) {
	t.Helper()
	select {
	case r := <-f.calls:
		t.Fatalf("unexpected request with input %q", r.input)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, c *Controller, desc string, ok func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := c.Snapshot()
		if ok(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, last snapshot %+v", desc, s)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

type harness struct {
	ctrl        *Controller
	interpreter *fakeModel
	translator  *fakeModel
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	h := &harness{interpreter: newFakeModel(), translator: newFakeModel()}
	cfg := Config{Interpreter: h.interpreter, Translator: h.translator}
	if mutate != nil {
		mutate(&cfg)
	}
	h.ctrl = New(cfg)
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) record(t *testing.T, from, to int) {
	t.Helper()
	if err := h.ctrl.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := from; i <= to; i++ {
		h.ctrl.Observe([]detector.HandLandmarks{marked(i)})
	}
}

func TestController_InitialState(t *testing.T) {
	h := newHarness(t, nil)
	s := h.ctrl.Snapshot()

	if s.State != StateIdle {
		t.Errorf("State = %v, want idle", s.State)
	}
	if s.Buffered != 0 || s.Capacity != DefaultCapacity {
		t.Errorf("Buffered/Capacity = %d/%d", s.Buffered, s.Capacity)
	}
	if s.ID == "" || s.ID != h.ctrl.ID() {
		t.Errorf("ID = %q, ctrl.ID() = %q", s.ID, h.ctrl.ID())
	}
}

func TestController_ObserveOnlyWhileRecording(t *testing.T) {
	h := newHarness(t, nil)

	h.ctrl.Observe([]detector.HandLandmarks{marked(1)})
	if n := h.ctrl.Snapshot().Buffered; n != 0 {
		t.Errorf("idle observation buffered %d samples", n)
	}

	h.ctrl.Start()
	h.ctrl.Observe(nil)
	h.ctrl.Observe([]detector.HandLandmarks{marked(1), marked(2)})
	if n := h.ctrl.Snapshot().Buffered; n != 2 {
		t.Errorf("Buffered = %d, want 2 (one per hand)", n)
	}
}

func TestController_FullCapture(t *testing.T) {
	h := newHarness(t, nil)
	h.record(t, 1, 60)

	if s := h.ctrl.Snapshot(); s.Buffered != 51 {
		t.Fatalf("Buffered = %d, want 51", s.Buffered)
	}

	if err := h.ctrl.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s := h.ctrl.Snapshot(); s.State != StateInterpreting {
		t.Fatalf("State = %v, want interpreting", s.State)
	}

	req := h.interpreter.next(t)
	var want []detector.HandLandmarks
	for i := 51; i <= 60; i++ {
		want = append(want, marked(i))
	}
	if req.input != Serialize(want) {
		t.Errorf("payload does not match samples #51..#60")
	}
	if req.lang != assist.English {
		t.Errorf("lang = %q, want English", req.lang)
	}

	// Observations while interpreting are dropped.
	h.ctrl.Observe([]detector.HandLandmarks{marked(61)})
	if n := h.ctrl.Snapshot().Buffered; n != 51 {
		t.Errorf("Buffered while interpreting = %d, want 51", n)
	}

	req.respond("Hello, how are you?", nil)
	s := waitFor(t, h.ctrl, "idle with translation pending", func(s Snapshot) bool {
		return s.State == StateIdle && s.Translating
	})
	if s.Result.Primary != "Hello, how are you?" || s.Result.Error != "" {
		t.Errorf("Result = %+v", s.Result)
	}
	if s.Buffered != 0 {
		t.Errorf("Buffered = %d after settle, want 0", s.Buffered)
	}

	tr := h.translator.next(t)
	if tr.input != "Hello, how are you?" {
		t.Errorf("translator input = %q", tr.input)
	}
	tr.respond("नमस्ते, आप कैसे हैं?", nil)

	s = waitFor(t, h.ctrl, "translation applied", func(s Snapshot) bool { return !s.Translating })
	if s.Result.Secondary != "नमस्ते, आप कैसे हैं?" {
		t.Errorf("Secondary = %q", s.Result.Secondary)
	}
	if s.Result.Primary != "Hello, how are you?" {
		t.Errorf("Primary changed to %q", s.Result.Primary)
	}
}

func TestController_StopWithEmptyBuffer(t *testing.T) {
	h := newHarness(t, nil)
	h.ctrl.Start()

	if err := h.ctrl.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s := h.ctrl.Snapshot(); s.State != StateRecording {
		t.Errorf("State = %v, want recording", s.State)
	}
	h.interpreter.expectNone(t)
}

func TestController_Transitions(t *testing.T) {
	t.Run("stop while idle", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.ctrl.Stop(); !errors.Is(err, ErrNotRecording) {
			t.Errorf("Stop() = %v, want ErrNotRecording", err)
		}
	})

	t.Run("start while recording keeps buffer", func(t *testing.T) {
		h := newHarness(t, nil)
		h.record(t, 1, 3)
		if err := h.ctrl.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if n := h.ctrl.Snapshot().Buffered; n != 3 {
			t.Errorf("Buffered = %d, want 3", n)
		}
	})

	t.Run("commands while interpreting", func(t *testing.T) {
		h := newHarness(t, nil)
		h.record(t, 1, 3)
		h.ctrl.Stop()
		h.interpreter.next(t)

		if err := h.ctrl.Start(); !errors.Is(err, ErrBusy) {
			t.Errorf("Start() = %v, want ErrBusy", err)
		}
		if err := h.ctrl.Stop(); !errors.Is(err, ErrBusy) {
			t.Errorf("Stop() = %v, want ErrBusy", err)
		}
		h.interpreter.expectNone(t)
	})

	t.Run("start clears previous result", func(t *testing.T) {
		h := newHarness(t, func(c *Config) { c.Translator = nil })
		h.record(t, 1, 3)
		h.ctrl.Stop()
		h.interpreter.next(t).respond("Thank you", nil)
		waitFor(t, h.ctrl, "idle", func(s Snapshot) bool { return s.State == StateIdle })

		h.ctrl.Start()
		s := h.ctrl.Snapshot()
		if s.Result != (Result{}) {
			t.Errorf("Result = %+v, want empty", s.Result)
		}
		if s.State != StateRecording || s.Buffered != 0 {
			t.Errorf("State/Buffered = %v/%d", s.State, s.Buffered)
		}
	})
}

func TestController_InterpretationFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.record(t, 1, 3)
	if n := h.ctrl.Snapshot().Buffered; n != 3 {
		t.Fatalf("Buffered = %d, want 3", n)
	}
	h.ctrl.Stop()

	h.interpreter.next(t).respond("", errors.New("quota exceeded"))

	s := waitFor(t, h.ctrl, "idle", func(s Snapshot) bool { return s.State == StateIdle })
	if s.Result.Error != FallbackMessage {
		t.Errorf("Result.Error = %q, want %q", s.Result.Error, FallbackMessage)
	}
	if s.Result.Primary != "" || s.Translating {
		t.Errorf("Result = %+v, Translating = %v", s.Result, s.Translating)
	}
	if s.Buffered != 0 {
		t.Errorf("Buffered = %d after failure, want 0", s.Buffered)
	}
	h.translator.expectNone(t)
}

func TestController_TranslationFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.record(t, 1, 5)
	h.ctrl.Stop()

	h.interpreter.next(t).respond("Good morning", nil)
	h.translator.next(t).respond("", errors.New("unavailable"))

	s := waitFor(t, h.ctrl, "translation settled", func(s Snapshot) bool {
		return s.State == StateIdle && !s.Translating
	})
	if s.Result.Primary != "Good morning" {
		t.Errorf("Primary = %q", s.Result.Primary)
	}
	if s.Result.Secondary != "" || s.Result.Error != "" {
		t.Errorf("Result = %+v", s.Result)
	}
}

func TestController_ResetDiscardsLateResponse(t *testing.T) {
	h := newHarness(t, nil)
	h.record(t, 1, 5)
	h.ctrl.Stop()
	req := h.interpreter.next(t)

	if err := h.ctrl.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	s := h.ctrl.Snapshot()
	if s.State != StateIdle || s.Buffered != 0 {
		t.Errorf("after Reset: State/Buffered = %v/%d", s.State, s.Buffered)
	}

	select {
	case <-req.ctx.Done():
	case <-time.After(time.Second):
		t.Error("request context was not cancelled by Reset")
	}

	req.respond("Too late", nil)
	h.ctrl.Close()

	if r := h.ctrl.Snapshot().Result; r != (Result{}) {
		t.Errorf("stale response applied: %+v", r)
	}
	h.translator.expectNone(t)
}

func TestController_NewCaptureCancelsTranslation(t *testing.T) {
	h := newHarness(t, nil)
	h.record(t, 1, 5)
	h.ctrl.Stop()
	h.interpreter.next(t).respond("Water", nil)
	tr := h.translator.next(t)

	if err := h.ctrl.Start(); err != nil {
		t.Fatalf("Start() during translation error = %v", err)
	}
	tr.respond("पानी", nil)
	h.ctrl.Close()

	s := h.ctrl.Snapshot()
	if s.State != StateRecording {
		t.Errorf("State = %v, want recording", s.State)
	}
	if s.Result.Secondary != "" || s.Translating {
		t.Errorf("stale translation applied: %+v translating=%v", s.Result, s.Translating)
	}
}

func TestController_Timeout(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Timeout = 20 * time.Millisecond })
	h.record(t, 1, 5)
	h.ctrl.Stop()
	h.interpreter.next(t) // never answered

	s := waitFor(t, h.ctrl, "timeout fallback", func(s Snapshot) bool { return s.State == StateIdle })
	if s.Result.Error != FallbackMessage {
		t.Errorf("Result.Error = %q", s.Result.Error)
	}
}

func TestController_WindowAndLanguage(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.Window = 3
		c.Capacity = 5
		c.Language = assist.Hindi
	})
	h.record(t, 1, 8)

	if s := h.ctrl.Snapshot(); s.Buffered != 5 || s.Capacity != 5 {
		t.Errorf("Buffered/Capacity = %d/%d, want 5/5", s.Buffered, s.Capacity)
	}

	h.ctrl.Stop()
	req := h.interpreter.next(t)
	if n := strings.Count(req.input, "|"); n != 2 {
		t.Errorf("payload has %d samples, want 3", n+1)
	}
	if req.input != Serialize([]detector.HandLandmarks{marked(6), marked(7), marked(8)}) {
		t.Error("payload does not match the newest three samples")
	}
	if req.lang != assist.Hindi {
		t.Errorf("lang = %q, want Hindi", req.lang)
	}
}

func TestController_Subscribe(t *testing.T) {
	h := newHarness(t, nil)

	var mu sync.Mutex
	var got []Snapshot
	unsubscribe := h.ctrl.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	h.ctrl.Start()
	h.ctrl.Observe([]detector.HandLandmarks{marked(1)})
	h.ctrl.Reset()

	mu.Lock()
	if len(got) != 3 {
		t.Fatalf("received %d snapshots, want 3", len(got))
	}
	wantStates := []State{StateRecording, StateRecording, StateIdle}
	for i, s := range got {
		if s.State != wantStates[i] {
			t.Errorf("snapshot %d state = %v, want %v", i, s.State, wantStates[i])
		}
		if i > 0 && s.Version <= got[i-1].Version {
			t.Errorf("versions not increasing: %d then %d", got[i-1].Version, s.Version)
		}
	}
	if got[1].Buffered != 1 {
		t.Errorf("snapshot 1 buffered = %d, want 1", got[1].Buffered)
	}
	mu.Unlock()

	unsubscribe()
	h.ctrl.Start()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Errorf("received snapshot after unsubscribe")
	}
}

func TestController_SubscriberMayCallBack(t *testing.T) {
	h := newHarness(t, nil)

	done := make(chan Snapshot, 4)
	h.ctrl.Subscribe(func(s Snapshot) {
		// Re-entering the controller from a callback must not deadlock.
		done <- h.ctrl.Snapshot()
	})

	h.ctrl.Start()
	select {
	case s := <-done:
		if s.State != StateRecording {
			t.Errorf("State = %v", s.State)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber deadlocked")
	}
}

func TestController_Close(t *testing.T) {
	h := newHarness(t, nil)
	h.record(t, 1, 5)
	h.ctrl.Stop()
	h.interpreter.next(t)

	closed := make(chan struct{})
	go func() {
		h.ctrl.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	for name, fn := range map[string]func() error{
		"Start": h.ctrl.Start,
		"Stop":  h.ctrl.Stop,
		"Reset": h.ctrl.Reset,
	} {
		if err := fn(); !errors.Is(err, ErrClosed) {
			t.Errorf("%s() after Close = %v, want ErrClosed", name, err)
		}
	}
	h.ctrl.Close()
}

func TestController_ObserveAfterClose(t *testing.T) {
	h := newHarness(t, nil)
	h.record(t, 1, 3)
	h.ctrl.Close()

	h.ctrl.Observe([]detector.HandLandmarks{marked(4)})
	if n := h.ctrl.Snapshot().Buffered; n != 3 {
		t.Errorf("Buffered = %d after Close, want 3", n)
	}
}

func TestNew_RequiresInterpreter(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected New to panic without an interpreter")
		}
	}()
	New(Config{Translator: newFakeModel()})
}

func TestController_Bind(t *testing.T) {
	h := newHarness(t, nil)
	feed := detector.NewFeed()
	h.ctrl.Bind(feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed.Start(ctx)

	h.ctrl.Start()
	for i := 1; i <= 4; i++ {
		if err := feed.Push([]detector.HandLandmarks{marked(i)}); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	if n := h.ctrl.Snapshot().Buffered; n != 4 {
		t.Errorf("Buffered = %d, want 4", n)
	}
}
