// Package tray provides the desktop system tray for live recognition.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/session"
)

// Controls are the recognition commands the tray menu triggers.
type Controls interface {
	StartRecording() error
	StopRecording() error
	Reset() error
	Speak() error
}

// Tray represents the system tray application.
type Tray struct {
	controls Controls
	log      logrus.FieldLogger

	mu     sync.RWMutex
	onOpen func()
	onQuit func()
	last   session.Snapshot
	ready  bool

	menuStatus *systray.MenuItem
	menuStart  *systray.MenuItem
	menuStop   *systray.MenuItem
	menuReset  *systray.MenuItem
	menuSpeak  *systray.MenuItem
	menuResult *systray.MenuItem
}

// New creates a tray that drives controls.
func New(controls Controls, log logrus.FieldLogger) *Tray {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tray{controls: controls, log: log.WithField("component", "tray")}
}

// OnOpen sets the callback for the Open in Browser item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("IsharaVaani")
	systray.SetTooltip("IsharaVaani sign recognition")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("", "Recognition state")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuStart = systray.AddMenuItem("Start Recording", "Begin capturing signs")
	t.menuStop = systray.AddMenuItem("Stop & Translate", "Interpret the captured signs")
	t.menuReset = systray.AddMenuItem("Reset", "Discard the capture and result")
	t.menuSpeak = systray.AddMenuItem("Speak", "Read the sentence aloud")
	systray.AddSeparator()

	t.menuResult = systray.AddMenuItem("", "Last recognized sentence")
	t.menuResult.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser", "Open the web interface")
	menuQuit := systray.AddMenuItem("Quit", "Quit IsharaVaani")

	t.ready = true
	t.renderLocked()
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuStart.ClickedCh:
				t.run("start", t.controls.StartRecording)
			case <-t.menuStop.ClickedCh:
				t.run("stop", t.controls.StopRecording)
			case <-t.menuReset.ClickedCh:
				t.run("reset", t.controls.Reset)
			case <-t.menuSpeak.ClickedCh:
				t.run("speak", t.controls.Speak)
			case <-menuOpen.ClickedCh:
				t.mu.RLock()
				fn := t.onOpen
				t.mu.RUnlock()
				if fn != nil {
					fn()
				}
			case <-menuQuit.ClickedCh:
				t.mu.RLock()
				fn := t.onQuit
				t.mu.RUnlock()
				if fn != nil {
					fn()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) run(name string, cmd func() error) {
	if err := cmd(); err != nil {
		t.log.WithError(err).WithField("command", name).Warn("tray command failed")
	}
}

// Update renders a session snapshot. Snapshots older than the last one
// rendered are ignored.
func (t *Tray) Update(s session.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.Version < t.last.Version {
		return
	}
	t.last = s
	if t.ready {
		t.renderLocked()
	}
}

func (t *Tray) renderLocked() {
	v := render(t.last)

	t.menuStatus.SetTitle(v.status)
	t.menuResult.SetTitle(v.result)
	setEnabled(t.menuStart, v.canStart)
	setEnabled(t.menuStop, v.canStop)
	setEnabled(t.menuReset, v.canReset)
	setEnabled(t.menuSpeak, v.canSpeak)
}

func setEnabled(item *systray.MenuItem, on bool) {
	if on {
		item.Enable()
	} else {
		item.Disable()
	}
}

type view struct {
	status   string
	result   string
	canStart bool
	canStop  bool
	canReset bool
	canSpeak bool
}

func render(s session.Snapshot) view {
	v := view{result: "Last: none"}

	switch s.State {
	case session.StateRecording:
		v.status = "● Recording"
		v.canStop = true
		v.canReset = true
	case session.StateInterpreting:
		v.status = "… Interpreting"
		v.canReset = true
	default:
		v.status = "○ Idle"
		v.canStart = true
		v.canReset = s.Result != (session.Result{})
	}

	switch {
	case s.Result.Error != "":
		v.result = s.Result.Error
	case s.Result.Primary != "":
		v.result = "Last: " + s.Result.Primary
		if s.Result.Secondary != "" {
			v.result += " / " + s.Result.Secondary
		}
		v.canSpeak = true
	}
	return v
}
