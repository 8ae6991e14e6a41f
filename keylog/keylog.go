// Package keylog turns firmware log lines into keyboard state transitions
// and persists them.
package keylog

import (
	"errors"
	"log/slog"

	"github.com/dasdy/xkbstate/db"
	"github.com/dasdy/xkbstate/keylog/parser"
	"github.com/dasdy/xkbstate/model"
	"github.com/dasdy/xkbstate/xkb"
)

// Loop feeds parsed key events through a state machine and stores every
// transition. It is not safe for concurrent use; run one loop per line
// stream.
type Loop struct {
	state    *xkb.State
	base     xkb.KeyCode
	storage  db.Storage
	trackers []db.Tracker
	verbose  bool
}

// NewLoop builds a loop over a fresh state for the keymap. Scan positions
// are translated to keycodes by adding base, matching the evdev convention
// of firmware position 0 sitting at the keymap's first keycode.
func NewLoop(km *xkb.Keymap, base xkb.KeyCode, storage db.Storage, trackers []db.Tracker, verbose bool) *Loop {
	return &Loop{
		state:    xkb.NewState(km),
		base:     base,
		storage:  storage,
		trackers: trackers,
		verbose:  verbose,
	}
}

// State exposes the live state for status displays. Callers must not feed
// it their own updates.
func (l *Loop) State() *xkb.State {
	return l.state
}

// AddTracker registers another transition consumer. Call it before the loop
// starts handling lines.
func (l *Loop) AddTracker(tracker db.Tracker) {
	l.trackers = append(l.trackers, tracker)
}

// Run consumes lines until the channel closes.
func (l *Loop) Run(ch <-chan string) {
	for line := range ch {
		l.HandleLine(line)
	}

	slog.Info("line stream closed, bailing out")
}

// HandleLine parses one firmware line and advances the state. Lines that
// carry no event are skipped quietly; malformed events are logged.
func (l *Loop) HandleLine(line string) {
	event, err := parser.ParseLine(line)
	if err != nil {
		if !errors.Is(err, parser.ErrNotAnEvent) {
			slog.Warn("could not parse line", "error", err, "line", line)
		}

		return
	}

	l.HandleEvent(event)
}

// HandleEvent advances the state by one key event and persists the
// resulting transition.
func (l *Loop) HandleEvent(event *model.KeyEvent) {
	keycode := l.base + xkb.KeyCode(event.Position)

	dir := xkb.KeyUp
	if event.Pressed {
		dir = xkb.KeyDown
	}

	// Query the symbol before the update so a shift press does not already
	// apply to its own key.
	var text string
	if event.Pressed {
		text = l.state.KeyGetString(keycode)
	}

	changed := l.state.UpdateKey(keycode, dir)

	tr := model.Transition{
		Keycode: keycode,
		Pressed: event.Pressed,
		Changed: changed,
		After:   l.state.Components(),
	}

	if l.verbose {
		slog.Info("key event",
			"keycode", keycode,
			"direction", dir,
			"text", text,
			"changed", changed,
			"mods", tr.After.ModsEffective,
			"group", tr.After.GroupEffective)
	}

	if err := l.storage.Store(&tr); err != nil {
		slog.Error("could not store transition", "error", err)
	}

	for _, tracker := range l.trackers {
		tracker.HandleTransitionNow(&tr, l.verbose)
	}
}
