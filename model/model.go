package model

import (
	"time"

	"github.com/dasdy/xkbstate/xkb"
)

// Position of the key in the scan matrix.
type KeyPosition int

// KeyEvent is one raw key transition as the keyboard firmware reports it.
type KeyEvent struct {
	Row      int
	Col      int
	Position KeyPosition
	Pressed  bool
}

// Transition is one state-engine step: the key event that caused it, the
// components the update reported as changed and the full state after it.
type Transition struct {
	Keycode xkb.KeyCode
	Pressed bool
	Changed xkb.StateComponent
	After   xkb.Components
}

type TransitionWithTimestamp struct {
	Transition
	Timestamp time.Time
}

// KeycodeCount is an aggregated press count for one keycode.
type KeycodeCount struct {
	Keycode xkb.KeyCode
	Count   int
}

// GroupCount counts transitions whose effective group was Group.
type GroupCount struct {
	Group int32
	Count int
}

// ModifierCount counts transitions with a real modifier active in the
// effective mask.
type ModifierCount struct {
	Modifier string
	Count    int
}

// BigramCount counts how often Second was pressed directly after First.
type BigramCount struct {
	First  xkb.KeyCode
	Second xkb.KeyCode
	Count  int
}

// LabeledCount is a display row: a resolved label and its count.
type LabeledCount struct {
	Label string
	Count int
}
