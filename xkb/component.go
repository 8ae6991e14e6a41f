package xkb

import "strings"

// StateComponent is a bitmask naming parts of the keyboard state. Update
// operations return the set of components they changed; queries and LED
// conditions use it to select which masks to look at.
type StateComponent uint32

const (
	StateModsDepressed StateComponent = 1 << iota
	StateModsLatched
	StateModsLocked
	StateModsEffective
	StateGroupDepressed
	StateGroupLatched
	StateGroupLocked
	StateGroupEffective
	StateLEDs
)

// StateModsAll and StateGroupAll select every component of their kind.
const (
	StateModsAll  = StateModsDepressed | StateModsLatched | StateModsLocked | StateModsEffective
	StateGroupAll = StateGroupDepressed | StateGroupLatched | StateGroupLocked | StateGroupEffective
)

var stateComponentNames = []struct {
	bit  StateComponent
	name string
}{
	{StateModsDepressed, "mods-depressed"},
	{StateModsLatched, "mods-latched"},
	{StateModsLocked, "mods-locked"},
	{StateModsEffective, "mods-effective"},
	{StateGroupDepressed, "group-depressed"},
	{StateGroupLatched, "group-latched"},
	{StateGroupLocked, "group-locked"},
	{StateGroupEffective, "group-effective"},
	{StateLEDs, "leds"},
}

// String renders the set as pipe-joined component names, "-" when empty.
func (c StateComponent) String() string {
	if c == 0 {
		return "-"
	}
	var names []string
	for _, e := range stateComponentNames {
		if c&e.bit != 0 {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, "|")
}

// KeyDirection distinguishes press from release in UpdateKey.
type KeyDirection uint8

const (
	KeyUp KeyDirection = iota
	KeyDown
)

func (d KeyDirection) String() string {
	if d == KeyDown {
		return "down"
	}
	return "up"
}

// StateMatch controls how multi-modifier predicates combine their operands.
type StateMatch uint32

const (
	// StateMatchAny is satisfied when at least one listed modifier is
	// active.
	StateMatchAny StateMatch = 1 << 0
	// StateMatchAll requires every listed modifier to be active.
	StateMatchAll StateMatch = 1 << 1
	// StateMatchNonExclusive may be ORed in to also forbid real modifiers
	// outside the listed set.
	StateMatchNonExclusive StateMatch = 1 << 16
)

// Components is a snapshot of every state component, as stored: modifier
// masks are real-only, group base values are signed, the effective group is
// a resolved index and leds is a bitmask over LED indices.
type Components struct {
	ModsDepressed  ModMask
	ModsLatched    ModMask
	ModsLocked     ModMask
	ModsEffective  ModMask
	GroupDepressed int32
	GroupLatched   int32
	GroupLocked    int32
	GroupEffective GroupIndex
	LEDs           uint32
}
