package xkb

import "fmt"

// ActionKind selects what a key level does to the state when its key is
// pressed and released.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionModSet
	ActionModLatch
	ActionModLock
	ActionGroupSet
	ActionGroupLatch
	ActionGroupLock
)

var actionKindNames = map[ActionKind]string{
	ActionNone:       "none",
	ActionModSet:     "set-mods",
	ActionModLatch:   "latch-mods",
	ActionModLock:    "lock-mods",
	ActionGroupSet:   "set-group",
	ActionGroupLatch: "latch-group",
	ActionGroupLock:  "lock-group",
}

func (k ActionKind) String() string {
	if n, ok := actionKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ActionFlags modify how an action behaves.
type ActionFlags uint16

const (
	// ActionClearLocks makes the final release of a set action also clear
	// the same locked bits, and a latch release cancel an existing lock
	// instead of arming.
	ActionClearLocks ActionFlags = 1 << iota
	// ActionLatchToLock promotes a pending latch to a lock when the latch
	// key is tapped a second time.
	ActionLatchToLock
	// ActionLockNoLock suppresses the locking half of a lock action.
	ActionLockNoLock
	// ActionLockNoUnlock suppresses the unlocking half of a lock action.
	ActionLockNoUnlock
	// ActionAbsoluteGroup marks the Group field of a group action as an
	// absolute index rather than a delta.
	ActionAbsoluteGroup
)

// Action is a compiled key action. Mods is already resolved to real
// modifier bits; Group is a signed delta unless ActionAbsoluteGroup is set.
type Action struct {
	Kind  ActionKind
	Flags ActionFlags
	Mods  ModMask
	Group int32
}

// IsNone reports whether the action does nothing.
func (a Action) IsNone() bool { return a.Kind == ActionNone }

// String renders the action with its argument, like "set-mods(Shift)" or
// "lock-group(+1)". Absolute group targets render 1-based with "=".
func (a Action) String() string {
	switch a.Kind {
	case ActionModSet, ActionModLatch, ActionModLock:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Mods)
	case ActionGroupSet, ActionGroupLatch, ActionGroupLock:
		if a.Flags&ActionAbsoluteGroup != 0 {
			return fmt.Sprintf("%s(=%d)", a.Kind, a.Group+1)
		}
		return fmt.Sprintf("%s(%+d)", a.Kind, a.Group)
	default:
		return a.Kind.String()
	}
}

// sameLatch reports whether two actions describe the same latch, which is
// what promotes a pending latch on a second tap.
func (a Action) sameLatch(b Action) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ActionModLatch:
		return a.Mods == b.Mods
	case ActionGroupLatch:
		return a.Group == b.Group && a.Flags&ActionAbsoluteGroup == b.Flags&ActionAbsoluteGroup
	default:
		return false
	}
}
