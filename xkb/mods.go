package xkb

import "strings"

// ModMask is a bitmask of real modifiers. Only the eight X11 bits below ever
// appear in state masks; virtual modifiers are resolved to them at build
// time.
type ModMask uint32

// ModIndex identifies an entry in a keymap's ordered modifier list. Indices
// 0 through 7 are always the real modifiers, in the canonical X11 order.
type ModIndex uint32

// ModInvalid is returned by lookups that found no modifier.
const ModInvalid ModIndex = 0xffffffff

// NumRealMods is the number of real modifier bits.
const NumRealMods = 8

// Real modifier masks, matching the X11 wire encoding.
const (
	ShiftMask   ModMask = 1 << 0
	LockMask    ModMask = 1 << 1
	ControlMask ModMask = 1 << 2
	Mod1Mask    ModMask = 1 << 3
	Mod2Mask    ModMask = 1 << 4
	Mod3Mask    ModMask = 1 << 5
	Mod4Mask    ModMask = 1 << 6
	Mod5Mask    ModMask = 1 << 7

	// RealModsMask covers every real modifier bit.
	RealModsMask ModMask = 0xff
)

var realModNames = [NumRealMods]string{
	"Shift", "Lock", "Control", "Mod1", "Mod2", "Mod3", "Mod4", "Mod5",
}

// Has reports whether every bit of other is set in m.
func (m ModMask) Has(other ModMask) bool { return m&other == other }

// Intersects reports whether m and other share any bit.
func (m ModMask) Intersects(other ModMask) bool { return m&other != 0 }

// String renders the mask as pipe-joined real modifier names, "-" when
// empty.
func (m ModMask) String() string {
	if m == 0 {
		return "-"
	}
	var names []string
	for i, name := range realModNames {
		if m&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Mod is one entry of a keymap's modifier list. Real modifiers map to their
// own bit; virtual modifiers map to the union of the real bits they resolve
// to, which may be empty.
type Mod struct {
	Name    string
	Mapping ModMask
	Virtual bool
}
