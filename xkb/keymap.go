// Package xkb models compiled keyboard keymaps and the state machine that
// interprets key events against them.
//
// A Keymap is assembled once through a Builder (usually via a layout
// document) and is immutable afterwards: it holds the keycode range, per-key
// symbol and action tables, the modifier list with virtual-modifier
// resolution, group names, key types and LED conditions. Any number of State
// values can track live keyboard state against one Keymap; State is the
// mutable half and is not safe for concurrent use.
package xkb

import "iter"

// KeyCode identifies a physical key. Values are opaque to this package
// beyond falling inside the keymap's declared range; with evdev-style
// keymaps they are kernel keycodes plus 8.
type KeyCode uint32

// KeycodeInvalid is never a valid key.
const KeycodeInvalid KeyCode = 0xffffffff

// GroupIndex is a 0-based group (layout) index.
type GroupIndex uint32

// GroupInvalid is returned by group resolution when a key has no groups or
// the keycode is unknown.
const GroupInvalid GroupIndex = 0xffffffff

// WrapPolicy says how an effective group outside a key's own group range is
// brought back into range. Clamp and Saturate both stick to the nearest
// bound; Redirect selects a fixed group.
type WrapPolicy uint8

const (
	WrapPolicyWrap WrapPolicy = iota
	WrapPolicyClamp
	WrapPolicySaturate
	WrapPolicyRedirect
)

var wrapPolicyNames = map[WrapPolicy]string{
	WrapPolicyWrap:     "wrap",
	WrapPolicyClamp:    "clamp",
	WrapPolicySaturate: "saturate",
	WrapPolicyRedirect: "redirect",
}

func (p WrapPolicy) String() string {
	if n, ok := wrapPolicyNames[p]; ok {
		return n
	}
	return "wrap"
}

// Level is one shift level of one group of a key: its keysyms and the
// action a press triggers.
type Level struct {
	Syms   []Keysym
	Action Action
}

// KeyGroup is one group of a key: the type that selects levels and the
// levels themselves.
type KeyGroup struct {
	Type   *KeyType
	Levels []Level
}

// Key is a compiled key. Fields are read-only after Build.
type Key struct {
	Code          KeyCode
	Groups        []KeyGroup
	Repeats       bool
	Wrap          WrapPolicy
	RedirectGroup GroupIndex
}

// Keymap is a compiled keymap. It is immutable and safe for concurrent use.
type Keymap struct {
	name       string
	minKeycode KeyCode
	maxKeycode KeyCode
	keys       map[KeyCode]*Key
	keycodes   []KeyCode
	mods       []Mod
	groupNames []string
	numGroups  int
	types      []*KeyType
	leds       []LED
}

// Name returns the keymap's name, which may be empty.
func (k *Keymap) Name() string { return k.name }

// MinKeycode and MaxKeycode bound the keycode range the keymap was declared
// over. Keys inside the range may still be undefined.
func (k *Keymap) MinKeycode() KeyCode { return k.minKeycode }

func (k *Keymap) MaxKeycode() KeyCode { return k.maxKeycode }

// Keys iterates over the defined keycodes in ascending order.
func (k *Keymap) Keys() iter.Seq[KeyCode] {
	return func(yield func(KeyCode) bool) {
		for _, kc := range k.keycodes {
			if !yield(kc) {
				return
			}
		}
	}
}

// Key returns the compiled key for a keycode. The returned value is shared
// and must not be modified.
func (k *Keymap) Key(kc KeyCode) (*Key, bool) {
	key, ok := k.keys[kc]
	return key, ok
}

// NumMods returns the number of modifiers, real and virtual.
func (k *Keymap) NumMods() int { return len(k.mods) }

// Mods returns a copy of the modifier list in index order.
func (k *Keymap) Mods() []Mod {
	out := make([]Mod, len(k.mods))
	copy(out, k.mods)
	return out
}

// ModIndex resolves a modifier name to its index.
func (k *Keymap) ModIndex(name string) (ModIndex, error) {
	for i := range k.mods {
		if k.mods[i].Name == name {
			return ModIndex(i), nil
		}
	}
	return ModInvalid, &NotFoundError{Kind: RefModifier, Name: name}
}

// ModName returns the name of the modifier at an index.
func (k *Keymap) ModName(i ModIndex) (string, error) {
	if int(i) >= len(k.mods) {
		return "", &InvalidIndexError{Kind: RefModifier, Index: int(i), Num: len(k.mods)}
	}
	return k.mods[i].Name, nil
}

// ModMapping returns the real-modifier mask a modifier resolves to: its own
// bit for a real modifier, the mapped union for a virtual one.
func (k *Keymap) ModMapping(i ModIndex) (ModMask, error) {
	if int(i) >= len(k.mods) {
		return 0, &InvalidIndexError{Kind: RefModifier, Index: int(i), Num: len(k.mods)}
	}
	return k.mods[i].Mapping, nil
}

// ResolveMods resolves a list of modifier names to the union of their real
// masks.
func (k *Keymap) ResolveMods(names ...string) (ModMask, error) {
	var mask ModMask
	for _, name := range names {
		i, err := k.ModIndex(name)
		if err != nil {
			return 0, err
		}
		mask |= k.mods[i].Mapping
	}
	return mask, nil
}

// NumGroups returns the number of groups the keymap supports, the maximum
// over all keys and the declared group names.
func (k *Keymap) NumGroups() int { return k.numGroups }

// GroupName returns the name of a group; valid but unnamed groups yield "".
func (k *Keymap) GroupName(i GroupIndex) (string, error) {
	if int(i) >= k.numGroups {
		return "", &InvalidIndexError{Kind: RefGroup, Index: int(i), Num: k.numGroups}
	}
	if int(i) >= len(k.groupNames) {
		return "", nil
	}
	return k.groupNames[i], nil
}

// GroupIndex resolves a group name to its index.
func (k *Keymap) GroupIndex(name string) (GroupIndex, error) {
	for i, n := range k.groupNames {
		if n == name {
			return GroupIndex(i), nil
		}
	}
	return GroupInvalid, &NotFoundError{Kind: RefGroup, Name: name}
}

// GroupNames returns a copy of the declared group names in index order.
func (k *Keymap) GroupNames() []string {
	out := make([]string, len(k.groupNames))
	copy(out, k.groupNames)
	return out
}

// NumLEDs returns the number of declared LEDs.
func (k *Keymap) NumLEDs() int { return len(k.leds) }

// LEDs returns a copy of the LED conditions in index order.
func (k *Keymap) LEDs() []LED {
	out := make([]LED, len(k.leds))
	copy(out, k.leds)
	return out
}

// LEDName returns the name of the LED at an index.
func (k *Keymap) LEDName(i LEDIndex) (string, error) {
	if int(i) >= len(k.leds) {
		return "", &InvalidIndexError{Kind: RefLED, Index: int(i), Num: len(k.leds)}
	}
	return k.leds[i].Name, nil
}

// LEDIndex resolves an LED name to its index.
func (k *Keymap) LEDIndex(name string) (LEDIndex, error) {
	for i := range k.leds {
		if k.leds[i].Name == name {
			return LEDIndex(i), nil
		}
	}
	return LEDInvalid, &NotFoundError{Kind: RefLED, Name: name}
}

// Types returns the key types in declaration order. The returned values are
// shared and must not be modified.
func (k *Keymap) Types() []*KeyType {
	out := make([]*KeyType, len(k.types))
	copy(out, k.types)
	return out
}

// NumGroupsForKey returns how many groups a key defines, 0 for unknown
// keycodes.
func (k *Keymap) NumGroupsForKey(kc KeyCode) int {
	key := k.keys[kc]
	if key == nil {
		return 0
	}
	return len(key.Groups)
}

// NumLevelsForKey returns how many levels a key defines in a group, with
// the group index clamped into the key's range. Unknown keycodes yield 0.
func (k *Keymap) NumLevelsForKey(kc KeyCode, group GroupIndex) int {
	key := k.keys[kc]
	if key == nil || len(key.Groups) == 0 {
		return 0
	}
	return len(key.Groups[clampIndex(int(group), len(key.Groups))].Levels)
}

// KeyRepeats reports whether a key autorepeats. Unknown keycodes do not.
func (k *Keymap) KeyRepeats(kc KeyCode) bool {
	key := k.keys[kc]
	return key != nil && key.Repeats
}

// Lookup returns the keysyms a key produces at an explicit group and level.
// It is total: unknown keycodes and empty positions yield nil, and
// out-of-range group or level indices clamp to the nearest valid index.
func (k *Keymap) Lookup(kc KeyCode, group GroupIndex, level LevelIndex) []Keysym {
	key := k.keys[kc]
	if key == nil || len(key.Groups) == 0 {
		return nil
	}
	kg := &key.Groups[clampIndex(int(group), len(key.Groups))]
	if len(kg.Levels) == 0 {
		return nil
	}
	syms := kg.Levels[clampIndex(int(level), len(kg.Levels))].Syms
	if len(syms) == 0 {
		return nil
	}
	return syms
}

// KeyAction returns the action a key carries at an explicit group and
// level, with the same clamping as Lookup. Keys without actions yield the
// zero Action.
func (k *Keymap) KeyAction(kc KeyCode, group GroupIndex, level LevelIndex) Action {
	key := k.keys[kc]
	if key == nil || len(key.Groups) == 0 {
		return Action{}
	}
	kg := &key.Groups[clampIndex(int(group), len(key.Groups))]
	if len(kg.Levels) == 0 {
		return Action{}
	}
	return kg.Levels[clampIndex(int(level), len(kg.Levels))].Action
}

// KeyActions returns every action a key carries, group-major then by level.
// Unknown keycodes yield nil.
func (k *Keymap) KeyActions(kc KeyCode) []Action {
	key := k.keys[kc]
	if key == nil {
		return nil
	}
	var out []Action
	for gi := range key.Groups {
		for li := range key.Groups[gi].Levels {
			out = append(out, key.Groups[gi].Levels[li].Action)
		}
	}
	return out
}

// clampIndex brings i into [0, n) for n > 0. Negative values (from unsigned
// wraparound through int conversion) clamp to the top, matching "closest
// valid index" for huge unsigned inputs.
func clampIndex(i, n int) int {
	if i < 0 || i >= n {
		return n - 1
	}
	return i
}

// wrapGroupIntoRange brings a possibly negative group value into [0, n)
// under a policy. Returns GroupInvalid when there are no groups at all.
func wrapGroupIntoRange(group int32, n int, policy WrapPolicy, redirect GroupIndex) GroupIndex {
	if n <= 0 {
		return GroupInvalid
	}
	if group >= 0 && int(group) < n {
		return GroupIndex(group)
	}
	switch policy {
	case WrapPolicyRedirect:
		if int(redirect) >= n {
			return 0
		}
		return redirect
	case WrapPolicyClamp, WrapPolicySaturate:
		if group < 0 {
			return 0
		}
		return GroupIndex(n - 1)
	default:
		g := group % int32(n)
		if g < 0 {
			g += int32(n)
		}
		return GroupIndex(g)
	}
}
