package xkb

import "errors"

// ErrInvalidMatch is returned by the AreActive predicates when the match
// argument selects neither Any nor All.
var ErrInvalidMatch = errors.New("match must include StateMatchAny or StateMatchAll")

// State tracks live keyboard state against one keymap: the depressed,
// latched and locked modifier masks and group values, their derived
// effective forms, and the LEDs.
//
// State mutation is total: UpdateKey and UpdateMask always succeed, unknown
// keycodes are no-ops, and out-of-range group values are brought into range
// rather than rejected. A State must not be used from multiple goroutines
// at once.
type State struct {
	keymap *Keymap
	cur    Components

	// modCounts refcounts depressed real modifiers across keys, so two
	// held keys setting the same modifier release it only once both are
	// up.
	modCounts [NumRealMods]int16
	setMods   ModMask
	clearMods ModMask
	filters   []filter
}

// NewState returns a fresh state for a keymap, with no modifiers active and
// the first group selected.
func NewState(km *Keymap) *State {
	s := &State{keymap: km}
	s.updateDerived()
	return s
}

// Keymap returns the keymap the state tracks.
func (s *State) Keymap() *Keymap { return s.keymap }

// Components returns a snapshot of every state component.
func (s *State) Components() Components { return s.cur }

// UpdateKey feeds one key press or release through the keymap's actions and
// returns the set of components that changed. Unknown keycodes change
// nothing.
func (s *State) UpdateKey(kc KeyCode, dir KeyDirection) StateComponent {
	key := s.keymap.keys[kc]
	if key == nil {
		return 0
	}
	prev := s.cur
	s.setMods, s.clearMods = 0, 0
	s.applyFilters(key, dir)
	s.applyModCounts()
	s.updateDerived()
	return componentDiff(&prev, &s.cur)
}

// UpdateMask overwrites the base components directly, bypassing per-key
// action tracking. It serves states mirroring a remote master: modifier
// masks are clamped to real bits, group values brought into range when
// deriving. Returns the changed components.
func (s *State) UpdateMask(modsDepressed, modsLatched, modsLocked ModMask, groupDepressed, groupLatched, groupLocked int32) StateComponent {
	prev := s.cur
	s.cur.ModsDepressed = modsDepressed & RealModsMask
	s.cur.ModsLatched = modsLatched & RealModsMask
	s.cur.ModsLocked = modsLocked & RealModsMask
	s.cur.GroupDepressed = groupDepressed
	s.cur.GroupLatched = groupLatched
	s.cur.GroupLocked = groupLocked
	s.updateDerived()
	return componentDiff(&prev, &s.cur)
}

// applyModCounts folds the set and clear masks the filters accumulated into
// the depressed mask, refcounting each bit.
func (s *State) applyModCounts() {
	for i := 0; i < NumRealMods; i++ {
		bit := ModMask(1) << uint(i)
		if s.setMods&bit != 0 {
			s.modCounts[i]++
			if s.modCounts[i] == 1 {
				s.cur.ModsDepressed |= bit
			}
		}
	}
	for i := 0; i < NumRealMods; i++ {
		bit := ModMask(1) << uint(i)
		if s.clearMods&bit != 0 {
			s.modCounts[i]--
			if s.modCounts[i] <= 0 {
				s.cur.ModsDepressed &^= bit
				s.modCounts[i] = 0
			}
		}
	}
	s.setMods, s.clearMods = 0, 0
}

// updateDerived recomputes the effective modifier mask, the effective group
// and the LEDs from the base components. The locked group is stored back
// wrapped into range.
func (s *State) updateDerived() {
	s.cur.ModsEffective = s.cur.ModsDepressed | s.cur.ModsLatched | s.cur.ModsLocked
	if n := s.keymap.numGroups; n > 0 {
		lg := wrapGroupIntoRange(s.cur.GroupLocked, n, WrapPolicyWrap, 0)
		s.cur.GroupLocked = int32(lg)
		eg := wrapGroupIntoRange(s.cur.GroupDepressed+s.cur.GroupLatched+s.cur.GroupLocked, n, WrapPolicyWrap, 0)
		s.cur.GroupEffective = eg
	} else {
		s.cur.GroupEffective = 0
	}
	var leds uint32
	for i := range s.keymap.leds {
		if s.keymap.leds[i].activeFor(&s.cur) {
			leds |= 1 << uint(i)
		}
	}
	s.cur.LEDs = leds
}

func componentDiff(prev, cur *Components) StateComponent {
	var ch StateComponent
	if prev.ModsDepressed != cur.ModsDepressed {
		ch |= StateModsDepressed
	}
	if prev.ModsLatched != cur.ModsLatched {
		ch |= StateModsLatched
	}
	if prev.ModsLocked != cur.ModsLocked {
		ch |= StateModsLocked
	}
	if prev.ModsEffective != cur.ModsEffective {
		ch |= StateModsEffective
	}
	if prev.GroupDepressed != cur.GroupDepressed {
		ch |= StateGroupDepressed
	}
	if prev.GroupLatched != cur.GroupLatched {
		ch |= StateGroupLatched
	}
	if prev.GroupLocked != cur.GroupLocked {
		ch |= StateGroupLocked
	}
	if prev.GroupEffective != cur.GroupEffective {
		ch |= StateGroupEffective
	}
	if prev.LEDs != cur.LEDs {
		ch |= StateLEDs
	}
	return ch
}

// SerializeMods projects the selected modifier components into one mask,
// for handing to a remote state's UpdateMask. Effective wins when selected;
// otherwise the selected base components are ORed.
func (s *State) SerializeMods(which StateComponent) ModMask {
	if which&StateModsEffective != 0 {
		return s.cur.ModsEffective
	}
	var m ModMask
	if which&StateModsDepressed != 0 {
		m |= s.cur.ModsDepressed
	}
	if which&StateModsLatched != 0 {
		m |= s.cur.ModsLatched
	}
	if which&StateModsLocked != 0 {
		m |= s.cur.ModsLocked
	}
	return m
}

// SerializeGroup projects the selected group components into one value:
// the resolved index for Effective, the sum of the selected base values
// otherwise.
func (s *State) SerializeGroup(which StateComponent) GroupIndex {
	if which&StateGroupEffective != 0 {
		return s.cur.GroupEffective
	}
	var g int32
	if which&StateGroupDepressed != 0 {
		g += s.cur.GroupDepressed
	}
	if which&StateGroupLatched != 0 {
		g += s.cur.GroupLatched
	}
	if which&StateGroupLocked != 0 {
		g += s.cur.GroupLocked
	}
	return GroupIndex(g)
}

// LEDMask returns the current LED state as a bitmask over LED indices.
func (s *State) LEDMask() uint32 { return s.cur.LEDs }

// ModIndexIsActive reports whether the modifier at an index is active in
// the selected components. A virtual modifier is active when its whole
// mapping is; one that maps to nothing never is.
func (s *State) ModIndexIsActive(i ModIndex, which StateComponent) (bool, error) {
	if int(i) >= len(s.keymap.mods) {
		return false, &InvalidIndexError{Kind: RefModifier, Index: int(i), Num: len(s.keymap.mods)}
	}
	mapping := s.keymap.mods[i].Mapping
	if mapping == 0 {
		return false, nil
	}
	return s.SerializeMods(which)&mapping == mapping, nil
}

// ModNameIsActive is ModIndexIsActive by name.
func (s *State) ModNameIsActive(name string, which StateComponent) (bool, error) {
	i, err := s.keymap.ModIndex(name)
	if err != nil {
		return false, err
	}
	return s.ModIndexIsActive(i, which)
}

// ModIndicesAreActive combines ModIndexIsActive over several modifiers
// under Any or All semantics; StateMatchNonExclusive additionally rejects
// states with real modifiers outside the listed set.
func (s *State) ModIndicesAreActive(which StateComponent, match StateMatch, indices ...ModIndex) (bool, error) {
	active := s.SerializeMods(which)
	var wanted ModMask
	anyOn, allOn := false, true
	for _, i := range indices {
		if int(i) >= len(s.keymap.mods) {
			return false, &InvalidIndexError{Kind: RefModifier, Index: int(i), Num: len(s.keymap.mods)}
		}
		mapping := s.keymap.mods[i].Mapping
		wanted |= mapping
		on := mapping != 0 && active&mapping == mapping
		anyOn = anyOn || on
		allOn = allOn && on
	}
	if match&StateMatchNonExclusive != 0 && active&^wanted != 0 {
		return false, nil
	}
	switch {
	case match&StateMatchAll != 0:
		return allOn, nil
	case match&StateMatchAny != 0:
		return anyOn, nil
	default:
		return false, ErrInvalidMatch
	}
}

// ModNamesAreActive is ModIndicesAreActive by name.
func (s *State) ModNamesAreActive(which StateComponent, match StateMatch, names ...string) (bool, error) {
	indices := make([]ModIndex, len(names))
	for j, name := range names {
		i, err := s.keymap.ModIndex(name)
		if err != nil {
			return false, err
		}
		indices[j] = i
	}
	return s.ModIndicesAreActive(which, match, indices...)
}

// ActiveModNames returns the names of every modifier, real and virtual,
// whose mapping is fully contained in the effective mask, in keymap order.
func (s *State) ActiveModNames() []string {
	var out []string
	for i := range s.keymap.mods {
		m := &s.keymap.mods[i]
		if m.Mapping != 0 && s.cur.ModsEffective&m.Mapping == m.Mapping {
			out = append(out, m.Name)
		}
	}
	return out
}

// GroupIndexIsActive reports whether a group index is active in any of the
// selected components.
func (s *State) GroupIndexIsActive(i GroupIndex, which StateComponent) (bool, error) {
	if int(i) >= s.keymap.numGroups {
		return false, &InvalidIndexError{Kind: RefGroup, Index: int(i), Num: s.keymap.numGroups}
	}
	active := false
	if which&StateGroupEffective != 0 && s.cur.GroupEffective == i {
		active = true
	}
	if which&StateGroupDepressed != 0 && s.cur.GroupDepressed == int32(i) {
		active = true
	}
	if which&StateGroupLatched != 0 && s.cur.GroupLatched == int32(i) {
		active = true
	}
	if which&StateGroupLocked != 0 && s.cur.GroupLocked == int32(i) {
		active = true
	}
	return active, nil
}

// GroupNameIsActive is GroupIndexIsActive by name.
func (s *State) GroupNameIsActive(name string, which StateComponent) (bool, error) {
	i, err := s.keymap.GroupIndex(name)
	if err != nil {
		return false, err
	}
	return s.GroupIndexIsActive(i, which)
}

// LEDIndexIsActive reports whether the LED at an index is lit.
func (s *State) LEDIndexIsActive(i LEDIndex) (bool, error) {
	if int(i) >= len(s.keymap.leds) {
		return false, &InvalidIndexError{Kind: RefLED, Index: int(i), Num: len(s.keymap.leds)}
	}
	return s.cur.LEDs&(1<<uint(i)) != 0, nil
}

// LEDNameIsActive reports whether the named LED is lit. Undefined names are
// a recoverable NotFoundError.
func (s *State) LEDNameIsActive(name string) (bool, error) {
	i, err := s.keymap.LEDIndex(name)
	if err != nil {
		return false, err
	}
	return s.LEDIndexIsActive(i)
}

// groupForKey brings the effective group into the key's own range under
// the key's wrap policy.
func (s *State) groupForKey(key *Key) GroupIndex {
	if len(key.Groups) == 0 {
		return GroupInvalid
	}
	return wrapGroupIntoRange(int32(s.cur.GroupEffective), len(key.Groups), key.Wrap, key.RedirectGroup)
}

// KeyGetGroup resolves which of a key's groups the current state selects.
// Unknown keycodes and keys without groups yield GroupInvalid.
func (s *State) KeyGetGroup(kc KeyCode) GroupIndex {
	key := s.keymap.keys[kc]
	if key == nil {
		return GroupInvalid
	}
	return s.groupForKey(key)
}

// KeyGetLevel resolves the shift level the current modifiers select for a
// key in a group, with the group clamped into the key's range. Unknown
// keycodes yield LevelInvalid.
func (s *State) KeyGetLevel(kc KeyCode, group GroupIndex) LevelIndex {
	key := s.keymap.keys[kc]
	if key == nil || len(key.Groups) == 0 {
		return LevelInvalid
	}
	g := clampIndex(int(group), len(key.Groups))
	return key.Groups[g].Type.level(s.cur.ModsEffective)
}

// KeyGetSyms returns the keysyms the key produces under the current state,
// nil when there are none.
func (s *State) KeyGetSyms(kc KeyCode) []Keysym {
	key := s.keymap.keys[kc]
	if key == nil {
		return nil
	}
	g := s.groupForKey(key)
	if g == GroupInvalid {
		return nil
	}
	l := key.Groups[g].Type.level(s.cur.ModsEffective)
	return s.keymap.Lookup(kc, g, l)
}

// KeyGetOneSym returns the single keysym the key produces, NoSymbol when it
// produces none or several. When Lock is effective and the key's type does
// not consume it, the keysym is capitalized.
func (s *State) KeyGetOneSym(kc KeyCode) Keysym {
	syms := s.KeyGetSyms(kc)
	if len(syms) != 1 {
		return NoSymbol
	}
	sym := syms[0]
	if s.cur.ModsEffective&LockMask != 0 && s.ConsumedMods(kc)&LockMask == 0 {
		sym = sym.Upper()
	}
	return sym
}

// KeyGetString returns the text the key produces under the current state,
// "" when it produces none.
func (s *State) KeyGetString(kc KeyCode) string {
	r := s.KeyGetOneSym(kc).Rune()
	if r == 0 {
		return ""
	}
	return string(r)
}

// ConsumedMods returns the modifiers the key's type used up selecting the
// current level; a consumed modifier should not be reinterpreted by the
// caller as a shortcut modifier.
func (s *State) ConsumedMods(kc KeyCode) ModMask {
	key := s.keymap.keys[kc]
	if key == nil {
		return 0
	}
	g := s.groupForKey(key)
	if g == GroupInvalid {
		return 0
	}
	return key.Groups[g].Type.consumed(s.cur.ModsEffective)
}

// ModIndexIsConsumed reports whether the modifier at an index is consumed
// by a key under the current state.
func (s *State) ModIndexIsConsumed(kc KeyCode, i ModIndex) (bool, error) {
	if int(i) >= len(s.keymap.mods) {
		return false, &InvalidIndexError{Kind: RefModifier, Index: int(i), Num: len(s.keymap.mods)}
	}
	mapping := s.keymap.mods[i].Mapping
	if mapping == 0 {
		return false, nil
	}
	return s.ConsumedMods(kc)&mapping == mapping, nil
}

// ModMaskRemoveConsumed strips the key's consumed modifiers from a mask.
func (s *State) ModMaskRemoveConsumed(kc KeyCode, mask ModMask) ModMask {
	return mask &^ s.ConsumedMods(kc)
}
