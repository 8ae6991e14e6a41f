package xkb

import (
	"errors"
	"fmt"
	"slices"
)

// Assembly-time sentinel errors, always wrapped with the offending name or
// keycode.
var (
	ErrDuplicateName     = errors.New("duplicate name")
	ErrKeycodeOutOfRange = errors.New("keycode outside declared range")
)

// ActionSpec is the assembly form of an Action: modifiers by name, flags as
// fields.
type ActionSpec struct {
	Kind        ActionKind
	Modifiers   []string
	Group       int32
	Absolute    bool
	ClearLocks  bool
	LatchToLock bool
	NoLock      bool
	NoUnlock    bool
}

// LevelSpec is one level of one group of a key being assembled.
type LevelSpec struct {
	Syms   []Keysym
	Action *ActionSpec
}

// GroupSpec names the key type and lists the levels of one group of a key.
type GroupSpec struct {
	Type   string
	Levels []LevelSpec
}

// KeySpec is a key being assembled. A nil Repeat means the key autorepeats
// unless one of its levels carries an action.
type KeySpec struct {
	Code          KeyCode
	Repeat        *bool
	Wrap          WrapPolicy
	RedirectGroup GroupIndex
	Groups        []GroupSpec
}

// TypeEntrySpec is one row of a key type's level map.
type TypeEntrySpec struct {
	Modifiers []string
	Level     LevelIndex
	Preserve  []string
}

// KeyTypeSpec is a key type being assembled.
type KeyTypeSpec struct {
	Name       string
	Modifiers  []string
	Entries    []TypeEntrySpec
	LevelNames []string
}

// LEDSpec is an LED condition being assembled.
type LEDSpec struct {
	Name        string
	WhichMods   StateComponent
	Modifiers   []string
	WhichGroups StateComponent
	Groups      []GroupIndex
}

type virtualModSpec struct {
	name  string
	reals []string
}

// Builder accumulates keymap components and assembles them into an
// immutable Keymap. The zero value is not usable; NewBuilder seeds the real
// modifiers and the default keycode range.
type Builder struct {
	name       string
	minKeycode KeyCode
	maxKeycode KeyCode
	virtuals   []virtualModSpec
	groupNames []string
	types      []KeyTypeSpec
	leds       []LEDSpec
	keys       []KeySpec
}

// NewBuilder returns a Builder for a keymap with the conventional evdev
// keycode range 8..255.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, minKeycode: 8, maxKeycode: 255}
}

// SetKeycodeRange declares the keycode range keys must fall into.
func (b *Builder) SetKeycodeRange(minKC, maxKC KeyCode) {
	b.minKeycode, b.maxKeycode = minKC, maxKC
}

// AddVirtualModifier declares a virtual modifier mapping to real modifiers,
// which may be empty.
func (b *Builder) AddVirtualModifier(name string, reals ...string) {
	b.virtuals = append(b.virtuals, virtualModSpec{name: name, reals: reals})
}

// AddGroup appends a named group.
func (b *Builder) AddGroup(name string) {
	b.groupNames = append(b.groupNames, name)
}

// AddKeyType declares a key type.
func (b *Builder) AddKeyType(t KeyTypeSpec) {
	b.types = append(b.types, t)
}

// AddLED declares an LED condition.
func (b *Builder) AddLED(l LEDSpec) {
	b.leds = append(b.leds, l)
}

// AddKey declares a key.
func (b *Builder) AddKey(k KeySpec) {
	b.keys = append(b.keys, k)
}

// Build validates the accumulated components and assembles the keymap.
// The first undefined reference, duplicate name or out-of-range keycode
// aborts the build; no partial keymap is ever returned.
func (b *Builder) Build() (*Keymap, error) {
	if b.minKeycode > b.maxKeycode {
		return nil, fmt.Errorf("build keymap %q: keycode range %d..%d is inverted", b.name, b.minKeycode, b.maxKeycode)
	}

	km := &Keymap{
		name:       b.name,
		minKeycode: b.minKeycode,
		maxKeycode: b.maxKeycode,
		keys:       make(map[KeyCode]*Key, len(b.keys)),
		groupNames: slices.Clone(b.groupNames),
	}

	if err := b.buildMods(km); err != nil {
		return nil, fmt.Errorf("build keymap %q: %w", b.name, err)
	}
	typesByName, err := b.buildTypes(km)
	if err != nil {
		return nil, fmt.Errorf("build keymap %q: %w", b.name, err)
	}
	if err := b.buildKeys(km, typesByName); err != nil {
		return nil, fmt.Errorf("build keymap %q: %w", b.name, err)
	}
	if err := b.buildLEDs(km); err != nil {
		return nil, fmt.Errorf("build keymap %q: %w", b.name, err)
	}

	km.numGroups = len(km.groupNames)
	for _, key := range km.keys {
		if n := len(key.Groups); n > km.numGroups {
			km.numGroups = n
		}
	}
	return km, nil
}

func (b *Builder) buildMods(km *Keymap) error {
	km.mods = make([]Mod, 0, NumRealMods+len(b.virtuals))
	for i, name := range realModNames {
		km.mods = append(km.mods, Mod{Name: name, Mapping: 1 << uint(i)})
	}
	for _, v := range b.virtuals {
		for i := range km.mods {
			if km.mods[i].Name == v.name {
				return fmt.Errorf("virtual modifier %q: %w", v.name, ErrDuplicateName)
			}
		}
		var mapping ModMask
		for _, real := range v.reals {
			idx := slices.Index(realModNames[:], real)
			if idx < 0 {
				return &InvalidReferenceError{Kind: RefModifier, Name: real, Where: fmt.Sprintf("virtual modifier %q", v.name)}
			}
			mapping |= 1 << uint(idx)
		}
		km.mods = append(km.mods, Mod{Name: v.name, Mapping: mapping, Virtual: true})
	}
	return nil
}

// resolveNames resolves modifier names, real or virtual, to a real mask.
func resolveNames(km *Keymap, names []string, where string) (ModMask, error) {
	var mask ModMask
	for _, name := range names {
		found := false
		for i := range km.mods {
			if km.mods[i].Name == name {
				mask |= km.mods[i].Mapping
				found = true
				break
			}
		}
		if !found {
			return 0, &InvalidReferenceError{Kind: RefModifier, Name: name, Where: where}
		}
	}
	return mask, nil
}

func (b *Builder) buildTypes(km *Keymap) (map[string]*KeyType, error) {
	byName := make(map[string]*KeyType, len(b.types))
	for _, spec := range b.types {
		if _, ok := byName[spec.Name]; ok {
			return nil, fmt.Errorf("key type %q: %w", spec.Name, ErrDuplicateName)
		}
		where := fmt.Sprintf("key type %q", spec.Name)
		mask, err := resolveNames(km, spec.Modifiers, where)
		if err != nil {
			return nil, err
		}
		kt := &KeyType{
			Name:       spec.Name,
			Mask:       mask,
			NumLevels:  1,
			LevelNames: slices.Clone(spec.LevelNames),
		}
		for _, es := range spec.Entries {
			mods, err := resolveNames(km, es.Modifiers, where)
			if err != nil {
				return nil, err
			}
			preserve, err := resolveNames(km, es.Preserve, where)
			if err != nil {
				return nil, err
			}
			kt.Entries = append(kt.Entries, TypeEntry{
				Mods:     mods,
				Preserve: preserve & mods,
				Level:    es.Level,
				declared: len(es.Modifiers) > 0,
			})
			if es.Level+1 > kt.NumLevels {
				kt.NumLevels = es.Level + 1
			}
		}
		if n := LevelIndex(len(kt.LevelNames)); n > kt.NumLevels {
			kt.NumLevels = n
		}
		byName[spec.Name] = kt
		km.types = append(km.types, kt)
	}
	return byName, nil
}

func (b *Builder) buildKeys(km *Keymap, typesByName map[string]*KeyType) error {
	for _, spec := range b.keys {
		if spec.Code < b.minKeycode || spec.Code > b.maxKeycode {
			return fmt.Errorf("key %d: %w", spec.Code, ErrKeycodeOutOfRange)
		}
		if _, ok := km.keys[spec.Code]; ok {
			return fmt.Errorf("key %d: %w", spec.Code, ErrDuplicateName)
		}
		key := &Key{
			Code:          spec.Code,
			Wrap:          spec.Wrap,
			RedirectGroup: spec.RedirectGroup,
		}
		if spec.Wrap == WrapPolicyRedirect && len(spec.Groups) > 0 && int(spec.RedirectGroup) >= len(spec.Groups) {
			return &InvalidReferenceError{
				Kind:  RefGroup,
				Name:  fmt.Sprintf("%d", spec.RedirectGroup),
				Where: fmt.Sprintf("key %d redirect policy", spec.Code),
			}
		}
		hasAction := false
		for gi, gs := range spec.Groups {
			where := fmt.Sprintf("key %d group %d", spec.Code, gi)
			kt, ok := typesByName[gs.Type]
			if !ok {
				return &InvalidReferenceError{Kind: RefKeyType, Name: gs.Type, Where: where}
			}
			kg := KeyGroup{Type: kt}
			for _, ls := range gs.Levels {
				level := Level{Syms: slices.Clone(ls.Syms)}
				if ls.Action != nil {
					act, err := compileAction(km, *ls.Action, where)
					if err != nil {
						return err
					}
					level.Action = act
					if !act.IsNone() {
						hasAction = true
					}
				}
				kg.Levels = append(kg.Levels, level)
			}
			key.Groups = append(key.Groups, kg)
		}
		if spec.Repeat != nil {
			key.Repeats = *spec.Repeat
		} else {
			key.Repeats = !hasAction
		}
		km.keys[spec.Code] = key
		km.keycodes = append(km.keycodes, spec.Code)
	}
	slices.Sort(km.keycodes)
	return nil
}

func compileAction(km *Keymap, spec ActionSpec, where string) (Action, error) {
	act := Action{Kind: spec.Kind, Group: spec.Group}
	if spec.Absolute {
		act.Flags |= ActionAbsoluteGroup
	}
	if spec.ClearLocks {
		act.Flags |= ActionClearLocks
	}
	if spec.LatchToLock {
		act.Flags |= ActionLatchToLock
	}
	if spec.NoLock {
		act.Flags |= ActionLockNoLock
	}
	if spec.NoUnlock {
		act.Flags |= ActionLockNoUnlock
	}
	mask, err := resolveNames(km, spec.Modifiers, where)
	if err != nil {
		return Action{}, err
	}
	act.Mods = mask
	return act, nil
}

func (b *Builder) buildLEDs(km *Keymap) error {
	for _, spec := range b.leds {
		for i := range km.leds {
			if km.leds[i].Name == spec.Name {
				return fmt.Errorf("led %q: %w", spec.Name, ErrDuplicateName)
			}
		}
		where := fmt.Sprintf("led %q", spec.Name)
		mask, err := resolveNames(km, spec.Modifiers, where)
		if err != nil {
			return err
		}
		led := LED{
			Name:        spec.Name,
			WhichMods:   spec.WhichMods,
			Mods:        mask,
			WhichGroups: spec.WhichGroups,
		}
		for _, g := range spec.Groups {
			if g >= maxLEDGroups {
				return &InvalidReferenceError{
					Kind:  RefGroup,
					Name:  fmt.Sprintf("%d", g),
					Where: where,
				}
			}
			led.Groups |= 1 << uint(g)
		}
		km.leds = append(km.leds, led)
	}
	return nil
}
