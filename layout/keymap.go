// Package layout loads and saves resolved keymaps as YAML documents.
//
// A document describes a fully resolved keymap: key types, virtual
// modifiers, groups, LED conditions and per-key symbol tables. Level and
// group numbers in documents are 1-based, following the traditional keymap
// text format; the in-memory form is 0-based.
package layout

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dasdy/xkbstate/xkb"
	"gopkg.in/yaml.v3"
)

type Document struct {
	Name      string        `yaml:"name"`
	Keycodes  KeycodeRange  `yaml:"keycodes,omitempty"`
	Modifiers []ModifierDoc `yaml:"modifiers,omitempty"`
	Types     []KeyTypeDoc  `yaml:"types"`
	Groups    []string      `yaml:"groups,omitempty"`
	LEDs      []LEDDoc      `yaml:"leds,omitempty"`
	Keys      []KeyDoc      `yaml:"keys"`
}

type KeycodeRange struct {
	Min xkb.KeyCode `yaml:"min"`
	Max xkb.KeyCode `yaml:"max"`
}

// ModifierDoc declares a virtual modifier and the real modifiers it maps to.
type ModifierDoc struct {
	Name    string   `yaml:"name"`
	Targets []string `yaml:"targets,omitempty"`
}

type TypeEntryDoc struct {
	Modifiers []string `yaml:"modifiers"`
	Level     int      `yaml:"level"`
	Preserve  []string `yaml:"preserve,omitempty"`
}

type KeyTypeDoc struct {
	Name      string         `yaml:"name"`
	Modifiers []string       `yaml:"modifiers,omitempty"`
	Map       []TypeEntryDoc `yaml:"map,omitempty"`
	Levels    []string       `yaml:"levels,omitempty"`
}

// LEDDoc describes when an LED lights: a modifier condition, a group
// condition, or both. The which fields select state components, joined
// with "+" ("locked", "base+latched", "any").
type LEDDoc struct {
	Name        string   `yaml:"name"`
	WhichMods   string   `yaml:"which_mods,omitempty"`
	Modifiers   []string `yaml:"modifiers,omitempty"`
	WhichGroups string   `yaml:"which_groups,omitempty"`
	Groups      []int    `yaml:"groups,omitempty"`
}

type ActionDoc struct {
	Kind        string   `yaml:"kind"`
	Modifiers   []string `yaml:"modifiers,omitempty"`
	Group       int32    `yaml:"group,omitempty"`
	Absolute    bool     `yaml:"absolute,omitempty"`
	ClearLocks  bool     `yaml:"clear_locks,omitempty"`
	LatchToLock bool     `yaml:"latch_to_lock,omitempty"`
	NoLock      bool     `yaml:"no_lock,omitempty"`
	NoUnlock    bool     `yaml:"no_unlock,omitempty"`
}

type LevelDoc struct {
	Syms   []string   `yaml:"syms"`
	Action *ActionDoc `yaml:"action,omitempty"`
}

type KeyGroupDoc struct {
	Type   string     `yaml:"type"`
	Levels []LevelDoc `yaml:"levels"`
}

type KeyDoc struct {
	Code     xkb.KeyCode   `yaml:"code"`
	Repeat   *bool         `yaml:"repeat,omitempty"`
	Wrap     string        `yaml:"wrap,omitempty"`
	Redirect int           `yaml:"redirect,omitempty"`
	Groups   []KeyGroupDoc `yaml:"groups"`
}

var actionKinds = map[string]xkb.ActionKind{
	"none":        xkb.ActionNone,
	"set-mods":    xkb.ActionModSet,
	"latch-mods":  xkb.ActionModLatch,
	"lock-mods":   xkb.ActionModLock,
	"set-group":   xkb.ActionGroupSet,
	"latch-group": xkb.ActionGroupLatch,
	"lock-group":  xkb.ActionGroupLock,
}

var wrapPolicies = map[string]xkb.WrapPolicy{
	"":         xkb.WrapPolicyWrap,
	"wrap":     xkb.WrapPolicyWrap,
	"clamp":    xkb.WrapPolicyClamp,
	"saturate": xkb.WrapPolicySaturate,
	"redirect": xkb.WrapPolicyRedirect,
}

// Load reads a YAML keymap document and assembles it.
func Load(r io.Reader) (*xkb.Keymap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read keymap document: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes assembles a keymap from YAML bytes. Unknown document fields are
// rejected, so a misspelled field fails the load instead of silently
// dropping part of the keymap.
func LoadBytes(data []byte) (*xkb.Keymap, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode keymap document: %w", err)
	}
	return doc.Keymap()
}

// LoadPath assembles a keymap from a YAML file.
func LoadPath(path string) (*xkb.Keymap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open keymap file %s: %w", path, err)
	}
	defer file.Close()

	km, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("could not load keymap file %s: %w", path, err)
	}
	return km, nil
}

// Keymap assembles the document. Undefined references, duplicate names and
// out-of-range keycodes abort with no partial keymap.
func (d *Document) Keymap() (*xkb.Keymap, error) {
	b := xkb.NewBuilder(d.Name)

	if d.Keycodes.Max != 0 {
		b.SetKeycodeRange(d.Keycodes.Min, d.Keycodes.Max)
	}
	for _, m := range d.Modifiers {
		b.AddVirtualModifier(m.Name, m.Targets...)
	}
	for _, name := range d.Groups {
		b.AddGroup(name)
	}

	for _, td := range d.Types {
		spec := xkb.KeyTypeSpec{Name: td.Name, Modifiers: td.Modifiers, LevelNames: td.Levels}
		for _, e := range td.Map {
			if e.Level < 1 {
				return nil, fmt.Errorf("key type %q: map level %d is not positive", td.Name, e.Level)
			}
			spec.Entries = append(spec.Entries, xkb.TypeEntrySpec{
				Modifiers: e.Modifiers,
				Level:     xkb.LevelIndex(e.Level - 1),
				Preserve:  e.Preserve,
			})
		}
		b.AddKeyType(spec)
	}

	for _, ld := range d.LEDs {
		spec := xkb.LEDSpec{Name: ld.Name, Modifiers: ld.Modifiers}
		var err error
		if spec.WhichMods, err = parseWhich(ld.WhichMods, false); err != nil {
			return nil, fmt.Errorf("led %q: %w", ld.Name, err)
		}
		if spec.WhichGroups, err = parseWhich(ld.WhichGroups, true); err != nil {
			return nil, fmt.Errorf("led %q: %w", ld.Name, err)
		}
		for _, g := range ld.Groups {
			if g < 1 {
				return nil, fmt.Errorf("led %q: group %d is not positive", ld.Name, g)
			}
			spec.Groups = append(spec.Groups, xkb.GroupIndex(g-1))
		}
		b.AddLED(spec)
	}

	for _, kd := range d.Keys {
		spec, err := kd.keySpec()
		if err != nil {
			return nil, err
		}
		b.AddKey(spec)
	}

	return b.Build()
}

func (kd *KeyDoc) keySpec() (xkb.KeySpec, error) {
	spec := xkb.KeySpec{Code: kd.Code, Repeat: kd.Repeat}

	policy, ok := wrapPolicies[kd.Wrap]
	if !ok {
		return spec, fmt.Errorf("key %d: unknown wrap policy %q", kd.Code, kd.Wrap)
	}
	spec.Wrap = policy
	if policy == xkb.WrapPolicyRedirect {
		if kd.Redirect < 1 {
			return spec, fmt.Errorf("key %d: redirect group %d is not positive", kd.Code, kd.Redirect)
		}
		spec.RedirectGroup = xkb.GroupIndex(kd.Redirect - 1)
	}

	for gi, gd := range kd.Groups {
		gs := xkb.GroupSpec{Type: gd.Type}
		for li, lvl := range gd.Levels {
			ls := xkb.LevelSpec{}
			for _, name := range lvl.Syms {
				sym, ok := xkb.KeysymFromName(name)
				if !ok {
					return spec, fmt.Errorf("key %d group %d level %d: unknown keysym %q",
						kd.Code, gi+1, li+1, name)
				}
				ls.Syms = append(ls.Syms, sym)
			}
			if lvl.Action != nil {
				act, err := lvl.Action.actionSpec()
				if err != nil {
					return spec, fmt.Errorf("key %d group %d level %d: %w", kd.Code, gi+1, li+1, err)
				}
				ls.Action = act
			}
			gs.Levels = append(gs.Levels, ls)
		}
		spec.Groups = append(spec.Groups, gs)
	}
	return spec, nil
}

func (ad *ActionDoc) actionSpec() (*xkb.ActionSpec, error) {
	kind, ok := actionKinds[ad.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown action kind %q", ad.Kind)
	}
	spec := &xkb.ActionSpec{
		Kind:        kind,
		Modifiers:   ad.Modifiers,
		Group:       ad.Group,
		Absolute:    ad.Absolute,
		ClearLocks:  ad.ClearLocks,
		LatchToLock: ad.LatchToLock,
		NoLock:      ad.NoLock,
		NoUnlock:    ad.NoUnlock,
	}
	if ad.Absolute {
		if ad.Group < 1 {
			return nil, fmt.Errorf("absolute group %d is not positive", ad.Group)
		}
		spec.Group = ad.Group - 1
	}
	return spec, nil
}

// parseWhich reads a component selector: tokens joined with "+", each one
// of base, latched, locked, effective, or any for all four.
func parseWhich(s string, group bool) (xkb.StateComponent, error) {
	if s == "" {
		return 0, nil
	}
	var out xkb.StateComponent
	for _, tok := range strings.Split(s, "+") {
		var c xkb.StateComponent
		switch strings.TrimSpace(tok) {
		case "base":
			c = xkb.StateModsDepressed
		case "latched":
			c = xkb.StateModsLatched
		case "locked":
			c = xkb.StateModsLocked
		case "effective":
			c = xkb.StateModsEffective
		case "any":
			c = xkb.StateModsAll
		default:
			return 0, fmt.Errorf("unknown state component %q", tok)
		}
		if group {
			// Group components sit four bits above their modifier
			// counterparts.
			c <<= 4
		}
		out |= c
	}
	return out, nil
}
