package layout

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dasdy/xkbstate/xkb"
	"gopkg.in/yaml.v3"
)

// Save writes a keymap as a YAML document. The output is resolved form:
// virtual modifiers in type maps and actions appear as the real modifiers
// they mapped to, so loading it back yields an equivalent keymap.
func Save(w io.Writer, km *xkb.Keymap) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(DocumentFrom(km)); err != nil {
		return fmt.Errorf("could not encode keymap document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not flush keymap document: %w", err)
	}
	return nil
}

// SavePath writes a keymap document to a file.
func SavePath(path string, km *xkb.Keymap) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create keymap file %s: %w", path, err)
	}
	if err := Save(file, km); err != nil {
		file.Close()
		return fmt.Errorf("could not save keymap file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("could not close keymap file %s: %w", path, err)
	}
	return nil
}

// DocumentFrom renders a compiled keymap back into document form.
func DocumentFrom(km *xkb.Keymap) *Document {
	doc := &Document{
		Name:     km.Name(),
		Keycodes: KeycodeRange{Min: km.MinKeycode(), Max: km.MaxKeycode()},
		Groups:   km.GroupNames(),
	}

	for _, m := range km.Mods() {
		if !m.Virtual {
			continue
		}
		doc.Modifiers = append(doc.Modifiers, ModifierDoc{
			Name:    m.Name,
			Targets: modMaskNames(m.Mapping),
		})
	}

	for _, t := range km.Types() {
		td := KeyTypeDoc{
			Name:      t.Name,
			Modifiers: modMaskNames(t.Mask),
			Levels:    slices.Clone(t.LevelNames),
		}
		for _, e := range t.Entries {
			td.Map = append(td.Map, TypeEntryDoc{
				Modifiers: modMaskNames(e.Mods),
				Level:     int(e.Level) + 1,
				Preserve:  modMaskNames(e.Preserve),
			})
		}
		doc.Types = append(doc.Types, td)
	}

	for _, led := range km.LEDs() {
		ld := LEDDoc{Name: led.Name}
		if led.WhichMods != 0 {
			ld.WhichMods = whichName(led.WhichMods)
			ld.Modifiers = modMaskNames(led.Mods)
		}
		if led.WhichGroups != 0 {
			ld.WhichGroups = whichName(led.WhichGroups >> 4)
			for g := 0; g < 32; g++ {
				if led.Groups&(1<<uint(g)) != 0 {
					ld.Groups = append(ld.Groups, g+1)
				}
			}
		}
		doc.LEDs = append(doc.LEDs, ld)
	}

	for kc := range km.Keys() {
		if key, ok := km.Key(kc); ok {
			doc.Keys = append(doc.Keys, keyDoc(key))
		}
	}
	return doc
}

func keyDoc(key *xkb.Key) KeyDoc {
	repeat := key.Repeats
	kd := KeyDoc{Code: key.Code, Repeat: &repeat}
	if key.Wrap != xkb.WrapPolicyWrap {
		kd.Wrap = key.Wrap.String()
	}
	if key.Wrap == xkb.WrapPolicyRedirect {
		kd.Redirect = int(key.RedirectGroup) + 1
	}
	for _, kg := range key.Groups {
		gd := KeyGroupDoc{Type: kg.Type.Name}
		for _, lvl := range kg.Levels {
			ld := LevelDoc{}
			for _, sym := range lvl.Syms {
				ld.Syms = append(ld.Syms, sym.Name())
			}
			if !lvl.Action.IsNone() {
				ld.Action = actionDoc(lvl.Action)
			}
			gd.Levels = append(gd.Levels, ld)
		}
		kd.Groups = append(kd.Groups, gd)
	}
	return kd
}

func actionDoc(a xkb.Action) *ActionDoc {
	ad := &ActionDoc{Kind: a.Kind.String()}
	switch a.Kind {
	case xkb.ActionModSet, xkb.ActionModLatch, xkb.ActionModLock:
		ad.Modifiers = modMaskNames(a.Mods)
	case xkb.ActionGroupSet, xkb.ActionGroupLatch, xkb.ActionGroupLock:
		if a.Flags&xkb.ActionAbsoluteGroup != 0 {
			ad.Absolute = true
			ad.Group = a.Group + 1
		} else {
			ad.Group = a.Group
		}
	}
	ad.ClearLocks = a.Flags&xkb.ActionClearLocks != 0
	ad.LatchToLock = a.Flags&xkb.ActionLatchToLock != 0
	ad.NoLock = a.Flags&xkb.ActionLockNoLock != 0
	ad.NoUnlock = a.Flags&xkb.ActionLockNoUnlock != 0
	return ad
}

func modMaskNames(m xkb.ModMask) []string {
	var names []string
	for i := 0; i < xkb.NumRealMods; i++ {
		bit := xkb.ModMask(1) << uint(i)
		if m.Has(bit) {
			names = append(names, bit.String())
		}
	}
	return names
}

// whichName names a modifier component set; callers shift group components
// down into modifier space first.
func whichName(c xkb.StateComponent) string {
	if c == xkb.StateModsAll {
		return "any"
	}
	var parts []string
	if c&xkb.StateModsDepressed != 0 {
		parts = append(parts, "base")
	}
	if c&xkb.StateModsLatched != 0 {
		parts = append(parts, "latched")
	}
	if c&xkb.StateModsLocked != 0 {
		parts = append(parts, "locked")
	}
	if c&xkb.StateModsEffective != 0 {
		parts = append(parts, "effective")
	}
	return strings.Join(parts, "+")
}
