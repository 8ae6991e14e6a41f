package xkb

// LevelIndex is a 0-based shift level within one group of a key.
type LevelIndex uint32

// LevelInvalid is returned by level resolution on keys the keymap does not
// define.
const LevelInvalid LevelIndex = 0xffffffff

// TypeEntry maps one exact modifier combination to a shift level. Mods is
// the combination resolved to real bits; an entry that declared modifiers
// which all resolved to nothing never matches.
type TypeEntry struct {
	Mods     ModMask
	Preserve ModMask
	Level    LevelIndex

	declared bool
}

func (e *TypeEntry) active() bool { return !e.declared || e.Mods != 0 }

// KeyType describes how modifier state selects a shift level. Mask is the
// set of real modifiers the type pays attention to; modifiers outside it
// never affect level selection on keys of this type.
type KeyType struct {
	Name       string
	Mask       ModMask
	Entries    []TypeEntry
	NumLevels  LevelIndex
	LevelNames []string
}

// level resolves the shift level for an effective modifier mask. No
// matching entry means the base level.
func (t *KeyType) level(mods ModMask) LevelIndex {
	active := mods & t.Mask
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.active() && e.Mods == active {
			return e.Level
		}
	}
	return 0
}

// consumed returns the modifiers a lookup through this type used up for a
// given effective mask: the type's mask minus whatever the matched entry
// preserves.
func (t *KeyType) consumed(mods ModMask) ModMask {
	active := mods & t.Mask
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.active() && e.Mods == active {
			return t.Mask &^ e.Preserve
		}
	}
	return t.Mask
}
