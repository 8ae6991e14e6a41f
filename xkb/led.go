package xkb

// LEDIndex identifies an entry in a keymap's ordered LED list.
type LEDIndex uint32

// LEDInvalid is returned by LED lookups that found nothing.
const LEDInvalid LEDIndex = 0xffffffff

// maxLEDGroups bounds group indices usable in LED conditions, since Groups
// is a 32-bit mask over group indices.
const maxLEDGroups = 32

// LED is a compiled indicator condition. WhichMods selects which modifier
// components feed the modifier predicate, Mods the bits it looks for;
// WhichGroups and Groups do the same over group indices, with Groups a
// bitmask (bit N set means group N lights the LED). The LED is lit when
// either predicate matches; empty predicates never match.
type LED struct {
	Name        string
	WhichMods   StateComponent
	Mods        ModMask
	WhichGroups StateComponent
	Groups      uint32
}

func (l *LED) activeFor(c *Components) bool {
	if l.WhichMods != 0 && l.Mods != 0 {
		var mask ModMask
		if l.WhichMods&StateModsEffective != 0 {
			mask |= c.ModsEffective
		}
		if l.WhichMods&StateModsDepressed != 0 {
			mask |= c.ModsDepressed
		}
		if l.WhichMods&StateModsLatched != 0 {
			mask |= c.ModsLatched
		}
		if l.WhichMods&StateModsLocked != 0 {
			mask |= c.ModsLocked
		}
		if mask&l.Mods != 0 {
			return true
		}
	}
	if l.WhichGroups != 0 && l.Groups != 0 {
		var mask uint32
		if l.WhichGroups&StateGroupEffective != 0 {
			mask |= groupBit(int32(c.GroupEffective))
		}
		if l.WhichGroups&StateGroupDepressed != 0 {
			mask |= groupBit(c.GroupDepressed)
		}
		if l.WhichGroups&StateGroupLatched != 0 {
			mask |= groupBit(c.GroupLatched)
		}
		if l.WhichGroups&StateGroupLocked != 0 {
			mask |= groupBit(c.GroupLocked)
		}
		if mask&l.Groups != 0 {
			return true
		}
	}
	return false
}

func groupBit(group int32) uint32 {
	if group < 0 || group >= maxLEDGroups {
		return 0
	}
	return 1 << uint(group)
}
