package xkb

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Keysym is a keyboard symbol in the X11 encoding: printable Latin-1
// characters map directly, other Unicode code points live at
// 0x01000000|codepoint, and function/modifier/keypad keys use the classic
// values from keysymdef.h.
type Keysym uint32

const (
	// NoSymbol marks an empty slot in a level's symbol list.
	NoSymbol Keysym = 0
	// SymVoid is the explicit "no symbol here, stop looking" marker.
	SymVoid Keysym = 0xffffff
)

// Values from /usr/include/X11/keysymdef.h.
const (
	SymBackSpace  Keysym = 0xff08
	SymTab        Keysym = 0xff09
	SymLinefeed   Keysym = 0xff0a
	SymReturn     Keysym = 0xff0d
	SymPause      Keysym = 0xff13
	SymScrollLock Keysym = 0xff14
	SymSysReq     Keysym = 0xff15
	SymEscape     Keysym = 0xff1b
	SymMultiKey   Keysym = 0xff20

	SymHome     Keysym = 0xff50
	SymLeft     Keysym = 0xff51
	SymUp       Keysym = 0xff52
	SymRight    Keysym = 0xff53
	SymDown     Keysym = 0xff54
	SymPageUp   Keysym = 0xff55
	SymPageDown Keysym = 0xff56
	SymEnd      Keysym = 0xff57
	SymPrint    Keysym = 0xff61
	SymInsert     Keysym = 0xff63
	SymMenu       Keysym = 0xff67
	SymModeSwitch Keysym = 0xff7e
	SymNumLock    Keysym = 0xff7f

	SymKPSpace     Keysym = 0xff80
	SymKPTab       Keysym = 0xff89
	SymKPEnter     Keysym = 0xff8d
	SymKPHome      Keysym = 0xff95
	SymKPLeft      Keysym = 0xff96
	SymKPUp        Keysym = 0xff97
	SymKPRight     Keysym = 0xff98
	SymKPDown      Keysym = 0xff99
	SymKPPageUp    Keysym = 0xff9a
	SymKPPageDown  Keysym = 0xff9b
	SymKPEnd       Keysym = 0xff9c
	SymKPBegin     Keysym = 0xff9d
	SymKPInsert    Keysym = 0xff9e
	SymKPDelete    Keysym = 0xff9f
	SymKPMultiply  Keysym = 0xffaa
	SymKPAdd       Keysym = 0xffab
	SymKPSeparator Keysym = 0xffac
	SymKPSubtract  Keysym = 0xffad
	SymKPDecimal   Keysym = 0xffae
	SymKPDivide    Keysym = 0xffaf
	SymKP0         Keysym = 0xffb0
	SymKP1         Keysym = 0xffb1
	SymKP2         Keysym = 0xffb2
	SymKP3         Keysym = 0xffb3
	SymKP4         Keysym = 0xffb4
	SymKP5         Keysym = 0xffb5
	SymKP6         Keysym = 0xffb6
	SymKP7         Keysym = 0xffb7
	SymKP8         Keysym = 0xffb8
	SymKP9         Keysym = 0xffb9
	SymKPEqual     Keysym = 0xffbd

	SymF1  Keysym = 0xffbe
	SymF2  Keysym = 0xffbf
	SymF3  Keysym = 0xffc0
	SymF4  Keysym = 0xffc1
	SymF5  Keysym = 0xffc2
	SymF6  Keysym = 0xffc3
	SymF7  Keysym = 0xffc4
	SymF8  Keysym = 0xffc5
	SymF9  Keysym = 0xffc6
	SymF10 Keysym = 0xffc7
	SymF11 Keysym = 0xffc8
	SymF12 Keysym = 0xffc9

	SymShiftL   Keysym = 0xffe1
	SymShiftR   Keysym = 0xffe2
	SymControlL Keysym = 0xffe3
	SymControlR Keysym = 0xffe4
	SymCapsLock Keysym = 0xffe5
	SymMetaL    Keysym = 0xffe7
	SymMetaR    Keysym = 0xffe8
	SymAltL     Keysym = 0xffe9
	SymAltR     Keysym = 0xffea
	SymSuperL   Keysym = 0xffeb
	SymSuperR   Keysym = 0xffec
	SymHyperL   Keysym = 0xffed
	SymHyperR   Keysym = 0xffee
	SymDelete   Keysym = 0xffff

	SymISOLevel2Latch Keysym = 0xfe02
	SymISOLevel3Shift Keysym = 0xfe03
	SymISOLevel3Latch Keysym = 0xfe04
	SymISOLevel3Lock  Keysym = 0xfe05
	SymISOGroupLatch  Keysym = 0xfe06
	SymISOGroupLock   Keysym = 0xfe07
	SymISONextGroup   Keysym = 0xfe08
	SymISOPrevGroup   Keysym = 0xfe0a
	SymISOFirstGroup  Keysym = 0xfe0c
	SymISOLastGroup   Keysym = 0xfe0e
	SymISOLeftTab     Keysym = 0xfe20
)

const unicodeOffset Keysym = 0x01000000

// Canonical keysym names, ordered so the first spelling for a value wins in
// the reverse table. Aliases (Prior/Next) come after their canonical names.
var keysymNameTable = []struct {
	name string
	sym  Keysym
}{
	{"VoidSymbol", SymVoid},
	{"space", 0x20},
	{"exclam", 0x21},
	{"quotedbl", 0x22},
	{"numbersign", 0x23},
	{"dollar", 0x24},
	{"percent", 0x25},
	{"ampersand", 0x26},
	{"apostrophe", 0x27},
	{"parenleft", 0x28},
	{"parenright", 0x29},
	{"asterisk", 0x2a},
	{"plus", 0x2b},
	{"comma", 0x2c},
	{"minus", 0x2d},
	{"period", 0x2e},
	{"slash", 0x2f},
	{"colon", 0x3a},
	{"semicolon", 0x3b},
	{"less", 0x3c},
	{"equal", 0x3d},
	{"greater", 0x3e},
	{"question", 0x3f},
	{"at", 0x40},
	{"bracketleft", 0x5b},
	{"backslash", 0x5c},
	{"bracketright", 0x5d},
	{"asciicircum", 0x5e},
	{"underscore", 0x5f},
	{"grave", 0x60},
	{"braceleft", 0x7b},
	{"bar", 0x7c},
	{"braceright", 0x7d},
	{"asciitilde", 0x7e},
	{"BackSpace", SymBackSpace},
	{"Tab", SymTab},
	{"Linefeed", SymLinefeed},
	{"Return", SymReturn},
	{"Pause", SymPause},
	{"Scroll_Lock", SymScrollLock},
	{"Sys_Req", SymSysReq},
	{"Escape", SymEscape},
	{"Multi_key", SymMultiKey},
	{"Home", SymHome},
	{"Left", SymLeft},
	{"Up", SymUp},
	{"Right", SymRight},
	{"Down", SymDown},
	{"Page_Up", SymPageUp},
	{"Prior", SymPageUp},
	{"Page_Down", SymPageDown},
	{"Next", SymPageDown},
	{"End", SymEnd},
	{"Print", SymPrint},
	{"Insert", SymInsert},
	{"Menu", SymMenu},
	{"Mode_switch", SymModeSwitch},
	{"Num_Lock", SymNumLock},
	{"KP_Space", SymKPSpace},
	{"KP_Tab", SymKPTab},
	{"KP_Enter", SymKPEnter},
	{"KP_Home", SymKPHome},
	{"KP_Left", SymKPLeft},
	{"KP_Up", SymKPUp},
	{"KP_Right", SymKPRight},
	{"KP_Down", SymKPDown},
	{"KP_Page_Up", SymKPPageUp},
	{"KP_Page_Down", SymKPPageDown},
	{"KP_End", SymKPEnd},
	{"KP_Begin", SymKPBegin},
	{"KP_Insert", SymKPInsert},
	{"KP_Delete", SymKPDelete},
	{"KP_Multiply", SymKPMultiply},
	{"KP_Add", SymKPAdd},
	{"KP_Separator", SymKPSeparator},
	{"KP_Subtract", SymKPSubtract},
	{"KP_Decimal", SymKPDecimal},
	{"KP_Divide", SymKPDivide},
	{"KP_0", SymKP0},
	{"KP_1", SymKP1},
	{"KP_2", SymKP2},
	{"KP_3", SymKP3},
	{"KP_4", SymKP4},
	{"KP_5", SymKP5},
	{"KP_6", SymKP6},
	{"KP_7", SymKP7},
	{"KP_8", SymKP8},
	{"KP_9", SymKP9},
	{"KP_Equal", SymKPEqual},
	{"F1", SymF1},
	{"F2", SymF2},
	{"F3", SymF3},
	{"F4", SymF4},
	{"F5", SymF5},
	{"F6", SymF6},
	{"F7", SymF7},
	{"F8", SymF8},
	{"F9", SymF9},
	{"F10", SymF10},
	{"F11", SymF11},
	{"F12", SymF12},
	{"Shift_L", SymShiftL},
	{"Shift_R", SymShiftR},
	{"Control_L", SymControlL},
	{"Control_R", SymControlR},
	{"Caps_Lock", SymCapsLock},
	{"Meta_L", SymMetaL},
	{"Meta_R", SymMetaR},
	{"Alt_L", SymAltL},
	{"Alt_R", SymAltR},
	{"Super_L", SymSuperL},
	{"Super_R", SymSuperR},
	{"Hyper_L", SymHyperL},
	{"Hyper_R", SymHyperR},
	{"Delete", SymDelete},
	{"ISO_Level2_Latch", SymISOLevel2Latch},
	{"ISO_Level3_Shift", SymISOLevel3Shift},
	{"ISO_Level3_Latch", SymISOLevel3Latch},
	{"ISO_Level3_Lock", SymISOLevel3Lock},
	{"ISO_Group_Latch", SymISOGroupLatch},
	{"ISO_Group_Lock", SymISOGroupLock},
	{"ISO_Next_Group", SymISONextGroup},
	{"ISO_Prev_Group", SymISOPrevGroup},
	{"ISO_First_Group", SymISOFirstGroup},
	{"ISO_Last_Group", SymISOLastGroup},
	{"ISO_Left_Tab", SymISOLeftTab},
}

var (
	keysymsByName = make(map[string]Keysym, len(keysymNameTable))
	keysymNames   = make(map[Keysym]string, len(keysymNameTable))
)

func init() {
	for _, e := range keysymNameTable {
		keysymsByName[e.name] = e.sym
		if _, ok := keysymNames[e.sym]; !ok {
			keysymNames[e.sym] = e.name
		}
	}
}

// Runes for keysyms whose character is not derivable arithmetically.
var keysymRunes = map[Keysym]rune{
	SymBackSpace:   '\b',
	SymTab:         '\t',
	SymLinefeed:    '\n',
	SymReturn:      '\r',
	SymEscape:      0x1b,
	SymDelete:      0x7f,
	SymKPSpace:     ' ',
	SymKPTab:       '\t',
	SymKPEnter:     '\r',
	SymKPEqual:     '=',
	SymKPMultiply:  '*',
	SymKPAdd:       '+',
	SymKPSeparator: ',',
	SymKPSubtract:  '-',
	SymKPDecimal:   '.',
	SymKPDivide:    '/',
	SymKP0:         '0',
	SymKP1:         '1',
	SymKP2:         '2',
	SymKP3:         '3',
	SymKP4:         '4',
	SymKP5:         '5',
	SymKP6:         '6',
	SymKP7:         '7',
	SymKP8:         '8',
	SymKP9:         '9',
}

// KeysymFromName resolves a keysym name: an entry from the fixed name table,
// a single character ("a", "="), a direct Unicode spelling ("U0416"), or a
// raw hex value ("0xffe5").
func KeysymFromName(name string) (Keysym, bool) {
	if name == "NoSymbol" {
		return NoSymbol, true
	}
	if s, ok := keysymsByName[name]; ok {
		return s, true
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		if s := KeysymFromRune(r); s != NoSymbol {
			return s, true
		}
		return NoSymbol, false
	}
	if len(name) > 1 && name[0] == 'U' {
		if cp, err := strconv.ParseUint(name[1:], 16, 32); err == nil {
			if s := KeysymFromRune(rune(cp)); s != NoSymbol {
				return s, true
			}
			return NoSymbol, false
		}
	}
	if strings.HasPrefix(name, "0x") {
		if v, err := strconv.ParseUint(name[2:], 16, 32); err == nil {
			return Keysym(v), true
		}
	}
	return NoSymbol, false
}

// KeysymFromRune maps a character to its keysym: Latin-1 printables map
// directly, a few control characters map to their function keysyms, and
// everything else lands in the direct Unicode range.
func KeysymFromRune(r rune) Keysym {
	if (r >= 0x20 && r <= 0x7e) || (r >= 0xa0 && r <= 0xff) {
		return Keysym(r)
	}
	switch r {
	case '\b':
		return SymBackSpace
	case '\t':
		return SymTab
	case '\n':
		return SymLinefeed
	case '\r':
		return SymReturn
	case 0x1b:
		return SymEscape
	case 0x7f:
		return SymDelete
	}
	if r >= 0x100 && utf8.ValidRune(r) {
		return unicodeOffset | Keysym(r)
	}
	return NoSymbol
}

// Rune returns the character a keysym produces, or 0 when it has none.
func (s Keysym) Rune() rune {
	if (s >= 0x20 && s <= 0x7e) || (s >= 0xa0 && s <= 0xff) {
		return rune(s)
	}
	if s&0xff000000 == unicodeOffset {
		r := rune(s &^ 0xff000000)
		if utf8.ValidRune(r) {
			return r
		}
		return 0
	}
	return keysymRunes[s]
}

// Name returns the canonical name of the keysym. Unnamed printable keysyms
// are spelled as their character, direct Unicode ones as U<hex>, and anything
// else as a raw hex value.
func (s Keysym) Name() string {
	if s == NoSymbol {
		return "NoSymbol"
	}
	if n, ok := keysymNames[s]; ok {
		return n
	}
	if (s >= 0x20 && s <= 0x7e) || (s >= 0xa0 && s <= 0xff) {
		return string(rune(s))
	}
	if s&0xff000000 == unicodeOffset {
		return fmt.Sprintf("U%04X", uint32(s&^0xff000000))
	}
	return fmt.Sprintf("0x%08x", uint32(s))
}

func (s Keysym) String() string { return s.Name() }

// Upper returns the capitalized form of the keysym where one is derivable,
// the keysym itself otherwise.
func (s Keysym) Upper() Keysym {
	r := s.Rune()
	if r == 0 {
		return s
	}
	u := unicode.ToUpper(r)
	if u == r {
		return s
	}
	if out := KeysymFromRune(u); out != NoSymbol {
		return out
	}
	return s
}

// Lower returns the lowercase form of the keysym where one is derivable.
func (s Keysym) Lower() Keysym {
	r := s.Rune()
	if r == 0 {
		return s
	}
	l := unicode.ToLower(r)
	if l == r {
		return s
	}
	if out := KeysymFromRune(l); out != NoSymbol {
		return out
	}
	return s
}
