package xkb_test

import (
	"testing"

	"github.com/dasdy/xkbstate/xkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keysymNameTest struct {
	name string
	sym  xkb.Keysym
}

func TestKeysymFromName(t *testing.T) {
	testCases := []keysymNameTest{
		{"Return", xkb.SymReturn},
		{"Escape", xkb.SymEscape},
		{"Caps_Lock", xkb.SymCapsLock},
		{"Num_Lock", xkb.SymNumLock},
		{"Page_Up", xkb.SymPageUp},
		{"Prior", xkb.SymPageUp},
		{"space", xkb.Keysym(0x20)},
		{"exclam", xkb.Keysym(0x21)},
		{"a", xkb.Keysym(0x61)},
		{"=", xkb.Keysym(0x3d)},
		{"ж", xkb.KeysymFromRune('ж')},
		{"U0416", xkb.KeysymFromRune('Ж')},
		{"U41", xkb.Keysym(0x41)},
		{"0xffe5", xkb.SymCapsLock},
		{"NoSymbol", xkb.NoSymbol},
	}

	for _, item := range testCases {
		t.Run("resolves "+item.name, func(t *testing.T) {
			sym, ok := xkb.KeysymFromName(item.name)

			require.True(t, ok)
			assert.Equal(t, item.sym, sym)
		})
	}

	for _, name := range []string{"Zorp", "UZZZZ", ""} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, ok := xkb.KeysymFromName(name)

			assert.False(t, ok)
		})
	}
}

func TestKeysymName(t *testing.T) {
	testCases := []keysymNameTest{
		{"Return", xkb.SymReturn},
		{"Page_Up", xkb.SymPageUp},
		{"space", xkb.Keysym(0x20)},
		{"a", xkb.Keysym(0x61)},
		{"1", xkb.Keysym(0x31)},
		{"U0439", xkb.KeysymFromRune('й')},
		{"0x12345678", xkb.Keysym(0x12345678)},
		{"NoSymbol", xkb.NoSymbol},
	}

	for _, item := range testCases {
		t.Run("names "+item.name, func(t *testing.T) {
			assert.Equal(t, item.name, item.sym.Name())
		})
	}
}

func TestKeysymNameRoundTrip(t *testing.T) {
	symbols := []xkb.Keysym{
		xkb.SymEscape,
		xkb.SymCapsLock,
		xkb.SymKP7,
		xkb.SymISOGroupLatch,
		xkb.KeysymFromRune('a'),
		xkb.KeysymFromRune('!'),
		xkb.KeysymFromRune('й'),
		xkb.KeysymFromRune('€'),
	}

	for _, sym := range symbols {
		t.Run(sym.Name(), func(t *testing.T) {
			got, ok := xkb.KeysymFromName(sym.Name())

			require.True(t, ok)
			assert.Equal(t, sym, got)
		})
	}
}

func TestKeysymFromRune(t *testing.T) {
	assert.Equal(t, xkb.Keysym(0x61), xkb.KeysymFromRune('a'))
	assert.Equal(t, xkb.Keysym(0xe9), xkb.KeysymFromRune('é'))
	assert.Equal(t, xkb.SymReturn, xkb.KeysymFromRune('\r'))
	assert.Equal(t, xkb.SymTab, xkb.KeysymFromRune('\t'))
	assert.Equal(t, xkb.Keysym(0x01000439), xkb.KeysymFromRune('й'))
	assert.Equal(t, xkb.NoSymbol, xkb.KeysymFromRune(0x01))
}

func TestKeysymRune(t *testing.T) {
	assert.Equal(t, 'a', xkb.Keysym(0x61).Rune())
	assert.Equal(t, '\r', xkb.SymReturn.Rune())
	assert.Equal(t, '7', xkb.SymKP7.Rune())
	assert.Equal(t, 'й', xkb.KeysymFromRune('й').Rune())
	assert.Equal(t, rune(0), xkb.SymShiftL.Rune())
}

func TestKeysymCase(t *testing.T) {
	assert.Equal(t, xkb.KeysymFromRune('A'), xkb.KeysymFromRune('a').Upper())
	assert.Equal(t, xkb.KeysymFromRune('a'), xkb.KeysymFromRune('A').Lower())
	assert.Equal(t, xkb.KeysymFromRune('Й'), xkb.KeysymFromRune('й').Upper())
	assert.Equal(t, xkb.KeysymFromRune('1'), xkb.KeysymFromRune('1').Upper())
	assert.Equal(t, xkb.SymReturn, xkb.SymReturn.Upper())
}
