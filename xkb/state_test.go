package xkb_test

import (
	"testing"

	"github.com/dasdy/xkbstate/xkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *xkb.State {
	t.Helper()

	return xkb.NewState(newTestKeymap(t))
}

// tap presses and releases a key, discarding the change sets.
func tap(s *xkb.State, kc xkb.KeyCode) {
	s.UpdateKey(kc, xkb.KeyDown)
	s.UpdateKey(kc, xkb.KeyUp)
}

func TestUpdateKeyUnknownKeycode(t *testing.T) {
	st := newTestState(t)
	before := st.Components()

	assert.Zero(t, st.UpdateKey(keyUnknown, xkb.KeyDown))
	assert.Zero(t, st.UpdateKey(keyUnknown, xkb.KeyUp))
	assert.Zero(t, st.UpdateKey(3, xkb.KeyDown))

	assert.Equal(t, before, st.Components())
}

func TestUpdateKeyPlainKeyChangesNothing(t *testing.T) {
	st := newTestState(t)
	before := st.Components()

	assert.Zero(t, st.UpdateKey(keyEsc, xkb.KeyDown))
	assert.Zero(t, st.UpdateKey(keyEsc, xkb.KeyUp))

	assert.Equal(t, before, st.Components())
}

func TestModSet(t *testing.T) {
	t.Run("hold and release", func(t *testing.T) {
		st := newTestState(t)

		changed := st.UpdateKey(keyShiftL, xkb.KeyDown)
		assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsEffective|xkb.StateLEDs, changed)
		assert.Equal(t, xkb.ShiftMask, st.Components().ModsDepressed)
		assert.Equal(t, xkb.ShiftMask, st.Components().ModsEffective)

		// A plain key under the held modifier shifts its level but
		// leaves the state alone.
		assert.Equal(t, syms('Q'), st.KeyGetSyms(keyQ))
		assert.Zero(t, st.UpdateKey(keyQ, xkb.KeyDown))
		assert.Zero(t, st.UpdateKey(keyQ, xkb.KeyUp))

		changed = st.UpdateKey(keyShiftL, xkb.KeyUp)
		assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsEffective|xkb.StateLEDs, changed)
		assert.Zero(t, st.Components().ModsEffective)
	})

	t.Run("two keys refcount one modifier", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateKey(keyShiftL, xkb.KeyDown)

		// The second shift changes no component: the bit is already down.
		assert.Zero(t, st.UpdateKey(keyShiftR, xkb.KeyDown))

		// Releasing one of the two keeps the modifier held.
		assert.Zero(t, st.UpdateKey(keyShiftL, xkb.KeyUp))
		assert.Equal(t, xkb.ShiftMask, st.Components().ModsDepressed)

		changed := st.UpdateKey(keyShiftR, xkb.KeyUp)
		assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsEffective|xkb.StateLEDs, changed)
		assert.Zero(t, st.Components().ModsDepressed)
	})
}

func TestModLockToggle(t *testing.T) {
	st := newTestState(t)

	// First press locks and depresses at once.
	changed := st.UpdateKey(keyCaps, xkb.KeyDown)
	assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsLocked|xkb.StateModsEffective|xkb.StateLEDs, changed)
	assert.Equal(t, xkb.LockMask, st.Components().ModsLocked)

	// First release only drops the depressed bit; the lock holds.
	changed = st.UpdateKey(keyCaps, xkb.KeyUp)
	assert.Equal(t, xkb.StateModsDepressed, changed)
	assert.Equal(t, xkb.LockMask, st.Components().ModsLocked)
	assert.Equal(t, xkb.LockMask, st.Components().ModsEffective)

	lit, err := st.LEDNameIsActive("Caps Lock")
	require.NoError(t, err)
	assert.True(t, lit)

	// Second press re-depresses but cannot double-lock.
	changed = st.UpdateKey(keyCaps, xkb.KeyDown)
	assert.Equal(t, xkb.StateModsDepressed, changed)
	assert.Equal(t, xkb.LockMask, st.Components().ModsLocked)

	// Second release completes the toggle.
	changed = st.UpdateKey(keyCaps, xkb.KeyUp)
	assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsLocked|xkb.StateModsEffective|xkb.StateLEDs, changed)
	assert.Zero(t, st.Components().ModsLocked)
	assert.Zero(t, st.Components().ModsEffective)

	lit, err = st.LEDNameIsActive("Caps Lock")
	require.NoError(t, err)
	assert.False(t, lit)
}

func TestRepeatedDownIsIdempotent(t *testing.T) {
	t.Run("lock key", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateKey(keyCaps, xkb.KeyDown)
		after := st.Components()

		assert.Zero(t, st.UpdateKey(keyCaps, xkb.KeyDown))
		assert.Equal(t, after, st.Components())

		// Balanced releases retire the press pair without a second
		// toggle.
		assert.Zero(t, st.UpdateKey(keyCaps, xkb.KeyUp))
		st.UpdateKey(keyCaps, xkb.KeyUp)
		assert.Equal(t, xkb.LockMask, st.Components().ModsLocked)
		assert.Zero(t, st.Components().ModsDepressed)
	})

	t.Run("set key", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateKey(keyShiftL, xkb.KeyDown)
		after := st.Components()

		assert.Zero(t, st.UpdateKey(keyShiftL, xkb.KeyDown))
		assert.Equal(t, after, st.Components())
	})
}

func TestModLatch(t *testing.T) {
	t.Run("tap arms a single-shot", func(t *testing.T) {
		st := newTestState(t)

		changed := st.UpdateKey(keyMenu, xkb.KeyDown)
		assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsEffective|xkb.StateLEDs, changed)

		// Release moves the bit from depressed to latched; effective
		// does not blink.
		changed = st.UpdateKey(keyMenu, xkb.KeyUp)
		assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsLatched, changed)
		assert.Equal(t, xkb.ShiftMask, st.Components().ModsLatched)
		assert.Equal(t, xkb.ShiftMask, st.Components().ModsEffective)
	})

	t.Run("next key consumes the latch", func(t *testing.T) {
		st := newTestState(t)
		tap(st, keyMenu)

		// The consuming press is resolved against the latched state
		// first, then fed to the engine.
		assert.Equal(t, syms('A'), st.KeyGetSyms(keyA))

		changed := st.UpdateKey(keyA, xkb.KeyDown)
		assert.Equal(t, xkb.StateModsLatched|xkb.StateModsEffective|xkb.StateLEDs, changed)
		assert.Zero(t, st.Components().ModsLatched)
		assert.Zero(t, st.UpdateKey(keyA, xkb.KeyUp))

		// One shot only.
		assert.Equal(t, syms('a'), st.KeyGetSyms(keyA))
	})

	t.Run("second tap locks, third unlocks", func(t *testing.T) {
		st := newTestState(t)
		tap(st, keyMenu)

		changed := st.UpdateKey(keyMenu, xkb.KeyDown)
		assert.Equal(t, xkb.StateModsDepressed|xkb.StateModsLatched|xkb.StateModsLocked, changed)
		st.UpdateKey(keyMenu, xkb.KeyUp)

		assert.Equal(t, xkb.ShiftMask, st.Components().ModsLocked)
		assert.Zero(t, st.Components().ModsLatched)
		assert.Equal(t, xkb.ShiftMask, st.Components().ModsEffective)

		// The latch action carries lock clearing, so one more tap
		// releases the lock.
		tap(st, keyMenu)
		assert.Zero(t, st.Components().ModsLocked)
		assert.Zero(t, st.Components().ModsEffective)
	})

	t.Run("pressing another key while held never arms", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateKey(keyMenu, xkb.KeyDown)
		assert.Equal(t, syms('Q'), st.KeyGetSyms(keyQ))
		st.UpdateKey(keyQ, xkb.KeyDown)
		st.UpdateKey(keyQ, xkb.KeyUp)
		st.UpdateKey(keyMenu, xkb.KeyUp)

		assert.Zero(t, st.Components().ModsLatched)
		assert.Zero(t, st.Components().ModsEffective)
	})
}

func TestGroupMomentary(t *testing.T) {
	st := newTestState(t)

	changed := st.UpdateKey(keyModeSwitch, xkb.KeyDown)
	assert.Equal(t, xkb.StateGroupDepressed|xkb.StateGroupEffective|xkb.StateLEDs, changed)
	assert.Equal(t, xkb.GroupIndex(1), st.Components().GroupEffective)
	assert.Equal(t, syms('й'), st.KeyGetSyms(keyQ))

	changed = st.UpdateKey(keyModeSwitch, xkb.KeyUp)
	assert.Equal(t, xkb.StateGroupDepressed|xkb.StateGroupEffective|xkb.StateLEDs, changed)
	assert.Equal(t, xkb.GroupIndex(0), st.Components().GroupEffective)
	assert.Equal(t, syms('q'), st.KeyGetSyms(keyQ))
}

func TestGroupLockToggleWraps(t *testing.T) {
	st := newTestState(t)

	changed := st.UpdateKey(keyAltR, xkb.KeyDown)
	assert.Equal(t, xkb.StateGroupLocked|xkb.StateGroupEffective|xkb.StateLEDs, changed)
	assert.Zero(t, st.UpdateKey(keyAltR, xkb.KeyUp))

	assert.Equal(t, int32(1), st.Components().GroupLocked)
	assert.Equal(t, xkb.GroupIndex(1), st.Components().GroupEffective)

	lit, err := st.LEDNameIsActive("Group 2")
	require.NoError(t, err)
	assert.True(t, lit)

	// Past the last group the lock wraps around, and the stored value
	// stays in range.
	changed = st.UpdateKey(keyAltR, xkb.KeyDown)
	assert.Equal(t, xkb.StateGroupLocked|xkb.StateGroupEffective|xkb.StateLEDs, changed)
	st.UpdateKey(keyAltR, xkb.KeyUp)

	assert.Equal(t, int32(0), st.Components().GroupLocked)
	assert.Equal(t, xkb.GroupIndex(0), st.Components().GroupEffective)

	lit, err = st.LEDNameIsActive("Group 2")
	require.NoError(t, err)
	assert.False(t, lit)
}

func TestGroupLatch(t *testing.T) {
	t.Run("tap arms, next key consumes", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateKey(keyGroupLatch, xkb.KeyDown)
		assert.Equal(t, int32(1), st.Components().GroupDepressed)

		changed := st.UpdateKey(keyGroupLatch, xkb.KeyUp)
		assert.Equal(t, xkb.StateGroupDepressed|xkb.StateGroupLatched, changed)
		assert.Equal(t, int32(1), st.Components().GroupLatched)
		assert.Equal(t, xkb.GroupIndex(1), st.Components().GroupEffective)

		assert.Equal(t, syms('й'), st.KeyGetSyms(keyQ))

		st.UpdateKey(keyQ, xkb.KeyDown)
		st.UpdateKey(keyQ, xkb.KeyUp)

		assert.Zero(t, st.Components().GroupLatched)
		assert.Equal(t, xkb.GroupIndex(0), st.Components().GroupEffective)
		assert.Equal(t, syms('q'), st.KeyGetSyms(keyQ))
	})

	t.Run("second tap locks the group", func(t *testing.T) {
		st := newTestState(t)
		tap(st, keyGroupLatch)

		changed := st.UpdateKey(keyGroupLatch, xkb.KeyDown)
		assert.Equal(t, xkb.StateGroupLatched|xkb.StateGroupLocked, changed)
		st.UpdateKey(keyGroupLatch, xkb.KeyUp)

		assert.Equal(t, int32(1), st.Components().GroupLocked)
		assert.Zero(t, st.Components().GroupLatched)
		assert.Equal(t, xkb.GroupIndex(1), st.Components().GroupEffective)
	})
}

func TestUpdateMask(t *testing.T) {
	t.Run("mirrors a master state", func(t *testing.T) {
		st := newTestState(t)

		changed := st.UpdateMask(0, 0, xkb.LockMask, 0, 0, 0)
		assert.Equal(t, xkb.StateModsLocked|xkb.StateModsEffective|xkb.StateLEDs, changed)

		lit, err := st.LEDNameIsActive("Caps Lock")
		require.NoError(t, err)
		assert.True(t, lit)

		changed = st.UpdateMask(0, 0, xkb.LockMask, 0, 0, 1)
		assert.Equal(t, xkb.StateGroupLocked|xkb.StateGroupEffective|xkb.StateLEDs, changed)
		assert.Equal(t, xkb.GroupIndex(1), st.Components().GroupEffective)

		lit, err = st.LEDNameIsActive("Group 2")
		require.NoError(t, err)
		assert.True(t, lit)
	})

	t.Run("clamps modifier masks to real bits", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateMask(0x3ff, 0, 0, 0, 0, 0)

		assert.Equal(t, xkb.RealModsMask, st.Components().ModsDepressed)
	})

	t.Run("locked group is stored in range", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateMask(0, 0, 0, 0, 0, 7)
		assert.Equal(t, int32(1), st.Components().GroupLocked)
		assert.Equal(t, xkb.GroupIndex(1), st.Components().GroupEffective)

		st.UpdateMask(0, 0, 0, 0, 0, -1)
		assert.Equal(t, int32(1), st.Components().GroupLocked)
	})

	t.Run("base group values stay raw, effective wraps", func(t *testing.T) {
		st := newTestState(t)

		st.UpdateMask(0, 0, 0, 1, 0, 1)

		assert.Equal(t, int32(1), st.Components().GroupDepressed)
		assert.Equal(t, int32(1), st.Components().GroupLocked)
		assert.Equal(t, xkb.GroupIndex(0), st.Components().GroupEffective)
	})
}

func TestEffectiveTracksComponents(t *testing.T) {
	st := newTestState(t)

	script := []struct {
		code xkb.KeyCode
		dir  xkb.KeyDirection
	}{
		{keyShiftL, xkb.KeyDown},
		{keyCaps, xkb.KeyDown},
		{keyCaps, xkb.KeyUp},
		{keyA, xkb.KeyDown},
		{keyA, xkb.KeyUp},
		{keyShiftL, xkb.KeyUp},
		{keyMenu, xkb.KeyDown},
		{keyMenu, xkb.KeyUp},
		{keyAltR, xkb.KeyDown},
		{keyAltR, xkb.KeyUp},
		{keyQ, xkb.KeyDown},
		{keyQ, xkb.KeyUp},
		{keyModeSwitch, xkb.KeyDown},
		{keyKP7, xkb.KeyDown},
		{keyKP7, xkb.KeyUp},
		{keyModeSwitch, xkb.KeyUp},
		{keyCaps, xkb.KeyDown},
		{keyCaps, xkb.KeyUp},
		{keyGroupLatch, xkb.KeyDown},
		{keyGroupLatch, xkb.KeyUp},
		{keySpace, xkb.KeyDown},
		{keySpace, xkb.KeyUp},
	}

	numGroups := int32(st.Keymap().NumGroups())
	for i, ev := range script {
		st.UpdateKey(ev.code, ev.dir)
		c := st.Components()

		assert.Equal(t, c.ModsDepressed|c.ModsLatched|c.ModsLocked, c.ModsEffective,
			"modifiers diverged after event %d (%v %v)", i, ev.code, ev.dir)

		sum := (c.GroupDepressed + c.GroupLatched + c.GroupLocked) % numGroups
		if sum < 0 {
			sum += numGroups
		}
		assert.Equal(t, xkb.GroupIndex(sum), c.GroupEffective,
			"groups diverged after event %d (%v %v)", i, ev.code, ev.dir)
	}
}

func TestSerialize(t *testing.T) {
	t.Run("mods", func(t *testing.T) {
		st := newTestState(t)
		tap(st, keyMenu)

		assert.Equal(t, xkb.ShiftMask, st.SerializeMods(xkb.StateModsLatched))
		assert.Zero(t, st.SerializeMods(xkb.StateModsDepressed))
		assert.Equal(t, xkb.ShiftMask, st.SerializeMods(xkb.StateModsEffective))
		assert.Equal(t, xkb.ShiftMask, st.SerializeMods(xkb.StateModsDepressed|xkb.StateModsLatched))
	})

	t.Run("group", func(t *testing.T) {
		st := newTestState(t)
		tap(st, keyAltR)

		assert.Equal(t, xkb.GroupIndex(1), st.SerializeGroup(xkb.StateGroupLocked))
		assert.Equal(t, xkb.GroupIndex(1), st.SerializeGroup(xkb.StateGroupEffective))
		assert.Equal(t, xkb.GroupIndex(0), st.SerializeGroup(xkb.StateGroupDepressed))
	})

	t.Run("round trip into a slave state", func(t *testing.T) {
		master := newTestState(t)
		slave := newTestState(t)

		tap(master, keyCaps)
		tap(master, keyAltR)
		master.UpdateKey(keyShiftL, xkb.KeyDown)

		slave.UpdateMask(
			master.SerializeMods(xkb.StateModsDepressed),
			master.SerializeMods(xkb.StateModsLatched),
			master.SerializeMods(xkb.StateModsLocked),
			int32(master.SerializeGroup(xkb.StateGroupDepressed)),
			int32(master.SerializeGroup(xkb.StateGroupLatched)),
			int32(master.SerializeGroup(xkb.StateGroupLocked)),
		)

		assert.Equal(t, master.Components(), slave.Components())
		assert.Equal(t, master.LEDMask(), slave.LEDMask())
	})
}

func TestModPredicates(t *testing.T) {
	st := newTestState(t)
	tap(st, keyCaps)
	st.UpdateKey(keyShiftL, xkb.KeyDown)

	t.Run("single modifier by component", func(t *testing.T) {
		on, err := st.ModNameIsActive("Shift", xkb.StateModsDepressed)
		require.NoError(t, err)
		assert.True(t, on)

		on, err = st.ModNameIsActive("Shift", xkb.StateModsLocked)
		require.NoError(t, err)
		assert.False(t, on)

		on, err = st.ModNameIsActive("Lock", xkb.StateModsLocked)
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("any and all", func(t *testing.T) {
		on, err := st.ModNamesAreActive(xkb.StateModsEffective, xkb.StateMatchAny, "Shift", "Control")
		require.NoError(t, err)
		assert.True(t, on)

		on, err = st.ModNamesAreActive(xkb.StateModsEffective, xkb.StateMatchAll, "Shift", "Control")
		require.NoError(t, err)
		assert.False(t, on)

		on, err = st.ModNamesAreActive(xkb.StateModsEffective, xkb.StateMatchAll, "Shift", "Lock")
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("non-exclusive match", func(t *testing.T) {
		on, err := st.ModNamesAreActive(xkb.StateModsEffective,
			xkb.StateMatchAll|xkb.StateMatchNonExclusive, "Shift", "Lock")
		require.NoError(t, err)
		assert.True(t, on)

		// Lock is active outside the listed set.
		on, err = st.ModNamesAreActive(xkb.StateModsEffective,
			xkb.StateMatchAny|xkb.StateMatchNonExclusive, "Shift")
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("errors are recoverable", func(t *testing.T) {
		before := st.Components()

		_, err := st.ModNamesAreActive(xkb.StateModsEffective, 0, "Shift")
		assert.ErrorIs(t, err, xkb.ErrInvalidMatch)

		_, err = st.ModNameIsActive("Gremlin", xkb.StateModsEffective)
		var notFound *xkb.NotFoundError
		assert.ErrorAs(t, err, &notFound)

		_, err = st.ModIndexIsActive(99, xkb.StateModsEffective)
		var badIndex *xkb.InvalidIndexError
		assert.ErrorAs(t, err, &badIndex)

		assert.Equal(t, before, st.Components())
	})
}

func TestVirtualModifierActivity(t *testing.T) {
	st := newTestState(t)

	on, err := st.ModNameIsActive("NumLock", xkb.StateModsEffective)
	require.NoError(t, err)
	assert.False(t, on)

	tap(st, keyNumLock)

	on, err = st.ModNameIsActive("NumLock", xkb.StateModsEffective)
	require.NoError(t, err)
	assert.True(t, on)

	// Alt and Meta share Mod1, so either name reads as active while a
	// key drives that real modifier.
	st.UpdateKey(keyAltL, xkb.KeyDown)

	for _, name := range []string{"Alt", "Meta", "Mod1"} {
		on, err = st.ModNameIsActive(name, xkb.StateModsEffective)
		require.NoError(t, err)
		assert.True(t, on, name)
	}
}

func TestActiveModNames(t *testing.T) {
	st := newTestState(t)

	assert.Empty(t, st.ActiveModNames())

	tap(st, keyCaps)
	tap(st, keyNumLock)

	assert.Equal(t, []string{"Lock", "Mod2", "NumLock"}, st.ActiveModNames())
}

func TestGroupPredicates(t *testing.T) {
	st := newTestState(t)
	tap(st, keyAltR)

	on, err := st.GroupNameIsActive("Russian", xkb.StateGroupEffective)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = st.GroupNameIsActive("English (US)", xkb.StateGroupEffective)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = st.GroupIndexIsActive(1, xkb.StateGroupLocked)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = st.GroupIndexIsActive(1, xkb.StateGroupDepressed)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = st.GroupIndexIsActive(5, xkb.StateGroupEffective)
	var badIndex *xkb.InvalidIndexError
	assert.ErrorAs(t, err, &badIndex)

	_, err = st.GroupNameIsActive("Dvorak", xkb.StateGroupEffective)
	var notFound *xkb.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestLEDs(t *testing.T) {
	st := newTestState(t)

	assert.Zero(t, st.LEDMask())

	tap(st, keyCaps)
	tap(st, keyNumLock)
	st.UpdateKey(keyShiftL, xkb.KeyDown)
	tap(st, keyAltR)

	for _, name := range []string{"Caps Lock", "Num Lock", "Shift", "Group 2"} {
		lit, err := st.LEDNameIsActive(name)
		require.NoError(t, err)
		assert.True(t, lit, name)
	}
	assert.Equal(t, uint32(0b1111), st.LEDMask())

	t.Run("unknown led is a recoverable error", func(t *testing.T) {
		before := st.Components()

		_, err := st.LEDNameIsActive("Kana")
		var notFound *xkb.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Kana", notFound.Name)

		_, err = st.LEDIndexIsActive(9)
		var badIndex *xkb.InvalidIndexError
		assert.ErrorAs(t, err, &badIndex)

		assert.Equal(t, before, st.Components())
	})
}

type levelSelectionTest struct {
	name  string
	setup func(st *xkb.State)
	code  xkb.KeyCode
	want  []xkb.Keysym
}

func TestKeyLevelSelection(t *testing.T) {
	testCases := []levelSelectionTest{
		{"plain letter", nil, keyA, syms('a')},
		{
			"shift selects the second level",
			func(st *xkb.State) { st.UpdateKey(keyShiftL, xkb.KeyDown) },
			keyA, syms('A'),
		},
		{
			"caps selects the second level on alphabetic keys",
			func(st *xkb.State) { tap(st, keyCaps) },
			keyA, syms('A'),
		},
		{
			"shift under caps cancels back to base",
			func(st *xkb.State) { tap(st, keyCaps); st.UpdateKey(keyShiftL, xkb.KeyDown) },
			keyA, syms('a'),
		},
		{
			"caps does not shift two-level keys",
			func(st *xkb.State) { tap(st, keyCaps) },
			keyQ, syms('q'),
		},
		{"keypad base", nil, keyKP7, []xkb.Keysym{xkb.SymKPHome}},
		{
			"numlock selects the digit",
			func(st *xkb.State) { tap(st, keyNumLock) },
			keyKP7, []xkb.Keysym{xkb.SymKP7},
		},
		{
			"shift with numlock falls back to base",
			func(st *xkb.State) { tap(st, keyNumLock); st.UpdateKey(keyShiftL, xkb.KeyDown) },
			keyKP7, []xkb.Keysym{xkb.SymKPHome},
		},
		{
			"locked group switches the symbol",
			func(st *xkb.State) { tap(st, keyAltR) },
			keyQ, syms('й'),
		},
		{
			"shift in the second group",
			func(st *xkb.State) { tap(st, keyAltR); st.UpdateKey(keyShiftL, xkb.KeyDown) },
			keyQ, syms('Й'),
		},
		{
			"single-group keys ignore the locked group",
			func(st *xkb.State) { tap(st, keyAltR) },
			keyEsc, []xkb.Keysym{xkb.SymEscape},
		},
	}

	for _, item := range testCases {
		t.Run(item.name, func(t *testing.T) {
			st := newTestState(t)
			if item.setup != nil {
				item.setup(st)
			}

			assert.Equal(t, item.want, st.KeyGetSyms(item.code))
		})
	}
}

func TestKeyGetOneSymCapitalization(t *testing.T) {
	st := newTestState(t)
	tap(st, keyCaps)

	// Lock is not consumed by two-level keys, so the single sym is
	// capitalized even though the lookup stays on the base level.
	assert.Equal(t, syms('w'), st.KeyGetSyms(keyW))
	assert.Equal(t, xkb.KeysymFromRune('W'), st.KeyGetOneSym(keyW))

	// Alphabetic keys consume Lock while selecting the caps level, so
	// the transform does not double up.
	assert.Equal(t, xkb.KeysymFromRune('A'), st.KeyGetOneSym(keyA))
	assert.Equal(t, xkb.KeysymFromRune('Q'), st.KeyGetOneSym(keyQ))

	// The transform runs through Unicode case mapping, so it reaches
	// beyond ASCII.
	tap(st, keyAltR)
	assert.Equal(t, xkb.KeysymFromRune('Й'), st.KeyGetOneSym(keyQ))
}

func TestKeyGetString(t *testing.T) {
	st := newTestState(t)

	assert.Equal(t, " ", st.KeyGetString(keySpace))
	assert.Equal(t, "q", st.KeyGetString(keyQ))

	st.UpdateKey(keyShiftL, xkb.KeyDown)
	assert.Equal(t, "Q", st.KeyGetString(keyQ))

	assert.Empty(t, st.KeyGetString(keyUnknown))
}

func TestKeyQueriesAreTotal(t *testing.T) {
	st := newTestState(t)

	assert.Equal(t, xkb.GroupInvalid, st.KeyGetGroup(keyUnknown))
	assert.Equal(t, xkb.LevelInvalid, st.KeyGetLevel(keyUnknown, 0))
	assert.Nil(t, st.KeyGetSyms(keyUnknown))
	assert.Equal(t, xkb.NoSymbol, st.KeyGetOneSym(keyUnknown))
	assert.Zero(t, st.ConsumedMods(keyUnknown))

	// Out-of-range group arguments clamp instead of failing.
	assert.Equal(t, xkb.LevelIndex(0), st.KeyGetLevel(keyQ, 999))

	st.UpdateKey(keyShiftL, xkb.KeyDown)
	assert.Equal(t, xkb.LevelIndex(1), st.KeyGetLevel(keyQ, 999))
}

func TestConsumedMods(t *testing.T) {
	t.Run("keypad consumes numlock", func(t *testing.T) {
		st := newTestState(t)
		tap(st, keyNumLock)

		assert.Equal(t, xkb.ShiftMask|xkb.Mod2Mask, st.ConsumedMods(keyKP7))

		numLock, err := st.Keymap().ModIndex("NumLock")
		require.NoError(t, err)

		consumed, err := st.ModIndexIsConsumed(keyKP7, numLock)
		require.NoError(t, err)
		assert.True(t, consumed)

		assert.Equal(t, xkb.ControlMask,
			st.ModMaskRemoveConsumed(keyKP7, xkb.Mod2Mask|xkb.ControlMask))
	})

	t.Run("two-level consumes shift only", func(t *testing.T) {
		st := newTestState(t)
		st.UpdateKey(keyShiftL, xkb.KeyDown)

		assert.Equal(t, xkb.ShiftMask, st.ConsumedMods(keyQ))
		assert.Zero(t, st.ConsumedMods(keyEsc))
	})

	t.Run("preserved modifiers are not consumed", func(t *testing.T) {
		b := xkb.NewBuilder("preserve")
		b.AddKeyType(xkb.KeyTypeSpec{
			Name:      "CTRL_LEVEL2",
			Modifiers: []string{"Control"},
			Entries: []xkb.TypeEntrySpec{
				{Modifiers: []string{"Control"}, Level: 1, Preserve: []string{"Control"}},
			},
		})
		b.AddKeyType(xkb.KeyTypeSpec{Name: "ONE_LEVEL"})
		b.AddKey(xkb.KeySpec{Code: 20, Groups: []xkb.GroupSpec{
			{Type: "CTRL_LEVEL2", Levels: []xkb.LevelSpec{{Syms: syms('x')}, {Syms: syms('y')}}},
		}})
		b.AddKey(oneLevelKey(21, xkb.SymControlL,
			&xkb.ActionSpec{Kind: xkb.ActionModSet, Modifiers: []string{"Control"}}))
		km, err := b.Build()
		require.NoError(t, err)

		st := xkb.NewState(km)
		st.UpdateKey(21, xkb.KeyDown)

		assert.Equal(t, xkb.LevelIndex(1), st.KeyGetLevel(20, 0))
		assert.Zero(t, st.ConsumedMods(20))
	})

	t.Run("bad index", func(t *testing.T) {
		st := newTestState(t)

		_, err := st.ModIndexIsConsumed(keyKP7, 99)
		var badIndex *xkb.InvalidIndexError
		assert.ErrorAs(t, err, &badIndex)
	})
}

func TestKeyGroupWrapPolicies(t *testing.T) {
	b := xkb.NewBuilder("wrap-policies")
	b.AddGroup("A")
	b.AddGroup("B")
	b.AddGroup("C")
	b.AddKeyType(xkb.KeyTypeSpec{Name: "ONE_LEVEL"})

	twoGroups := func(code xkb.KeyCode, wrap xkb.WrapPolicy, redirect xkb.GroupIndex) xkb.KeySpec {
		return xkb.KeySpec{
			Code:          code,
			Wrap:          wrap,
			RedirectGroup: redirect,
			Groups: []xkb.GroupSpec{
				{Type: "ONE_LEVEL", Levels: []xkb.LevelSpec{{Syms: syms('a')}}},
				{Type: "ONE_LEVEL", Levels: []xkb.LevelSpec{{Syms: syms('b')}}},
			},
		}
	}
	b.AddKey(twoGroups(20, xkb.WrapPolicyWrap, 0))
	b.AddKey(twoGroups(21, xkb.WrapPolicyClamp, 0))
	b.AddKey(twoGroups(22, xkb.WrapPolicySaturate, 0))
	b.AddKey(twoGroups(23, xkb.WrapPolicyRedirect, 1))

	km, err := b.Build()
	require.NoError(t, err)

	st := xkb.NewState(km)
	st.UpdateMask(0, 0, 0, 0, 0, 2)
	require.Equal(t, xkb.GroupIndex(2), st.Components().GroupEffective)

	assert.Equal(t, xkb.GroupIndex(0), st.KeyGetGroup(20), "wrap")
	assert.Equal(t, xkb.GroupIndex(1), st.KeyGetGroup(21), "clamp")
	assert.Equal(t, xkb.GroupIndex(1), st.KeyGetGroup(22), "saturate")
	assert.Equal(t, xkb.GroupIndex(1), st.KeyGetGroup(23), "redirect")
}
