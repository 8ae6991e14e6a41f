package xkb

// Latch lifecycle: the latch key is held, then released cleanly (pending),
// then the next key press consumes or promotes the latch.
type latchPhase int32

const (
	latchNone latchPhase = iota
	latchKeyDown
	latchPending
)

// A filterFunc sees every key event while its filter is live. Returning
// false consumes the event: no new action filters are spawned for it.
type filterFunc func(s *State, f *filter, key *Key, dir KeyDirection) bool

// filter tracks one triggered action from the press that spawned it to the
// release that retires it. A nil fn marks a dead slot ready for reuse.
//
// refcnt counts Down events for the owning key so autorepeat cannot apply
// an action twice; saved holds the previously locked bits for mod lock
// filters and the saved or armed group value for group filters.
type filter struct {
	fn     filterFunc
	action Action
	key    *Key
	refcnt int
	latch  latchPhase
	saved  int32
}

func (s *State) newFilter() *filter {
	for i := range s.filters {
		if s.filters[i].fn == nil {
			s.filters[i] = filter{}
			return &s.filters[i]
		}
	}
	s.filters = append(s.filters, filter{})
	return &s.filters[len(s.filters)-1]
}

// applyFilters runs every live filter over the event and, for an unconsumed
// press, spawns a filter for the key's action.
func (s *State) applyFilters(key *Key, dir KeyDirection) {
	send := true
	for i := range s.filters {
		f := &s.filters[i]
		if f.fn == nil {
			continue
		}
		if !f.fn(s, f, key, dir) {
			send = false
		}
	}
	if !send || dir == KeyUp {
		return
	}
	s.spawnFilter(s.actionForKey(key), key)
}

// actionForKey resolves the action the key carries at the current effective
// group and level.
func (s *State) actionForKey(key *Key) Action {
	g := s.groupForKey(key)
	if g == GroupInvalid {
		return Action{}
	}
	kg := &key.Groups[g]
	if len(kg.Levels) == 0 {
		return Action{}
	}
	l := clampIndex(int(kg.Type.level(s.cur.ModsEffective)), len(kg.Levels))
	return kg.Levels[l].Action
}

func (s *State) spawnFilter(act Action, key *Key) {
	var fn filterFunc
	var init func(*State, *filter)
	switch act.Kind {
	case ActionModSet:
		fn, init = modSetFunc, modSetNew
	case ActionModLatch:
		fn, init = modLatchFunc, modLatchNew
	case ActionModLock:
		fn, init = modLockFunc, modLockNew
	case ActionGroupSet:
		fn, init = groupSetFunc, groupSetNew
	case ActionGroupLatch:
		fn, init = groupLatchFunc, groupLatchNew
	case ActionGroupLock:
		fn, init = groupLockFunc, groupLockNew
	default:
		return
	}
	f := s.newFilter()
	f.fn = fn
	f.action = act
	f.key = key
	f.refcnt = 1
	init(s, f)
}

func modSetNew(s *State, f *filter) {
	s.setMods |= f.action.Mods
}

func modSetFunc(s *State, f *filter, key *Key, dir KeyDirection) bool {
	if key != f.key {
		return true
	}
	if dir == KeyDown {
		f.refcnt++
		return false
	}
	f.refcnt--
	if f.refcnt > 0 {
		return false
	}
	s.clearMods |= f.action.Mods
	if f.action.Flags&ActionClearLocks != 0 {
		s.cur.ModsLocked &^= f.action.Mods
	}
	f.fn = nil
	return true
}

func modLockNew(s *State, f *filter) {
	f.saved = int32(s.cur.ModsLocked & f.action.Mods)
	s.setMods |= f.action.Mods
	if f.action.Flags&ActionLockNoLock == 0 {
		s.cur.ModsLocked |= f.action.Mods
	}
}

// modLockFunc completes the toggle on release: bits that were already
// locked when the key went down are unlocked, freshly locked ones stay.
func modLockFunc(s *State, f *filter, key *Key, dir KeyDirection) bool {
	if key != f.key {
		return true
	}
	if dir == KeyDown {
		f.refcnt++
		return false
	}
	f.refcnt--
	if f.refcnt > 0 {
		return false
	}
	s.clearMods |= f.action.Mods
	if f.action.Flags&ActionLockNoUnlock == 0 {
		s.cur.ModsLocked &^= ModMask(f.saved)
	}
	f.fn = nil
	return true
}

func modLatchNew(s *State, f *filter) {
	f.latch = latchKeyDown
	s.setMods |= f.action.Mods
}

func modLatchFunc(s *State, f *filter, key *Key, dir KeyDirection) bool {
	switch {
	case dir == KeyDown && f.latch == latchPending:
		if s.actionForKey(key).sameLatch(f.action) {
			// Second tap of the same latch: promote to a lock or a
			// plain held modifier and hand the filter the new key.
			f.key = key
			f.refcnt = 1
			if f.action.Flags&ActionLatchToLock != 0 {
				f.action.Kind = ActionModLock
				f.fn = modLockFunc
				modLockNew(s, f)
			} else {
				f.action.Kind = ActionModSet
				f.fn = modSetFunc
				modSetNew(s, f)
			}
			s.cur.ModsLatched &^= f.action.Mods
			return false
		}
		// Any other press consumes the single-shot. The event itself
		// still goes through and is looked up against the latched
		// state by callers that query before updating.
		s.cur.ModsLatched &^= f.action.Mods
		f.fn = nil
		return true
	case key == f.key && dir == KeyUp:
		f.refcnt--
		if f.refcnt > 0 {
			return false
		}
		unlocking := f.action.Flags&ActionClearLocks != 0 &&
			s.cur.ModsLocked&f.action.Mods == f.action.Mods
		if f.latch == latchNone || unlocking {
			s.clearMods |= f.action.Mods
			if f.action.Flags&ActionClearLocks != 0 {
				s.cur.ModsLocked &^= f.action.Mods
			}
			f.fn = nil
			return true
		}
		// Clean release: arm the single-shot, moving the bits from
		// depressed to latched.
		f.latch = latchPending
		s.clearMods |= f.action.Mods
		s.cur.ModsLatched |= f.action.Mods
		return true
	case key == f.key && dir == KeyDown && f.latch == latchKeyDown:
		f.refcnt++
		return false
	case dir == KeyDown && f.latch == latchKeyDown:
		// Another key while the latch key is held: keep the modifier
		// held but never arm.
		f.latch = latchNone
		return true
	}
	return true
}

func groupSetNew(s *State, f *filter) {
	f.saved = s.cur.GroupDepressed
	if f.action.Flags&ActionAbsoluteGroup != 0 {
		s.cur.GroupDepressed = f.action.Group
	} else {
		s.cur.GroupDepressed += f.action.Group
	}
}

func groupSetFunc(s *State, f *filter, key *Key, dir KeyDirection) bool {
	if key != f.key {
		return true
	}
	if dir == KeyDown {
		f.refcnt++
		return false
	}
	f.refcnt--
	if f.refcnt > 0 {
		return false
	}
	s.cur.GroupDepressed = f.saved
	if f.action.Flags&ActionClearLocks != 0 {
		s.cur.GroupLocked = 0
	}
	f.fn = nil
	return true
}

func groupLatchNew(s *State, f *filter) {
	f.latch = latchKeyDown
	f.saved = s.cur.GroupDepressed
	if f.action.Flags&ActionAbsoluteGroup != 0 {
		s.cur.GroupDepressed = f.action.Group
	} else {
		s.cur.GroupDepressed += f.action.Group
	}
}

func groupLatchFunc(s *State, f *filter, key *Key, dir KeyDirection) bool {
	switch {
	case dir == KeyDown && f.latch == latchPending:
		armed := f.saved
		if s.actionForKey(key).sameLatch(f.action) {
			f.key = key
			f.refcnt = 1
			if f.action.Flags&ActionLatchToLock != 0 {
				f.action.Kind = ActionGroupLock
				f.fn = groupLockFunc
				groupLockNew(s, f)
			} else {
				f.action.Kind = ActionGroupSet
				f.fn = groupSetFunc
				groupSetNew(s, f)
			}
			s.cur.GroupLatched -= armed
			return false
		}
		s.cur.GroupLatched -= armed
		f.fn = nil
		return true
	case key == f.key && dir == KeyUp:
		f.refcnt--
		if f.refcnt > 0 {
			return false
		}
		if f.latch == latchNone {
			s.cur.GroupDepressed = f.saved
			f.fn = nil
			return true
		}
		// Arm: the shift moves from depressed to latched. An absolute
		// target arms as its raw value into the latched sum.
		armed := f.action.Group
		s.cur.GroupDepressed = f.saved
		s.cur.GroupLatched += armed
		f.saved = armed
		f.latch = latchPending
		return true
	case key == f.key && dir == KeyDown && f.latch == latchKeyDown:
		f.refcnt++
		return false
	case dir == KeyDown && f.latch == latchKeyDown:
		f.latch = latchNone
		return true
	}
	return true
}

func groupLockNew(s *State, f *filter) {
	if f.action.Flags&ActionAbsoluteGroup != 0 {
		s.cur.GroupLocked = f.action.Group
	} else {
		s.cur.GroupLocked += f.action.Group
	}
}

func groupLockFunc(s *State, f *filter, key *Key, dir KeyDirection) bool {
	if key != f.key {
		return true
	}
	if dir == KeyDown {
		f.refcnt++
		return false
	}
	f.refcnt--
	if f.refcnt > 0 {
		return false
	}
	f.fn = nil
	return true
}
