package db

import (
	"cmp"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/dasdy/xkbstate/model"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/schollz/progressbar/v3"
)

// UsageTracker aggregates live transitions: press counts per keycode, per
// effective group, and per modifier chord. A chord is the effective
// real-modifier mask at press time, so it includes the press that activated
// the mask itself.
type UsageTracker struct {
	keycodes  map[xkb.KeyCode]int
	groups    map[int32]int
	chords    map[xkb.ModMask]int
	stateLock sync.RWMutex
}

// NewUsageTracker returns an empty tracker that only counts what it is fed.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{
		keycodes: make(map[xkb.KeyCode]int),
		groups:   make(map[int32]int),
		chords:   make(map[xkb.ModMask]int),

		stateLock: sync.RWMutex{},
	}
}

// NewUsageTrackerFromDB seeds a tracker with the stored history in the
// background; counts served before seeding finishes may still be partial.
func NewUsageTrackerFromDB(storage Storage) (*UsageTracker, error) {
	tracker := NewUsageTracker()

	go func() {
		iterator, err := storage.AllIterator()
		if err != nil {
			panic(err)
		}

		tracker.initFromHistory(iterator)
	}()

	return tracker, nil
}

func (u *UsageTracker) HandleTransitionNow(tr *model.Transition, verbose bool) {
	u.stateLock.Lock()
	defer u.stateLock.Unlock()

	u.handleTransition(tr, verbose)
}

// handleTransition assumes the state lock is held.
func (u *UsageTracker) handleTransition(tr *model.Transition, verbose bool) {
	if !tr.Pressed {
		return
	}

	u.keycodes[tr.Keycode]++
	u.groups[int32(tr.After.GroupEffective)]++

	if mask := tr.After.ModsEffective; mask != 0 {
		u.chords[mask]++
	}

	if verbose {
		slog.Info("usage counting",
			"keycode", tr.Keycode,
			"group", tr.After.GroupEffective,
			"mods", tr.After.ModsEffective)
	}
}

func (u *UsageTracker) initFromHistory(items iter.Seq[model.TransitionWithTimestamp]) {
	u.stateLock.Lock()
	defer u.stateLock.Unlock()

	bar := progressbar.Default(-1, "Scanning history...")

	for item := range items {
		if err := bar.Add(1); err != nil {
			slog.Error("could not update progress bar", "error", err)
		}

		u.handleTransition(&item.Transition, false)
	}

	if err := bar.Finish(); err != nil {
		slog.Error("could not finish progress bar", "error", err)
	}
}

// GatherKeycodeCounts returns press counts sorted most-pressed first,
// trimmed to limit when limit is positive.
func (u *UsageTracker) GatherKeycodeCounts(limit int) []model.KeycodeCount {
	u.stateLock.RLock()
	defer u.stateLock.RUnlock()

	result := make([]model.KeycodeCount, 0, len(u.keycodes))
	for kc, count := range u.keycodes {
		result = append(result, model.KeycodeCount{Keycode: kc, Count: count})
	}

	slices.SortFunc(result, func(a, b model.KeycodeCount) int {
		return cmp.Or(
			-cmp.Compare(a.Count, b.Count),
			cmp.Compare(a.Keycode, b.Keycode),
		)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result
}

func (u *UsageTracker) GatherGroupCounts() []model.GroupCount {
	u.stateLock.RLock()
	defer u.stateLock.RUnlock()

	result := make([]model.GroupCount, 0, len(u.groups))
	for group, count := range u.groups {
		result = append(result, model.GroupCount{Group: group, Count: count})
	}

	slices.SortFunc(result, func(a, b model.GroupCount) int {
		return cmp.Compare(a.Group, b.Group)
	})

	return result
}

func (u *UsageTracker) GatherChordCounts() []model.LabeledCount {
	u.stateLock.RLock()
	defer u.stateLock.RUnlock()

	result := make([]model.LabeledCount, 0, len(u.chords))
	for mask, count := range u.chords {
		result = append(result, model.LabeledCount{Label: mask.String(), Count: count})
	}

	slices.SortFunc(result, func(a, b model.LabeledCount) int {
		return cmp.Or(
			-cmp.Compare(a.Count, b.Count),
			cmp.Compare(a.Label, b.Label),
		)
	})

	return result
}
