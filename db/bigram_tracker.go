package db

import (
	"cmp"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/dasdy/xkbstate/model"
	"github.com/dasdy/xkbstate/xkb"
)

// BigramTracker counts keycodes pressed directly after each other.
type BigramTracker struct {
	lastKey   xkb.KeyCode
	counts    map[xkb.KeyCode]map[xkb.KeyCode]int
	stateLock sync.RWMutex
}

// NewBigramTracker returns an empty tracker that only counts what it is fed.
func NewBigramTracker() *BigramTracker {
	return &BigramTracker{
		lastKey:   xkb.KeycodeInvalid,
		counts:    make(map[xkb.KeyCode]map[xkb.KeyCode]int),
		stateLock: sync.RWMutex{},
	}
}

// NewBigramTrackerFromDB seeds a tracker with the stored history in the
// background.
func NewBigramTrackerFromDB(storage Storage) (*BigramTracker, error) {
	tracker := NewBigramTracker()

	go func() {
		iterator, err := storage.AllIterator()
		if err != nil {
			panic(err)
		}

		tracker.initFromHistory(iterator)
	}()

	return tracker, nil
}

func (bt *BigramTracker) HandleTransitionNow(tr *model.Transition, verbose bool) {
	bt.stateLock.Lock()
	defer bt.stateLock.Unlock()

	bt.handleTransition(tr, verbose)
}

// GatherBigrams returns the counts of keycodes pressed right after kc.
func (bt *BigramTracker) GatherBigrams(kc xkb.KeyCode) []model.BigramCount {
	bt.stateLock.RLock()
	defer bt.stateLock.RUnlock()

	counts := bt.counts[kc]

	result := make([]model.BigramCount, 0, len(counts))
	for next, count := range counts {
		result = append(result, model.BigramCount{First: kc, Second: next, Count: count})
	}

	slices.SortFunc(result, func(a, b model.BigramCount) int {
		return cmp.Or(
			-cmp.Compare(a.Count, b.Count),
			cmp.Compare(a.Second, b.Second),
		)
	})

	return result
}

// GatherTopBigrams returns the most frequent pairs across all first keys,
// trimmed to limit when limit is positive.
func (bt *BigramTracker) GatherTopBigrams(limit int) []model.BigramCount {
	bt.stateLock.RLock()
	defer bt.stateLock.RUnlock()

	result := make([]model.BigramCount, 0, len(bt.counts))
	for first, pairs := range bt.counts {
		for second, count := range pairs {
			result = append(result, model.BigramCount{First: first, Second: second, Count: count})
		}
	}

	slices.SortFunc(result, func(a, b model.BigramCount) int {
		return cmp.Or(
			-cmp.Compare(a.Count, b.Count),
			cmp.Compare(a.First, b.First),
			cmp.Compare(a.Second, b.Second),
		)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result
}

func (bt *BigramTracker) initFromHistory(items iter.Seq[model.TransitionWithTimestamp]) {
	bt.stateLock.Lock()
	defer bt.stateLock.Unlock()

	for item := range items {
		bt.handleTransition(&item.Transition, false)
	}
}

// handleTransition assumes the state lock is held. Only presses advance the
// pair chain.
func (bt *BigramTracker) handleTransition(tr *model.Transition, verbose bool) {
	if !tr.Pressed {
		return
	}

	if bt.lastKey != xkb.KeycodeInvalid {
		if _, exists := bt.counts[bt.lastKey]; !exists {
			bt.counts[bt.lastKey] = make(map[xkb.KeyCode]int)
		}

		if verbose {
			slog.Info("key press sequence",
				"current", tr.Keycode,
				"previous", bt.lastKey)
		}

		bt.counts[bt.lastKey][tr.Keycode]++
	}

	bt.lastKey = tr.Keycode
}
