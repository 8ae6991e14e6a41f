package db

import (
	"iter"

	"github.com/dasdy/xkbstate/model"
)

// Tracker consumes live state transitions and aggregates them in memory.
type Tracker interface {
	HandleTransitionNow(tr *model.Transition, verbose bool)
}

type Storage interface {
	Store(tr *model.Transition) error
	AllIterator() (iter.Seq[model.TransitionWithTimestamp], error)
	GatherKeycodeCounts() ([]model.KeycodeCount, error)
	GatherGroupCounts() ([]model.GroupCount, error)
	GatherModifierCounts() ([]model.ModifierCount, error)
	Close()
}
