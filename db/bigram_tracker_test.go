package db_test

import (
	"testing"
	"time"

	"github.com/dasdy/xkbstate/db"
	"github.com/dasdy/xkbstate/model"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigramTracker(t *testing.T) {
	t.Run("returns empty counts by default", func(t *testing.T) {
		storage := memStorage(t)

		tracker, err := db.NewBigramTrackerFromDB(storage)
		require.NoError(t, err)

		time.Sleep(120 * time.Millisecond)

		assert.Empty(t, tracker.GatherBigrams(10))
	})

	t.Run("counts successive presses, ignoring releases", func(t *testing.T) {
		storage := memStorage(t)

		tracker, err := db.NewBigramTrackerFromDB(storage)
		require.NoError(t, err)

		time.Sleep(120 * time.Millisecond)

		for _, kc := range []uint32{10, 11, 10, 12, 10, 11} {
			tracker.HandleTransitionNow(press(xkb.KeyCode(kc), 0, 0), false)
			tracker.HandleTransitionNow(release(xkb.KeyCode(kc)), false)
		}

		assert.Equal(t, []model.BigramCount{
			{First: 10, Second: 11, Count: 2},
			{First: 10, Second: 12, Count: 1},
		}, tracker.GatherBigrams(10))

		assert.Equal(t, []model.BigramCount{
			{First: 11, Second: 10, Count: 1},
		}, tracker.GatherBigrams(11))

		assert.Equal(t, []model.BigramCount{
			{First: 12, Second: 10, Count: 1},
		}, tracker.GatherBigrams(12))

		assert.Equal(t, []model.BigramCount{
			{First: 10, Second: 11, Count: 2},
			{First: 10, Second: 12, Count: 1},
		}, tracker.GatherTopBigrams(2))
	})

	t.Run("seeds from stored history", func(t *testing.T) {
		storage := memStorage(t)

		for _, kc := range []uint32{5, 6, 5} {
			require.NoError(t, storage.Store(press(xkb.KeyCode(kc), 0, 0)))
			require.NoError(t, storage.Store(release(xkb.KeyCode(kc))))
		}

		tracker, err := db.NewBigramTrackerFromDB(storage)
		require.NoError(t, err)

		time.Sleep(120 * time.Millisecond)

		assert.Equal(t, []model.BigramCount{
			{First: 5, Second: 6, Count: 1},
		}, tracker.GatherBigrams(5))

		assert.Equal(t, []model.BigramCount{
			{First: 6, Second: 5, Count: 1},
		}, tracker.GatherBigrams(6))
	})
}
