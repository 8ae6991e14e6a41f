package db

import (
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/dasdy/xkbstate/model"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/schollz/progressbar/v3"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db *sql.DB
}

// NewStorageFromPath opens or creates a transition log at path. With
// readOnly set the schema is left untouched, so opening someone else's log
// never modifies it.
func NewStorageFromPath(path string, readOnly bool) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", path, err)
	}

	storage, err := NewStorageFromConnection(conn, readOnly)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not initialize database %s: %w", path, err)
	}

	return storage, nil
}

func NewStorageFromConnection(conn *sql.DB, readOnly bool) (*SQLiteStorage, error) {
	// One pooled connection only: sqlite allows a single writer, and a
	// second connection to a :memory: database would see a separate, empty
	// database.
	conn.SetMaxOpenConns(1)

	if !readOnly {
		if err := migrateUp(conn); err != nil {
			return nil, err
		}
	}

	return &SQLiteStorage{conn}, nil
}

func (s *SQLiteStorage) Store(tr *model.Transition) error {
	return s.storeAt(tr, time.Now().UTC())
}

func (s *SQLiteStorage) storeAt(tr *model.Transition, ts time.Time) error {
	_, err := s.db.Exec(`insert into transitions(
	    keycode, pressed, changed,
	    mods_depressed, mods_latched, mods_locked, mods_effective,
	    group_depressed, group_latched, group_locked, group_effective,
	    leds, ts)
	    values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.Keycode, tr.Pressed, tr.Changed,
		tr.After.ModsDepressed, tr.After.ModsLatched, tr.After.ModsLocked, tr.After.ModsEffective,
		tr.After.GroupDepressed, tr.After.GroupLatched, tr.After.GroupLocked, tr.After.GroupEffective,
		tr.After.LEDs, ts)
	if err != nil {
		return fmt.Errorf("could not store transition: %w", err)
	}

	return nil
}

// AllIterator yields every stored transition in timestamp order. Scan
// failures end the sequence early.
func (s *SQLiteStorage) AllIterator() (iter.Seq[model.TransitionWithTimestamp], error) {
	rows, err := s.db.Query(`select
	    keycode, pressed, changed,
	    mods_depressed, mods_latched, mods_locked, mods_effective,
	    group_depressed, group_latched, group_locked, group_effective,
	    leds, ts
	    from transitions order by ts`)
	if err != nil {
		return nil, fmt.Errorf("could not query transitions: %w", err)
	}

	return func(yield func(model.TransitionWithTimestamp) bool) {
		defer rows.Close()

		for rows.Next() {
			var item model.TransitionWithTimestamp

			err := rows.Scan(
				&item.Keycode, &item.Pressed, &item.Changed,
				&item.After.ModsDepressed, &item.After.ModsLatched,
				&item.After.ModsLocked, &item.After.ModsEffective,
				&item.After.GroupDepressed, &item.After.GroupLatched,
				&item.After.GroupLocked, &item.After.GroupEffective,
				&item.After.LEDs, &item.Timestamp)
			if err != nil {
				slog.Error("could not scan transition row", "error", err)
				return
			}

			if !yield(item) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			slog.Error("could not iterate transitions", "error", err)
		}
	}, nil
}

func (s *SQLiteStorage) GatherKeycodeCounts() ([]model.KeycodeCount, error) {
	rows, err := s.db.Query(
		`select keycode, count(*) as cnt
        from transitions
        where pressed = true
        group by keycode
        order by cnt desc, keycode`)
	if err != nil {
		return nil, fmt.Errorf("could not gather keycode counts: %w", err)
	}

	defer rows.Close()

	result := make([]model.KeycodeCount, 0)

	for rows.Next() {
		var item model.KeycodeCount

		if err := rows.Scan(&item.Keycode, &item.Count); err != nil {
			return nil, fmt.Errorf("could not scan keycode count: %w", err)
		}

		result = append(result, item)
	}

	return result, rows.Err()
}

func (s *SQLiteStorage) GatherGroupCounts() ([]model.GroupCount, error) {
	rows, err := s.db.Query(
		`select group_effective, count(*) as cnt
        from transitions
        where pressed = true
        group by group_effective
        order by group_effective`)
	if err != nil {
		return nil, fmt.Errorf("could not gather group counts: %w", err)
	}

	defer rows.Close()

	result := make([]model.GroupCount, 0)

	for rows.Next() {
		var item model.GroupCount

		if err := rows.Scan(&item.Group, &item.Count); err != nil {
			return nil, fmt.Errorf("could not scan group count: %w", err)
		}

		result = append(result, item)
	}

	return result, rows.Err()
}

func (s *SQLiteStorage) GatherModifierCounts() ([]model.ModifierCount, error) {
	result := make([]model.ModifierCount, 0, xkb.NumRealMods)

	for i := 0; i < xkb.NumRealMods; i++ {
		mask := xkb.ModMask(1) << uint(i)

		var count int

		err := s.db.QueryRow(
			`select count(*) from transitions
            where pressed = true and (mods_effective & ?) != 0`,
			uint32(mask)).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("could not count modifier %s: %w", mask, err)
		}

		result = append(result, model.ModifierCount{Modifier: mask.String(), Count: count})
	}

	return result, nil
}

func (s *SQLiteStorage) Close() {
	s.db.Close()
}

// Merge copies every transition of the input logs into output, keeping the
// original timestamps so the merged history still replays in order.
func Merge(inputs []*SQLiteStorage, output *SQLiteStorage) error {
	bar := progressbar.Default(-1, "Merging logs...")

	for _, input := range inputs {
		iterator, err := input.AllIterator()
		if err != nil {
			return err
		}

		for item := range iterator {
			if err := output.storeAt(&item.Transition, item.Timestamp); err != nil {
				return err
			}

			if err := bar.Add(1); err != nil {
				slog.Error("could not update progress bar", "error", err)
			}
		}
	}

	if err := bar.Finish(); err != nil {
		slog.Error("could not finish progress bar", "error", err)
	}

	return nil
}
