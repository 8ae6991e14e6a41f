package xkbstate

import (
	"fmt"
	"log/slog"

	"github.com/dasdy/xkbstate/db"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// replayCmd represents the replay command.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run a transition log against a keymap",
	Long: `Drive a fresh state through every stored press and release and compare the
result against what was recorded. Divergence means the log was recorded with
a different keymap than the one given here.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		km, err := loadKeymap(keymapFile)
		if err != nil {
			return err
		}

		storage, err := db.NewStorageFromPath(storagePath, true)
		if err != nil {
			return fmt.Errorf("could not open %s as sqlite file: %w", storagePath, err)
		}
		defer storage.Close()

		iterator, err := storage.AllIterator()
		if err != nil {
			return fmt.Errorf("could not read transition log %s: %w", storagePath, err)
		}

		state := xkb.NewState(km)
		bar := progressbar.Default(-1, "Replaying...")

		total := 0
		diverged := 0

		var activations [xkb.NumRealMods]int

		for item := range iterator {
			if err := bar.Add(1); err != nil {
				slog.Error("could not update progress bar", "error", err)
			}

			direction := xkb.KeyUp
			if item.Pressed {
				direction = xkb.KeyDown
			}

			changed := state.UpdateKey(item.Keycode, direction)
			after := state.Components()
			total++

			for i := range xkb.NumRealMods {
				if after.ModsEffective&(1<<uint(i)) != 0 {
					activations[i]++
				}
			}

			if changed == item.Changed && after == item.After {
				continue
			}

			diverged++
			if verbose {
				slog.Warn("transition diverged",
					"keycode", item.Keycode,
					"key", keyLabel(km, item.Keycode),
					"direction", direction,
					"recorded at", item.Timestamp,
					"stored mods", item.After.ModsEffective,
					"replayed mods", after.ModsEffective,
					"stored group", item.After.GroupEffective,
					"replayed group", after.GroupEffective)
			}
		}

		if err := bar.Finish(); err != nil {
			slog.Error("could not finish progress bar", "error", err)
		}

		final := state.Components()
		fmt.Printf("replayed %d transitions, %d diverged\n", total, diverged)
		fmt.Printf("final mods %s, group %s\n", final.ModsEffective, groupLabel(km, int32(final.GroupEffective)))

		fmt.Printf("\nModifier activity\n")
		for i, count := range activations {
			if count == 0 {
				continue
			}

			fmt.Printf("%8d  %s\n", count, xkb.ModMask(1<<uint(i)))
		}

		if diverged > 0 {
			return fmt.Errorf("log %s does not match keymap %q: %d of %d transitions diverged", storagePath, km.Name(), diverged, total)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(
		&storagePath,
		"storage",
		"s",
		defaultStoragePath(),
		"Path to the transition log")

	replayCmd.Flags().StringVar(
		&keymapFile,
		"keymap",
		"",
		"Path to a keymap document (built-in layout when empty)")

	replayCmd.Flags().BoolVarP(&verbose,
		"verbose",
		"v",
		false,
		"Report every diverging transition")
}
