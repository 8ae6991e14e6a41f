package xkbstate

import (
	"fmt"

	"github.com/dasdy/xkbstate/db"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics from a transition log",
	Long: `Aggregate a log collected by the track command: most pressed keys, group and
modifier usage, chords, and common key pairs. Key labels come from the keymap,
so pass the same keymap the log was recorded with.`,
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

		usage := db.NewUsageTracker()
		bigrams := db.NewBigramTracker()

		iterator, err := storage.AllIterator()
		if err != nil {
			return fmt.Errorf("could not read transition log %s: %w", storagePath, err)
		}

		total := 0
		for item := range iterator {
			usage.HandleTransitionNow(&item.Transition, false)
			bigrams.HandleTransitionNow(&item.Transition, false)
			total++
		}

		fmt.Printf("%d transitions in %s\n", total, storagePath)

		fmt.Printf("\nTop keys\n")
		for _, kc := range usage.GatherKeycodeCounts(topCount) {
			fmt.Printf("%8d  %s\n", kc.Count, keyLabel(km, kc.Keycode))
		}

		fmt.Printf("\nGroups\n")
		for _, gc := range usage.GatherGroupCounts() {
			fmt.Printf("%8d  %s\n", gc.Count, groupLabel(km, gc.Group))
		}

		modifiers, err := storage.GatherModifierCounts()
		if err != nil {
			return fmt.Errorf("could not gather modifier counts: %w", err)
		}

		fmt.Printf("\nModifiers\n")
		for _, mc := range modifiers {
			fmt.Printf("%8d  %s\n", mc.Count, mc.Modifier)
		}

		fmt.Printf("\nChords\n")
		for _, cc := range usage.GatherChordCounts() {
			fmt.Printf("%8d  %s\n", cc.Count, cc.Label)
		}

		fmt.Printf("\nKey pairs\n")
		for _, bc := range bigrams.GatherTopBigrams(topCount) {
			fmt.Printf("%8d  %s %s\n", bc.Count, keyLabel(km, bc.First), keyLabel(km, bc.Second))
		}

		return nil
	},
}

var topCount int

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(
		&storagePath,
		"storage",
		"s",
		defaultStoragePath(),
		"Path to the transition log")

	statsCmd.Flags().StringVar(
		&keymapFile,
		"keymap",
		"",
		"Path to a keymap document (built-in layout when empty)")

	statsCmd.Flags().IntVar(
		&topCount,
		"top",
		10,
		"How many rows to show in ranked sections")
}

// keyLabel names a keycode by its first symbol in the first group.
func keyLabel(km *xkb.Keymap, kc xkb.KeyCode) string {
	syms := km.Lookup(kc, 0, 0)
	if len(syms) == 0 {
		return fmt.Sprintf("keycode %d", kc)
	}

	return syms[0].Name()
}

func groupLabel(km *xkb.Keymap, group int32) string {
	name, err := km.GroupName(xkb.GroupIndex(group))
	if err != nil {
		return fmt.Sprintf("group %d", group)
	}

	return name
}
