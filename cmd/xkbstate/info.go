package xkbstate

import (
	"fmt"
	"os"
	"strings"

	"github.com/dasdy/xkbstate/layout"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Inspect a compiled keymap",
	Long: `Compile a keymap document and print what came out: modifiers with their real
mappings, groups, key types, LED conditions. With --format yaml the resolved
keymap is written back as a document.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		km, err := loadKeymap(keymapFile)
		if err != nil {
			return err
		}

		switch format {
		case "yaml":
			return layout.Save(os.Stdout, km)
		case "text":
			printKeymap(km)

			if keycodeArg >= 0 {
				return printKey(km, xkb.KeyCode(keycodeArg))
			}

			return nil
		default:
			return fmt.Errorf("unknown format %q, want text or yaml", format)
		}
	},
}

var (
	format     string
	keycodeArg int
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringVar(
		&keymapFile,
		"keymap",
		"",
		"Path to a keymap document (built-in layout when empty)")

	infoCmd.Flags().StringVar(
		&format,
		"format",
		"text",
		"Output format: text or yaml")

	infoCmd.Flags().IntVar(
		&keycodeArg,
		"key",
		-1,
		"Also dump the levels of this keycode")
}

func printKeymap(km *xkb.Keymap) {
	defined := 0
	for range km.Keys() {
		defined++
	}

	fmt.Printf("keymap %q\n", km.Name())
	fmt.Printf("keycodes %d..%d, %d defined\n", km.MinKeycode(), km.MaxKeycode(), defined)

	fmt.Printf("\nModifiers\n")
	for i, mod := range km.Mods() {
		if mod.Virtual {
			fmt.Printf("%4d  %-12s -> %s\n", i, mod.Name, mod.Mapping)
		} else {
			fmt.Printf("%4d  %s\n", i, mod.Name)
		}
	}

	fmt.Printf("\nGroups\n")
	for i, name := range km.GroupNames() {
		fmt.Printf("%4d  %s\n", i+1, name)
	}

	fmt.Printf("\nTypes\n")
	for _, kt := range km.Types() {
		fmt.Printf("  %-16s %d levels, mask %s\n", kt.Name, kt.NumLevels, kt.Mask)
	}

	fmt.Printf("\nLEDs\n")
	for _, led := range km.LEDs() {
		conditions := make([]string, 0, 2)
		if led.WhichMods != 0 {
			conditions = append(conditions, fmt.Sprintf("%s match %s", led.WhichMods, led.Mods))
		}
		if led.WhichGroups != 0 {
			conditions = append(conditions, fmt.Sprintf("%s in %s", led.WhichGroups, groupSetLabel(led.Groups)))
		}
		if len(conditions) == 0 {
			conditions = append(conditions, "never lit")
		}

		fmt.Printf("  %-16s %s\n", led.Name, strings.Join(conditions, ", "))
	}
}

func printKey(km *xkb.Keymap, kc xkb.KeyCode) error {
	key, ok := km.Key(kc)
	if !ok {
		return fmt.Errorf("keycode %d is not defined in keymap %q", kc, km.Name())
	}

	fmt.Printf("\nkeycode %d, repeats %v\n", kc, key.Repeats)

	for g := range km.NumGroupsForKey(kc) {
		group := xkb.GroupIndex(g)

		fmt.Printf("  group %d (%s)\n", g+1, groupLabel(km, int32(g)))

		for l := range km.NumLevelsForKey(kc, group) {
			level := xkb.LevelIndex(l)

			names := make([]string, 0, 1)
			for _, sym := range km.Lookup(kc, group, level) {
				names = append(names, sym.Name())
			}

			line := fmt.Sprintf("    level %d: [%s]", l+1, strings.Join(names, ", "))
			if action := km.KeyAction(kc, group, level); !action.IsNone() {
				line += fmt.Sprintf(" %s", action)
			}

			fmt.Println(line)
		}
	}

	return nil
}

// groupSetLabel renders a group bitmask as 1-based indices.
func groupSetLabel(groups uint32) string {
	names := make([]string, 0, 1)
	for i := range 32 {
		if groups&(1<<i) != 0 {
			names = append(names, fmt.Sprintf("%d", i+1))
		}
	}

	return "{" + strings.Join(names, ", ") + "}"
}
