package xkbstate

import (
	"fmt"

	"github.com/dasdy/xkbstate/db"
	"github.com/dasdy/xkbstate/keylog"
	"github.com/dasdy/xkbstate/keylog/ports"
	"github.com/dasdy/xkbstate/tui"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

// interactiveCmd represents the interactive command.
var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Track with a live state view",
	Long: `Like track, but the terminal shows the running modifier, group and LED
state plus the latest key events. The terminal is taken over by the view, so
input must come from device files rather than stdin.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if len(filenames) == 0 {
			names, err := ports.GetAvailableDevices()
			if err != nil {
				return fmt.Errorf("interactive mode reads from device files, pass them with --file (no devices found: %w)", err)
			}

			return fmt.Errorf("interactive mode reads from device files, pass them with --file. Maybe try: %+v", names)
		}

		km, err := loadKeymap(keymapFile)
		if err != nil {
			return err
		}

		ch, closer, err := ports.OpenAll(filenames...)
		if err != nil {
			return fmt.Errorf("could not open files: %w", err)
		}
		defer closer()

		storage, err := db.NewStorageFromPath(storagePath, false)
		if err != nil {
			return fmt.Errorf("could not open %s as sqlite file: %w", storagePath, err)
		}
		defer storage.Close()

		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("could not create screen: %w", err)
		}

		// Verbose logging is forced off: log lines and the drawn screen
		// would fight over the same terminal.
		loop := keylog.NewLoop(km, baseKeycodeFor(km), storage, nil, false)
		monitor := tui.NewMonitor(loop, km, screen)
		loop.AddTracker(monitor)

		return monitor.Run(ch)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)

	interactiveCmd.Flags().StringSliceVarP(
		&filenames,
		"file",
		"f",
		[]string{},
		"List of device files to get input from",
	)

	interactiveCmd.Flags().StringVarP(
		&storagePath,
		"out",
		"o",
		defaultStoragePath(),
		"Output path for the transition log")

	interactiveCmd.Flags().StringVar(
		&keymapFile,
		"keymap",
		"",
		"Path to a keymap document (built-in layout when empty)")

	interactiveCmd.Flags().IntVar(
		&baseKeycode,
		"base-keycode",
		0,
		"Keycode of firmware position 0 (keymap minimum when 0)")
}
