package xkbstate

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dasdy/xkbstate/db"
	"github.com/dasdy/xkbstate/keylog"
	"github.com/dasdy/xkbstate/keylog/ports"
	"github.com/dasdy/xkbstate/logging"
	"github.com/spf13/cobra"
)

// trackCmd represents the track command.
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Connect to attached keyboards and log state transitions",
	Long: `Read firmware log lines from the given device files, or from stdin when no
files are given. Every key event advances the keymap state and the resulting
transition is appended to a sqlite file.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := logging.PackageCtx("track")

		km, err := loadKeymap(keymapFile)
		if err != nil {
			return err
		}

		var ch <-chan string

		switch {
		case watch:
			slog.InfoContext(ctx, "watching for keyboards")

			ch = ports.NewMonitor().Watch(cmd.Context())
		case len(filenames) == 0:
			names, err := ports.GetAvailableDevices()
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "no input files given, reading stdin", "suggested devices", names)

			ch = ports.ReadFile(os.Stdin)
		default:
			var closer func()
			ch, closer, err = ports.OpenAll(filenames...)
			if err != nil {
				// Try suggesting devices
				names, errInner := ports.GetAvailableDevices()
				if errInner != nil {
					return fmt.Errorf("could not open files: %w; could not suggest devices: %w", err, errInner)
				}

				if len(names) > 0 {
					return fmt.Errorf("could not open files: %w. Maybe try instead: %+v", err, names)
				}

				return fmt.Errorf("could not open files: %w. It does not seem like any keyboard is connected", err)
			}
			defer closer()
		}

		slog.InfoContext(ctx, "opening log", "path", storagePath)
		storage, err := db.NewStorageFromPath(storagePath, false)
		if err != nil {
			return fmt.Errorf("could not open %s as sqlite file: %w", storagePath, err)
		}
		defer storage.Close()

		loop := keylog.NewLoop(km, baseKeycodeFor(km), storage, nil, verbose)
		loop.Run(ch)

		return nil
	},
}

var (
	filenames   []string
	storagePath string
	keymapFile  string
	baseKeycode int
	verbose     bool
	watch       bool
)

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringSliceVarP(
		&filenames,
		"file",
		"f",
		[]string{},
		"List of device files to get input from",
	)

	trackCmd.Flags().StringVarP(
		&storagePath,
		"out",
		"o",
		defaultStoragePath(),
		"Output path for the transition log")

	trackCmd.Flags().StringVar(
		&keymapFile,
		"keymap",
		"",
		"Path to a keymap document (built-in layout when empty)")

	trackCmd.Flags().IntVar(
		&baseKeycode,
		"base-keycode",
		0,
		"Keycode of firmware position 0 (keymap minimum when 0)")

	trackCmd.Flags().BoolVar(
		&watch,
		"watch",
		false,
		"Poll for keyboards appearing and reopen them after replugs (ignores --file)")

	trackCmd.Flags().BoolVarP(&verbose,
		"verbose",
		"v",
		false,
		"If provided, debug output will be shown")
}
