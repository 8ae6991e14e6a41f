// Package xkbstate wires the command line interface: tracking, statistics,
// replay, keymap inspection, and log maintenance.
package xkbstate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dasdy/xkbstate/layout"
	"github.com/dasdy/xkbstate/xkb"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "xkbstate",
	Short: "Track keyboard state and keystroke statistics",
	Long: `xkbstate follows a keyboard the way the X keyboard extension does: every
press and release runs through a compiled keymap, advancing modifier and
group state, and the resulting transitions are logged to a sqlite file for
later statistics, replay checks, and live inspection.`,
	PersistentPreRun: bindFlags,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.xkbstate.toml)")
}

func initConfig() {
	if cfgFile != "" {
		slog.Debug("using config file from flag", "path", cfgFile)
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".xkbstate" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName(".xkbstate")
	}

	viper.SetEnvPrefix("xkbstate")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			createExampleConfig()
		} else {
			slog.Error("could not read config file", "error", err)
			os.Exit(1)
		}
	}
}

func createExampleConfig() {
	exampleConfig := `
verbose = false
`
	configPath := "./.xkbstate.toml"

	err := os.WriteFile(configPath, []byte(exampleConfig), 0o644)
	if err != nil {
		slog.Error("could not create example config file", "error", err)
		os.Exit(1)
	}

	slog.Info("example config file created", "path", configPath)
}

// set values to the PFlag variables from config, if they are set. Priority is still given to explicitly provided CLI flags.
func bindFlags(cmd *cobra.Command, _ []string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Viper compares keys case-insensitively, so stripping hyphens is
		// enough to match camelCased config entries.
		configName := strings.ReplaceAll(f.Name, "-", "")

		if !f.Changed && viper.IsSet(configName) {
			val := viper.Get(configName)

			err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			if err != nil {
				slog.Error("could not bind flag to config value", "flag", f.Name, "error", err)
				panic(err)
			}

			slog.Debug("flag bound to config value", "flag", f.Name, "value", val)
		}
	})
}

// loadKeymap compiles the keymap the commands operate on: the file given by
// the flag, or the built-in layout when the flag is empty.
func loadKeymap(path string) (*xkb.Keymap, error) {
	if path == "" {
		return layout.Default()
	}

	km, err := layout.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("could not load keymap %s: %w", path, err)
	}

	return km, nil
}

func defaultStoragePath() string {
	path, err := xdg.DataFile("xkbstate/keystrokes.sqlite")
	if err != nil {
		return "./keystrokes.sqlite"
	}

	return path
}

// baseKeycodeFor translates the base-keycode flag: zero means positions start
// at the keymap's first keycode.
func baseKeycodeFor(km *xkb.Keymap) xkb.KeyCode {
	if baseKeycode > 0 {
		return xkb.KeyCode(baseKeycode)
	}

	return km.MinKeycode()
}
