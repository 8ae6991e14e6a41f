package xkbstate

import (
	"fmt"
	"os"

	"github.com/dasdy/xkbstate/db"
	"github.com/spf13/cobra"
)

// mergeCmd represents the merge command.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge transition logs into one",
	Long:  `Given several log files, create a new one holding the union of their transitions, timestamps preserved.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if len(filenames) == 0 {
			return fmt.Errorf("nothing to merge, pass input logs with --file")
		}

		inputs := make([]*db.SQLiteStorage, len(filenames))
		for i, fn := range filenames {
			store, err := db.NewStorageFromPath(fn, true)
			if err != nil {
				return err
			}
			defer store.Close()
			inputs[i] = store
		}

		if _, err := os.Stat(mergeOut); err == nil {
			return fmt.Errorf("output file %s already exists", mergeOut)
		}

		output, err := db.NewStorageFromPath(mergeOut, false)
		if err != nil {
			return err
		}
		defer output.Close()

		err = db.Merge(inputs, output)
		if err != nil {
			return err
		}

		return nil
	},
}

// Flag registration writes defaults through the bound variable, so the merge
// output cannot share storagePath with the other commands.
var mergeOut string

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringSliceVarP(
		&filenames,
		"file",
		"f",
		[]string{},
		"List of log files to merge",
	)

	mergeCmd.Flags().StringVarP(
		&mergeOut,
		"out",
		"o",
		"./merged.sqlite",
		"Output path for the merged log")
}
