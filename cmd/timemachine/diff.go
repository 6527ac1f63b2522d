package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masiedu4/timemachine/internal/tmerrors"
)

var diffCmd = &cobra.Command{
	Use:   "diff <root> <id1> <id2>",
	Short: "Show file-level differences between two snapshots",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		id1, err := strconv.Atoi(args[1])
		if err != nil {
			return exitError(tmerrors.InvalidPath(args[1]))
		}
		id2, err := strconv.Atoi(args[2])
		if err != nil {
			return exitError(tmerrors.InvalidPath(args[2]))
		}

		e, err := newEngine(root)
		if err != nil {
			return exitError(err)
		}

		changes, err := e.Diff(id1, id2)
		if err != nil {
			return exitError(err)
		}

		if viper.GetBool("json") {
			return printJSON(changes)
		}
		printChanges(changes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
