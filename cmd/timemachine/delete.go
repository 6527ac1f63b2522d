package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masiedu4/timemachine/internal/tmerrors"
)

var deleteCleanup bool

var deleteCmd = &cobra.Command{
	Use:   "delete <root> <id>",
	Short: "Delete a snapshot and reclaim its unshared content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		id, err := strconv.Atoi(args[1])
		if err != nil {
			return exitError(tmerrors.InvalidPath(args[1]))
		}

		e, err := newEngine(root)
		if err != nil {
			return exitError(err)
		}

		result, err := e.Delete(id, deleteCleanup)
		if err != nil {
			return exitError(err)
		}

		if viper.GetBool("json") {
			return printJSON(result)
		}
		cmd.Printf("removed %d objects, freed %d bytes\n", result.ObjectsRemoved, result.BytesFreed)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteCleanup, "cleanup", false, "reclaim this snapshot's now-unreferenced content immediately regardless of threshold")
	rootCmd.AddCommand(deleteCmd)
}
