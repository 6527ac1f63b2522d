package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <root>",
	Short: "Record a snapshot of the tracked directory's current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		e, err := newEngine(root)
		if err != nil {
			return exitError(err)
		}

		id, err := e.Snapshot(cmd.Context())
		if err != nil {
			return exitError(err)
		}

		if viper.GetBool("json") {
			return printJSON(map[string]int{"id": id})
		}
		cmd.Printf("snapshot %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
