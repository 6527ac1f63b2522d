package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status <root>",
	Short: "Show changes since the latest snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		e, err := newEngine(root)
		if err != nil {
			return exitError(err)
		}

		changes, err := e.Status(cmd.Context())
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
	rootCmd.AddCommand(statusCmd)
}
