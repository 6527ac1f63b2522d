package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <root>",
	Short: "Reclaim every content object no snapshot references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		e, err := newEngine(root)
		if err != nil {
			return exitError(err)
		}

		result, err := e.Cleanup()
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
	rootCmd.AddCommand(cleanupCmd)
}
