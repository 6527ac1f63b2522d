package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listDetailed bool

var listCmd = &cobra.Command{
	Use:   "list <root>",
	Short: "List recorded snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		e, err := newEngine(root)
		if err != nil {
			return exitError(err)
		}

		infos, err := e.List(listDetailed)
		if err != nil {
			return exitError(err)
		}

		if viper.GetBool("json") {
			return printJSON(infos)
		}
		printSnapshotTable(infos, listDetailed)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listDetailed, "detailed", false, "include unique/shared on-disk size per snapshot")
	rootCmd.AddCommand(listCmd)
}
