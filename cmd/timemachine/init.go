package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:   "init <root>",
	Short: "Start tracking a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		e, err := newEngine(root)
		if err != nil {
			return exitError(err)
		}

		if err := e.Init(); err != nil {
			return exitError(err)
		}

		if viper.GetBool("json") {
			return printJSON(map[string]string{"status": "initialized", "root": root})
		}
		cmd.Printf("initialized %s\n", root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
