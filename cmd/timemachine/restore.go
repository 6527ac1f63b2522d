package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masiedu4/timemachine/internal/tmerrors"
)

var (
	restoreDryRun bool
	restoreForce  bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore <root> <id>",
	Short: "Restore the tracked directory to match a prior snapshot",
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

		plan, err := e.Restore(cmd.Context(), id, restoreDryRun, restoreForce)
		if err != nil {
			return exitError(err)
		}

		if viper.GetBool("json") {
			return printJSON(plan)
		}

		if restoreDryRun {
			cmd.Println("dry run, no changes applied")
		}
		for _, p := range plan.Create {
			cmd.Printf("create:    %s\n", p)
		}
		for _, p := range plan.Overwrite {
			cmd.Printf("overwrite: %s\n", p)
		}
		for _, p := range plan.Delete {
			cmd.Printf("delete:    %s\n", p)
		}
		if plan.BackupID != nil {
			cmd.Printf("backed up dirty state as snapshot %d\n", *plan.BackupID)
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "compute the restore plan without applying it")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "snapshot uncommitted changes before restoring")
	rootCmd.AddCommand(restoreCmd)
}
