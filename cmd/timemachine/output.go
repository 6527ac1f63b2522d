package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/masiedu4/timemachine/internal/differ"
	"github.com/masiedu4/timemachine/internal/engine"
	"github.com/masiedu4/timemachine/internal/tmerrors"
)

// newTabWriter returns a tabwriter configured for aligned CLI tables.
func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printChanges(c differ.Changes) {
	if c.Empty() {
		fmt.Println("clean, no changes")
		return
	}
	for _, p := range c.Added {
		fmt.Printf("added:    %s\n", p)
	}
	for _, p := range c.Removed {
		fmt.Printf("removed:  %s\n", p)
	}
	for _, p := range c.Modified {
		fmt.Printf("modified: %s\n", p)
	}
}

func printSnapshotTable(infos []engine.SnapshotInfo, detailed bool) {
	w := newTabWriter()
	defer w.Flush()

	if detailed {
		fmt.Fprintln(w, "ID\tTIMESTAMP\tFILES\tSIZE\tUNIQUE\tSHARED")
		for _, info := range infos {
			unique, shared := "-", "-"
			if info.OnDiskSize != nil {
				unique = humanize.IBytes(uint64(*info.OnDiskSize))
			}
			if info.SharedSize != nil {
				shared = humanize.IBytes(uint64(*info.SharedSize))
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n",
				info.ID, info.Timestamp, info.FileCount,
				humanize.IBytes(uint64(info.TotalLogicalSize)), unique, shared)
		}
		return
	}

	fmt.Fprintln(w, "ID\tTIMESTAMP\tFILES\tSIZE")
	for _, info := range infos {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", info.ID, info.Timestamp, info.FileCount,
			humanize.IBytes(uint64(info.TotalLogicalSize)))
	}
}

// exitError prints a human message and the failing error kind's
// identifier, matching spec.md §6's contract that every non-zero exit
// carries the kind alongside the message.
func exitError(err error) error {
	var tmErr *tmerrors.Error
	if errors.As(err, &tmErr) {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", tmErr.Kind, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
