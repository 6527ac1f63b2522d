// Command timemachine is the thin CLI frontend for the versioning engine:
// it parses arguments, calls into internal/engine, and formats the result.
// It owns none of the versioning logic itself.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
