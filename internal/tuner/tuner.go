// Package tuner detects system resources and calculates worker pool sizes
// for the Scanner's parallel directory walk and content hashing.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the available (free) RAM in bytes. May be an
	// estimate based on system heuristics.
	AvailableRAM int64
}
