// Package emoji provides the status symbols used in CLI output.
package emoji

// Status symbols.
const (
	// Success marks a completed operation or a configured feed.
	Success = "✓"

	// Error marks a failure or a feed missing credentials.
	Error = "✗"

	// Stop marks a shutdown.
	Stop = "■"

	// Warning marks a non-fatal problem.
	Warning = "!"

	// Optional marks an empty or skipped value.
	Optional = "-"

	// Info marks an informational line.
	Info = "i"

	// Live marks a running server.
	Live = "●"
)
