// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for per-subscriber event channels
	EventChannelBuffer = 100

	// SSEKeepaliveInterval is how often an idle event stream receives a comment line
	SSEKeepaliveInterval = 15 * time.Second
)

// Job constants
const (
	// MaxRunBodyBytes caps the size of a frames document accepted over HTTP
	MaxRunBodyBytes = 64 << 20

	// FinishedJobRetention is how long completed runs stay queryable
	FinishedJobRetention = 30 * time.Minute
)

// Server timeouts
const (
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second
)
