package waypoint

import "sync/atomic"

// ShutdownFlag is a shareable, atomic boolean with acquire/release
// ordering between IsShutdown and Set. Once set, it cannot be cleared.
// The zero value is live (not shut down).
type ShutdownFlag struct {
	flag atomic.Bool
}

// NewShutdownFlag returns a fresh, live ShutdownFlag.
func NewShutdownFlag() *ShutdownFlag {
	return &ShutdownFlag{}
}

// IsLive reports whether the flag has not been set.
func (f *ShutdownFlag) IsLive() bool {
	return !f.IsShutdown()
}

// IsShutdown reports whether the flag has been set.
func (f *ShutdownFlag) IsShutdown() bool {
	return f.flag.Load()
}

// Set marks the flag as shut down. Once set, it cannot be unset.
func (f *ShutdownFlag) Set() {
	f.flag.Store(true)
}
