//go:build linux

package base

import (
	"golang.org/x/sys/unix"
)

// currentThreadID returns the ID of the OS thread running the current goroutine at the moment of call
//
// Goroutines migrate between threads so the value is informational only
func currentThreadID() int64 {
	return int64(unix.Gettid())
}
