//go:build !linux

package base

// currentThreadID is not available on this platform, 0 is stored as NULL
func currentThreadID() int64 {
	return 0
}
