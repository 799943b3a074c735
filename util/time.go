package util

import (
	"time"

	"golang.org/x/sys/unix"
)

// TimeFromTimeval creates a Time structure from unix.Timeval
func TimeFromTimeval(val unix.Timeval) time.Time {
	s, ns := val.Unix()
	return time.Unix(s, ns)
}

// TimeToUnixFloat creates Unix epoch seconds from a Time structure
func TimeToUnixFloat(tm time.Time) float64 {
	return float64(tm.UnixNano()) / 1000000000.0
}
