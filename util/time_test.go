package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestTimeConversion(t *testing.T) {
	tm := TimeFromTimeval(unix.Timeval{Sec: 1709296245, Usec: 250000})
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 45, 250_000_000, time.UTC), tm.UTC())
	assert.InDelta(t, 1709296245.25, TimeToUnixFloat(tm), 1e-6)
}
