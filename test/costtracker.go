package test

import (
	"runtime"
	"time"

	"github.com/relex/sqldb-logging/util"
	"golang.org/x/sys/unix"
)

// CostTracker tracks CPU usage and memory allocations
type CostTracker struct {
	initRealTime      time.Time
	initUserTime      time.Time
	initSystemTime    time.Time
	initNumHeapAllocs uint64
}

// CostReport contains measurements since StartCostTracking
type CostReport struct {
	RealTime      time.Duration
	UserTime      time.Duration
	SystemTime    time.Duration
	NumHeapAllocs uint64
	GCCPUFraction float64
}

// StartCostTracking creates a cost tracker and starts tracking
func StartCostTracking() *CostTracker {
	runtime.GC()
	ct := &CostTracker{}
	ct.initRealTime = time.Now()
	ct.initUserTime, ct.initSystemTime = readCPUTimes()
	{
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		ct.initNumHeapAllocs = memStats.Mallocs
	}
	return ct
}

// Report reports measurements since tracking started
func (ct *CostTracker) Report() CostReport {
	runtime.GC()
	var report CostReport
	report.RealTime = time.Since(ct.initRealTime)
	{
		user, system := readCPUTimes()
		report.UserTime = user.Sub(ct.initUserTime)
		report.SystemTime = system.Sub(ct.initSystemTime)
	}
	{
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		report.NumHeapAllocs = memStats.Mallocs - ct.initNumHeapAllocs
		report.GCCPUFraction = memStats.GCCPUFraction
	}
	return report
}

func readCPUTimes() (time.Time, time.Time) {
	var rusage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &rusage); err != nil {
		panic("failed to get resource usage: " + err.Error())
	}
	return util.TimeFromTimeval(rusage.Utime), util.TimeFromTimeval(rusage.Stime)
}
