package merge

import (
	"fmt"

	"github.com/profilekit/mergeprof/internal/profile"
	"github.com/profilekit/mergeprof/internal/timerange"
)

// normalizeThread prepares a category-remapped, range-filtered thread for
// inclusion in the merged profile. Every merged thread starts at t=0
// independently, so traces captured at different absolute times can be
// compared side by side. ordinal is the thread's 0-based position among
// the inputs; interval is the source profile's sampling interval.
func normalizeThread(t *profile.Thread, ordinal int, interval float64) {
	var offset float64
	if len(t.Samples.Time) > 0 {
		offset = -t.Samples.Time[0]
	}

	for i := range t.Samples.Time {
		t.Samples.Time[i] += offset
	}
	for i := range t.Markers.Time {
		t.Markers.Time[i] += offset
	}
	t.RegisterTime += offset
	t.ProcessStartupTime += offset
	if t.ProcessShutdownTime != nil {
		*t.ProcessShutdownTime += offset
	}
	if t.UnregisterTime != nil {
		*t.UnregisterTime += offset
	}

	// A thread that never recorded an explicit end gets one synthesized
	// from its own active range, so a shorter trace still shows where it
	// ended when displayed alongside a longer one.
	if t.ProcessShutdownTime == nil && t.UnregisterTime == nil {
		end := timerange.ForThread(*t, interval).End
		t.UnregisterTime = &end
	}

	// 1-based ordinals in the rewritten identity, so two inputs sharing a
	// pid can never collide in the merged profile.
	t.PID = profile.PID(fmt.Sprintf("%s from profile %d", t.PID, ordinal+1))
	processName := t.ProcessName
	if processName == "" {
		processName = t.Name
	}
	t.ProcessName = fmt.Sprintf("Profile %d: %s", ordinal+1, processName)
}
