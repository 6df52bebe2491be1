package merge

import (
	"github.com/profilekit/mergeprof/internal/profile"
	"github.com/profilekit/mergeprof/internal/timerange"
)

// applyCommittedRange crops the thread to the view state's most recently
// committed range, if there is one. The range is relative to the source
// profile's own zero point, which is the earliest time across all of its
// threads, not just the selected one.
func applyCommittedRange(p profile.Profile, t profile.Thread, state ViewState) profile.Thread {
	r, ok := state.lastCommittedRange()
	if !ok {
		return t
	}
	zeroAt := timerange.IncludingAllThreads(p).Start
	return timerange.FilterThreadSamples(t, zeroAt+r.Start, zeroAt+r.End)
}
