package timerange

import (
	"math"

	"github.com/profilekit/mergeprof/internal/profile"
)

type (
	// Range is an absolute time window. Start is inclusive, End exclusive.
	Range struct {
		End   float64 `json:"end"`
		Start float64 `json:"start"`
	}
)

// ForThread returns the thread's own active time bounds, accounting for the
// sampling interval at the trailing edge: the last sample covers one more
// interval of activity. Both samples and markers contribute.
func ForThread(t profile.Thread, interval float64) Range {
	start := math.Inf(1)
	end := math.Inf(-1)
	if len(t.Samples.Time) > 0 {
		start = math.Min(start, t.Samples.Time[0])
		end = math.Max(end, t.Samples.Time[len(t.Samples.Time)-1]+interval)
	}
	for _, mt := range t.Markers.Time {
		start = math.Min(start, mt)
		end = math.Max(end, mt)
	}
	if start > end {
		// no samples and no markers
		return Range{Start: 0, End: interval}
	}
	return Range{Start: start, End: end}
}

// IncludingAllThreads returns the time bounds across every thread of the
// profile, not just one of them.
func IncludingAllThreads(p profile.Profile) Range {
	r := Range{Start: math.Inf(1), End: math.Inf(-1)}
	for _, t := range p.Threads {
		tr := ForThread(t, p.Meta.Interval)
		r.Start = math.Min(r.Start, tr.Start)
		r.End = math.Max(r.End, tr.End)
	}
	if r.Start > r.End {
		return Range{Start: 0, End: p.Meta.Interval}
	}
	return r
}

// FilterThreadSamples returns a thread whose samples and markers are
// restricted to [start, end), preserving every other field.
func FilterThreadSamples(t profile.Thread, start, end float64) profile.Thread {
	filtered := t
	filtered.Samples = profile.SamplesTable{
		Stack: make([]int, 0, len(t.Samples.Stack)),
		Time:  make([]float64, 0, len(t.Samples.Time)),
	}
	for i, st := range t.Samples.Time {
		if st >= start && st < end {
			filtered.Samples.Stack = append(filtered.Samples.Stack, t.Samples.Stack[i])
			filtered.Samples.Time = append(filtered.Samples.Time, st)
		}
	}
	filtered.Samples.Length = len(filtered.Samples.Time)

	filtered.Markers = profile.MarkerTable{
		Name: make([]string, 0, len(t.Markers.Name)),
		Time: make([]float64, 0, len(t.Markers.Time)),
	}
	for i, mt := range t.Markers.Time {
		if mt >= start && mt < end {
			filtered.Markers.Name = append(filtered.Markers.Name, t.Markers.Name[i])
			filtered.Markers.Time = append(filtered.Markers.Time, mt)
		}
	}
	filtered.Markers.Length = len(filtered.Markers.Time)

	return filtered
}
