package merge

import (
	"encoding/json"
	"fmt"

	"github.com/profilekit/mergeprof/internal/errorutil"
	"github.com/profilekit/mergeprof/internal/profile"
)

type (
	// Result is the outcome of merging N profiles: one combined profile
	// whose threads appear in input order, plus the per-input transform
	// stack and implementation filter the caller needs for downstream
	// analysis, indexed by input ordinal.
	Result struct {
		ImplementationFilters []string          `json:"implementationFilters"`
		Profile               profile.Profile   `json:"profile"`
		TransformStacks       []json.RawMessage `json:"transformStacks"`
	}
)

// Profiles merges independently captured profiles into one profile for
// side-by-side comparison. Each input contributes the thread selected by
// its view state, cropped to its last committed range if one exists,
// rebased to start at t=0 and renamed so process identities never collide.
// Inputs are never mutated: the engine clones the selected thread before
// touching it. Any failure aborts the whole merge, nothing partial is
// returned.
func Profiles(profiles []profile.Profile, states []ViewState) (Result, error) {
	if len(profiles) != len(states) {
		return Result{}, fmt.Errorf("%d profiles but %d view states: %w", len(profiles), len(states), errorutil.ErrInvalidInput)
	}
	for i, state := range states {
		if state.SelectedThread == nil {
			return Result{}, fmt.Errorf("input %d has no selected thread: %w", i, errorutil.ErrInvalidInput)
		}
		if selected := *state.SelectedThread; selected < 0 || selected >= len(profiles[i].Threads) {
			return Result{}, fmt.Errorf("input %d selects thread %d out of %d: %w", i, selected, len(profiles[i].Threads), errorutil.ErrInvalidInput)
		}
	}

	categoryLists := make([][]profile.Category, 0, len(profiles))
	for _, p := range profiles {
		categoryLists = append(categoryLists, p.Meta.Categories)
	}
	mergedCategories, translations := Categories(categoryLists)

	merged := profile.NewEmpty()
	merged.Meta.Categories = mergedCategories
	// the finest resolution across inputs is the most conservative
	// assumption for display
	for i, p := range profiles {
		if i == 0 || p.Meta.Interval < merged.Meta.Interval {
			merged.Meta.Interval = p.Meta.Interval
		}
	}

	result := Result{
		ImplementationFilters: make([]string, 0, len(profiles)),
		TransformStacks:       make([]json.RawMessage, 0, len(profiles)),
	}
	for i, p := range profiles {
		state := states[i]
		selected := *state.SelectedThread
		if err := checkThreadTables(p.Threads[selected]); err != nil {
			return Result{}, fmt.Errorf("input %d: %w", i, err)
		}
		thread := p.Threads[selected].Clone()

		var err error
		thread.StackTable.Category, err = RemapCategories(thread.StackTable.Category, translations[i])
		if err != nil {
			return Result{}, fmt.Errorf("input %d stack table: %w", i, err)
		}
		thread.FrameTable.Category, err = RemapNullableCategories(thread.FrameTable.Category, translations[i])
		if err != nil {
			return Result{}, fmt.Errorf("input %d frame table: %w", i, err)
		}

		thread = applyCommittedRange(p, thread, state)
		normalizeThread(&thread, i, p.Meta.Interval)

		merged.Threads = append(merged.Threads, thread)
		result.ImplementationFilters = append(result.ImplementationFilters, state.ImplementationFilter)
		result.TransformStacks = append(result.TransformStacks, state.Transforms[selected])
	}

	result.Profile = merged
	return result, nil
}

// checkThreadTables verifies the parallel columns the merge indexes
// through, so a corrupt profile fails the merge instead of panicking.
func checkThreadTables(t profile.Thread) error {
	if len(t.Samples.Stack) != len(t.Samples.Time) {
		return fmt.Errorf("thread has %d sample times but %d sample stacks: %w", len(t.Samples.Time), len(t.Samples.Stack), errorutil.ErrDataIntegrity)
	}
	if len(t.Markers.Name) != len(t.Markers.Time) {
		return fmt.Errorf("thread has %d marker times but %d marker names: %w", len(t.Markers.Time), len(t.Markers.Name), errorutil.ErrDataIntegrity)
	}
	return nil
}
