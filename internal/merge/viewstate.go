package merge

import (
	"encoding/json"

	"github.com/profilekit/mergeprof/internal/timerange"
)

type (
	// ViewState is the caller-owned view state attached to one input
	// profile. The engine only reads it: the selected thread, the top of
	// the committed-range stack, and the metadata it passes through to
	// the caller. Transform stacks and the implementation filter are
	// opaque here.
	ViewState struct {
		CommittedRanges      []timerange.Range       `json:"committedRanges,omitempty"`
		ImplementationFilter string                  `json:"implementationFilter,omitempty"`
		SelectedThread       *int                    `json:"selectedThread"`
		Transforms           map[int]json.RawMessage `json:"transforms,omitempty"`
	}
)

// lastCommittedRange returns the most recently committed range, if any.
// At most this one entry is consumed per input during a merge.
func (s ViewState) lastCommittedRange() (timerange.Range, bool) {
	if len(s.CommittedRanges) == 0 {
		return timerange.Range{}, false
	}
	return s.CommittedRanges[len(s.CommittedRanges)-1], true
}
