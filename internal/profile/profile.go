package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultInterval float64 = 1

type (
	// Category is a named classification bucket used to color and group
	// stack samples. Only the name participates in merge identity, the
	// rest rides along untouched.
	Category struct {
		Color         string   `json:"color,omitempty"`
		Name          string   `json:"name"`
		Subcategories []string `json:"subcategories,omitempty"`
	}

	Meta struct {
		Categories []Category `json:"categories"`
		Interval   float64    `json:"interval"`
		Product    string     `json:"product,omitempty"`
		StartTime  float64    `json:"startTime,omitempty"`
		Version    int        `json:"version,omitempty"`
	}

	// StackTable describes call-stack structure as parallel columns.
	// Prefix is nullable: a nil prefix marks a root stack.
	StackTable struct {
		Category []int  `json:"category"`
		Frame    []int  `json:"frame"`
		Length   int    `json:"length"`
		Prefix   []*int `json:"prefix"`
	}

	// FrameTable categories are nullable: a frame without a category
	// inherits one through the stack that references it.
	FrameTable struct {
		Category []*int `json:"category"`
		Func     []int  `json:"func"`
		Length   int    `json:"length"`
	}

	SamplesTable struct {
		Length int       `json:"length"`
		Stack  []int     `json:"stack"`
		Time   []float64 `json:"time"`
	}

	MarkerTable struct {
		Length int       `json:"length"`
		Name   []string  `json:"name"`
		Time   []float64 `json:"time"`
	}

	Thread struct {
		FrameTable          FrameTable   `json:"frameTable"`
		Markers             MarkerTable  `json:"markers"`
		Name                string       `json:"name"`
		PID                 PID          `json:"pid"`
		ProcessName         string       `json:"processName,omitempty"`
		ProcessShutdownTime *float64     `json:"processShutdownTime"`
		ProcessStartupTime  float64      `json:"processStartupTime"`
		RegisterTime        float64      `json:"registerTime"`
		Samples             SamplesTable `json:"samples"`
		StackTable          StackTable   `json:"stackTable"`
		UnregisterTime      *float64     `json:"unregisterTime"`
	}

	Profile struct {
		Meta    Meta     `json:"meta"`
		Threads []Thread `json:"threads"`
	}

	// PID accepts both string and numeric JSON encodings since profiles
	// recorded on some platforms carry numeric pids.
	PID string
)

func (p PID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *PID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		if err != nil {
			return err
		}
		*p = PID(s)
		return nil
	}
	*p = PID(string(b))
	return nil
}

// NewEmpty returns a correctly defaulted profile container to which
// threads can be appended.
func NewEmpty() Profile {
	return Profile{
		Meta: Meta{
			Categories: make([]Category, 0),
			Interval:   DefaultInterval,
		},
		Threads: make([]Thread, 0),
	}
}

// Clone returns a deep copy of the thread. Merging mutates category
// indices, timestamps and identity fields, so it always operates on a
// clone and never on a thread the caller still holds.
func (t Thread) Clone() Thread {
	c := t
	c.StackTable.Category = append([]int(nil), t.StackTable.Category...)
	c.StackTable.Frame = append([]int(nil), t.StackTable.Frame...)
	c.StackTable.Prefix = clonePtrs(t.StackTable.Prefix)
	c.FrameTable.Category = clonePtrs(t.FrameTable.Category)
	c.FrameTable.Func = append([]int(nil), t.FrameTable.Func...)
	c.Samples.Stack = append([]int(nil), t.Samples.Stack...)
	c.Samples.Time = append([]float64(nil), t.Samples.Time...)
	c.Markers.Name = append([]string(nil), t.Markers.Name...)
	c.Markers.Time = append([]float64(nil), t.Markers.Time...)
	if t.ProcessShutdownTime != nil {
		v := *t.ProcessShutdownTime
		c.ProcessShutdownTime = &v
	}
	if t.UnregisterTime != nil {
		v := *t.UnregisterTime
		c.UnregisterTime = &v
	}
	return c
}

func clonePtrs(s []*int) []*int {
	if s == nil {
		return nil
	}
	c := make([]*int, len(s))
	for i, p := range s {
		if p != nil {
			v := *p
			c[i] = &v
		}
	}
	return c
}

// StoragePath is where a profile blob lives in the bucket.
func StoragePath(organizationID, projectID uint64, profileID string) string {
	return fmt.Sprintf("%d/%d/%s", organizationID, projectID, strings.Replace(profileID, "-", "", -1))
}
