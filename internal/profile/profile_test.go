package profile

import (
	"encoding/json"
	"testing"

	"github.com/profilekit/mergeprof/internal/testutil"
)

func TestPIDUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  PID
	}{
		{
			name:  "numeric pid",
			input: `1234`,
			want:  PID("1234"),
		},
		{
			name:  "string pid",
			input: `"1234"`,
			want:  PID("1234"),
		},
		{
			name:  "rewritten pid",
			input: `"1234 from profile 1"`,
			want:  PID("1234 from profile 1"),
		},
		{
			name:  "null leaves the pid empty",
			input: `null`,
			want:  PID(""),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var p PID
			err := json.Unmarshal([]byte(test.input), &p)
			if err != nil {
				t.Fatalf("we should be able to unmarshal the pid: %v", err)
			}
			if diff := testutil.Diff(p, test.want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestThreadClone(t *testing.T) {
	shutdown := 50.0
	prefix := 0
	category := 2
	original := Thread{
		Name: "GeckoMain",
		PID:  "1234",
		StackTable: StackTable{
			Category: []int{0, 1},
			Frame:    []int{0, 1},
			Length:   2,
			Prefix:   []*int{nil, &prefix},
		},
		FrameTable: FrameTable{
			Category: []*int{&category, nil},
			Func:     []int{0, 1},
			Length:   2,
		},
		Samples: SamplesTable{
			Length: 2,
			Stack:  []int{0, 1},
			Time:   []float64{10, 11},
		},
		ProcessShutdownTime: &shutdown,
	}

	clone := original.Clone()
	if diff := testutil.Diff(clone, original); diff != "" {
		t.Fatalf("clone should equal the original: got - want +\n%s", diff)
	}

	clone.StackTable.Category[0] = 9
	*clone.StackTable.Prefix[1] = 9
	*clone.FrameTable.Category[0] = 9
	clone.Samples.Time[0] = 9
	*clone.ProcessShutdownTime = 9

	if original.StackTable.Category[0] != 0 ||
		*original.StackTable.Prefix[1] != 0 ||
		*original.FrameTable.Category[0] != 2 ||
		original.Samples.Time[0] != 10 ||
		*original.ProcessShutdownTime != 50 {
		t.Fatal("mutating the clone should not touch the original")
	}
}

func TestStoragePath(t *testing.T) {
	path := StoragePath(1, 2, "a1b2c3d4-e5f6-4a5b-8c9d-0e1f2a3b4c5d")
	want := "1/2/a1b2c3d4e5f64a5b8c9d0e1f2a3b4c5d"
	if path != want {
		t.Fatalf("wrong storage path: got %s want %s", path, want)
	}
}
