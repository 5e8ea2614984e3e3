package live

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBuildSteps(t *testing.T) {
	tests := []struct {
		name  string
		prev  []string
		next  []string
		want  [][]string
		swaps int
	}{
		{
			name:  "two players trade places",
			prev:  []string{"Alice", "Bob"},
			next:  []string{"Bob", "Alice"},
			want:  [][]string{{"Alice", "Bob"}, {"Bob", "Alice"}},
			swaps: 1,
		},
		{
			name:  "identical order is a single frame",
			prev:  []string{"Alice", "Bob", "Carol"},
			next:  []string{"Alice", "Bob", "Carol"},
			want:  [][]string{{"Alice", "Bob", "Carol"}},
			swaps: 0,
		},
		{
			name:  "empty",
			prev:  nil,
			next:  []string{},
			want:  [][]string{{}},
			swaps: 0,
		},
		{
			name:  "departures dropped and newcomers appended",
			prev:  []string{"A", "B", "C"},
			next:  []string{"C", "D", "A"},
			want:  [][]string{{"A", "C", "D"}, {"C", "D", "A"}},
			swaps: 2,
		},
		{
			name: "full reversal",
			prev: []string{"A", "B", "C", "D"},
			next: []string{"D", "C", "B", "A"},
			want: [][]string{
				{"A", "B", "C", "D"},
				{"B", "C", "D", "A"},
				{"C", "D", "B", "A"},
				{"D", "C", "B", "A"},
			},
			swaps: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSteps(tt.prev, tt.next)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildSteps() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.swaps, CountSwaps(tt.prev, tt.next))
		})
	}
}

func TestBuildStepsProperties(t *testing.T) {
	orders := [][2][]string{
		{{"a", "b", "c", "d", "e"}, {"e", "a", "d", "b", "c"}},
		{{"a", "b", "c"}, {"x", "y", "z"}},
		{{"a"}, {"b", "a", "c", "d"}},
		{{"a", "b", "c", "d"}, {"b"}},
	}

	for _, o := range orders {
		prev, next := o[0], o[1]
		frames := BuildSteps(prev, next)

		assert.NotEmpty(t, frames)
		assert.LessOrEqual(t, len(frames), max(len(next), 1))
		assert.True(t, slices.Equal(frames[len(frames)-1], next), "last frame must equal next order")

		for _, frame := range frames {
			assert.ElementsMatch(t, next, frame)
		}
	}
}

func TestBuildStepsDoesNotMutateInputs(t *testing.T) {
	prev := []string{"A", "B", "C"}
	next := []string{"C", "B", "A"}
	BuildSteps(prev, next)
	assert.Equal(t, []string{"A", "B", "C"}, prev)
	assert.Equal(t, []string{"C", "B", "A"}, next)
}
