package live

import "slices"

// BuildSteps plans the frames of a leaderboard reorder animation.
//
// The first frame is the previous order restricted to entries that still
// exist, followed by newcomers in their new relative order. Each following
// frame is the state after one bubble-sort pass that swapped at least once,
// so there are at most len(nextOrder) frames. The last frame always equals
// nextOrder.
func BuildSteps(previousOrder, nextOrder []string) [][]string {
	start, target := startingOrder(previousOrder, nextOrder)

	frames := [][]string{slices.Clone(start)}
	bubbleSort(start, target, func() {
		frames = append(frames, slices.Clone(start))
	})

	if !slices.Equal(frames[len(frames)-1], nextOrder) {
		frames = append(frames, slices.Clone(nextOrder))
	}
	return frames
}

// CountSwaps returns the number of adjacent swaps the BuildSteps bubble sort
// performs. It drives how long a reorder stays on screen.
func CountSwaps(previousOrder, nextOrder []string) int {
	start, target := startingOrder(previousOrder, nextOrder)
	return bubbleSort(start, target, nil)
}

func startingOrder(previousOrder, nextOrder []string) ([]string, map[string]int) {
	target := make(map[string]int, len(nextOrder))
	for i, name := range nextOrder {
		if _, dup := target[name]; !dup {
			target[name] = i
		}
	}

	start := make([]string, 0, len(nextOrder))
	kept := make(map[string]bool, len(previousOrder))
	for _, name := range previousOrder {
		if _, ok := target[name]; ok && !kept[name] {
			start = append(start, name)
			kept[name] = true
		}
	}
	for _, name := range nextOrder {
		if !kept[name] {
			start = append(start, name)
			kept[name] = true
		}
	}
	return start, target
}

// bubbleSort sorts order in place by target index. onPass runs after every
// pass that swapped at least once. It returns the total number of swaps.
func bubbleSort(order []string, target map[string]int, onPass func()) int {
	swaps := 0
	for {
		swapped := false
		for i := 0; i+1 < len(order); i++ {
			if target[order[i]] > target[order[i+1]] {
				order[i], order[i+1] = order[i+1], order[i]
				swapped = true
				swaps++
			}
		}
		if !swapped {
			return swaps
		}
		if onPass != nil {
			onPass()
		}
	}
}
