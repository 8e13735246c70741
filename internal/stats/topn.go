package stats

import "sort"

// TopN tracks the N largest values seen, in ascending order.
type TopN struct {
	values []int64
	n      int
}

// NewTopN creates a tracker for the n largest values.
func NewTopN(n int) *TopN {
	return &TopN{values: make([]int64, 0, n), n: n}
}

// Add offers a value. Values below the current N largest are ignored.
func (t *TopN) Add(v int64) {
	if len(t.values) < t.n {
		i := sort.Search(len(t.values), func(i int) bool { return t.values[i] >= v })
		t.values = append(t.values, 0)
		copy(t.values[i+1:], t.values[i:])
		t.values[i] = v
		return
	}
	if v > t.values[0] {
		i := sort.Search(len(t.values), func(i int) bool { return t.values[i] >= v })
		if i > 0 {
			copy(t.values[:i-1], t.values[1:i])
			t.values[i-1] = v
		}
	}
}

// Get returns the tracked values, smallest first.
func (t *TopN) Get() []int64 {
	result := make([]int64, len(t.values))
	copy(result, t.values)
	return result
}

// Reset forgets all tracked values.
func (t *TopN) Reset() { t.values = t.values[:0] }

// Clone returns an independent copy.
func (t *TopN) Clone() *TopN {
	clone := &TopN{values: make([]int64, len(t.values)), n: t.n}
	copy(clone.values, t.values)
	return clone
}
