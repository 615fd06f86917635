package training

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split holds index sets into the labeled dataset.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit holds out testFraction of each class, at least one member
// and never all of them. Each class is shuffled with seed, and the returned
// index sets are sorted.
func StratifiedSplit(labels []int, testFraction float64, seed int64) (Split, error) {
	var members [2][]int
	for i, y := range labels {
		members[y] = append(members[y], i)
	}
	for c := range members {
		if n := len(members[c]); n < 2 {
			return Split{}, fmt.Errorf("%w: class %d has %d", ErrTooFewMembers, c, n)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var s Split
	for c := range members {
		idx := members[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(testFraction * float64(len(idx))))
		nTest = min(max(nTest, 1), len(idx)-1)
		s.Test = append(s.Test, idx[:nTest]...)
		s.Train = append(s.Train, idx[nTest:]...)
	}
	sort.Ints(s.Train)
	sort.Ints(s.Test)
	return s, nil
}
