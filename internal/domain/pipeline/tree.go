package pipeline

import (
	"fmt"
	"math/rand"
	"sort"
)

// leaf marks a node without children.
const leaf = -1

// Node is one entry of a flattened decision tree. Samples with
// x[Feature] <= Threshold go Left.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Tree is a binary classification tree whose leaves hold the weighted
// positive-class fraction.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree for x.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks that every child index points forward and every split
// feature is inside a row of the given width.
func (t *Tree) validate(width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left == leaf {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: child out of range", i)
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
	}
	return nil
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
}

type grower struct {
	x      [][]float64
	y      []int
	w      []float64
	params treeParams
	rng    *rand.Rand
	nodes  []Node
}

// growTree fits a tree on the samples idx with per-sample weights w.
func growTree(x [][]float64, y []int, w []float64, idx []int, params treeParams, rng *rand.Rand) Tree {
	g := &grower{x: x, y: y, w: w, params: params, rng: rng}
	g.build(idx, 0)
	return Tree{Nodes: g.nodes}
}

func (g *grower) build(idx []int, depth int) int {
	var pos, total float64
	for _, i := range idx {
		total += g.w[i]
		if g.y[i] == 1 {
			pos += g.w[i]
		}
	}
	node := len(g.nodes)
	value := 0.0
	if total > 0 {
		value = pos / total
	}
	g.nodes = append(g.nodes, Node{Left: leaf, Right: leaf, Value: value})

	if pos == 0 || pos == total ||
		(g.params.maxDepth > 0 && depth >= g.params.maxDepth) ||
		len(idx) < 2*g.params.minSamplesLeaf {
		return node
	}

	feature, threshold, ok := g.bestSplit(idx, pos, total)
	if !ok {
		return node
	}
	var left, right []int
	for _, i := range idx {
		if g.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := g.build(left, depth+1)
	r := g.build(right, depth+1)
	g.nodes[node].Feature = feature
	g.nodes[node].Threshold = threshold
	g.nodes[node].Left = l
	g.nodes[node].Right = r
	return node
}

// bestSplit scans up to maxFeatures non-constant features in random order
// and returns the split with the largest weighted Gini decrease.
func (g *grower) bestSplit(idx []int, pos, total float64) (int, float64, bool) {
	parent := gini(pos, total)
	bestGain := 1e-12
	bestFeature, bestThreshold, found := 0, 0.0, false

	order := append([]int(nil), idx...)
	tried := 0
	for _, f := range g.rng.Perm(len(g.x[idx[0]])) {
		if tried >= g.params.maxFeatures {
			break
		}
		sort.SliceStable(order, func(a, b int) bool { return g.x[order[a]][f] < g.x[order[b]][f] })
		lo, hi := g.x[order[0]][f], g.x[order[len(order)-1]][f]
		if lo == hi {
			continue
		}
		tried++

		var lpos, ltot float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			ltot += g.w[i]
			if g.y[i] == 1 {
				lpos += g.w[i]
			}
			a, b := g.x[i][f], g.x[order[k+1]][f]
			if a == b {
				continue
			}
			nLeft := k + 1
			if nLeft < g.params.minSamplesLeaf || len(order)-nLeft < g.params.minSamplesLeaf {
				continue
			}
			rtot := total - ltot
			if ltot <= 0 || rtot <= 0 {
				continue
			}
			impurity := (ltot*gini(lpos, ltot) + rtot*gini(pos-lpos, rtot)) / total
			if gain := parent - impurity; gain > bestGain {
				thr := a + (b-a)/2
				if thr >= b {
					thr = a
				}
				bestGain, bestFeature, bestThreshold, found = gain, f, thr, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(pos, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := pos / total
	return 2 * p * (1 - p)
}
