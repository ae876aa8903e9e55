package gbr

import (
	"fmt"
	"sort"
)

const leaf = -1

// Node is one split or leaf of a regression tree. Samples with
// x[Feature] <= Threshold go Left.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n Node) IsLeaf() bool {
	return n.Left == leaf
}

// Tree stores nodes flat; Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) Predict(x []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

func (t Tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		// children always come after their parent, which also rules out cycles
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

type treeBuilder struct {
	samples  [][]float64
	targets  []float64
	params   Params
	features int
	nodes    []Node
}

func buildTree(samples [][]float64, targets []float64, params Params) Tree {
	b := &treeBuilder{
		samples:  samples,
		targets:  targets,
		params:   params,
		features: len(samples[0]),
	}
	idx := make([]int, len(samples))
	for i := range idx {
		idx[i] = i
	}
	b.grow(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: leaf, Right: leaf, Value: b.mean(idx)})

	if depth >= b.params.MaxDepth || len(idx) < b.params.MinSamplesSplit {
		return pos
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if b.samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[pos] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return pos
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += b.targets[i]
	}
	return sum / float64(len(idx))
}

// bestSplit maximises sumL^2/nL + sumR^2/nR, which is the same as minimising
// the squared error of the two children.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += b.targets[i]
	}
	parentScore := total * total / float64(n)

	bestScore := parentScore + 1e-12
	bestFeature, bestThreshold := -1, 0.0
	minLeaf := b.params.MinSamplesLeaf

	sorted := make([]int, n)
	for f := 0; f < b.features; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.samples[sorted[a]][f] < b.samples[sorted[c]][f]
		})

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += b.targets[sorted[k]]
			nl := k + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			cur := b.samples[sorted[k]][f]
			next := b.samples[sorted[k+1]][f]
			if cur == next {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr)
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
