package forest

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
)

// node is a split when Left >= 0, otherwise a leaf.
type node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	// Value is the fraction of positive samples that reached the node.
	Value float64
}

// Tree is a binary CART classification tree stored as a flat node slice
// rooted at index 0.
type Tree struct {
	nodes []node
}

// Nodes returns the number of nodes
func (t *Tree) Nodes() int {
	return len(t.nodes)
}

// Depth returns the length of the longest root-to-leaf path
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.Left < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// predict returns the positive-class fraction of the leaf row falls into
func (t *Tree) predict(row []float64) float64 {
	i := 0
	for t.nodes[i].Left >= 0 {
		n := t.nodes[i]
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.nodes[i].Value
}

type sample struct {
	value float64
	label int
}

type split struct {
	feature   int
	threshold float64
	// impurity is the sample-weighted Gini impurity of both children.
	impurity float64
}

// builder grows one tree. It is single use and not safe for concurrent use.
type builder struct {
	rows        [][]float64
	labels      []int
	rng         *rand.Rand
	params      Params
	maxFeatures int

	nodes   []node
	scratch []sample
}

func (b *builder) grow(idx []int) *Tree {
	b.build(idx, 0)
	return &Tree{nodes: b.nodes}
}

func (b *builder) build(idx []int, depth int) int {
	n := len(idx)
	pos := 0
	for _, i := range idx {
		pos += b.labels[i]
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, node{Left: -1, Right: -1, Value: float64(pos) / float64(n)})

	if pos == 0 || pos == n || n < b.params.MinSamplesSplit ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) {
		return id
	}

	best, ok := b.bestSplit(idx, pos)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	b.nodes[id].Feature = best.feature
	b.nodes[id].Threshold = best.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit tries features in random order until maxFeatures non-constant
// features have been evaluated, keeping the first split with the lowest
// impurity.
func (b *builder) bestSplit(idx []int, pos int) (split, bool) {
	best := split{impurity: math.Inf(1)}
	found := false
	visited := 0

	for _, f := range b.rng.Perm(len(b.rows[0])) {
		if visited >= b.maxFeatures {
			break
		}
		s, ok := b.evaluate(idx, pos, f)
		if !ok {
			continue
		}
		visited++
		if s.impurity < best.impurity {
			best, found = s, true
		}
	}
	return best, found
}

// evaluate finds the best threshold on feature f. It reports false when the
// feature is constant within the node.
func (b *builder) evaluate(idx []int, pos, f int) (split, bool) {
	samples := b.scratch[:0]
	for _, i := range idx {
		samples = append(samples, sample{value: b.rows[i][f], label: b.labels[i]})
	}
	b.scratch = samples

	slices.SortFunc(samples, func(a, c sample) int { return cmp.Compare(a.value, c.value) })

	n := len(samples)
	if samples[0].value == samples[n-1].value {
		return split{}, false
	}

	best := split{feature: f, impurity: math.Inf(1)}
	posLeft := 0
	for k := 0; k < n-1; k++ {
		posLeft += samples[k].label
		lo, hi := samples[k].value, samples[k+1].value
		if lo == hi {
			continue
		}

		nLeft := k + 1
		nRight := n - nLeft
		impurity := float64(nLeft)*gini(posLeft, nLeft) + float64(nRight)*gini(pos-posLeft, nRight)
		if impurity < best.impurity {
			threshold := lo + (hi-lo)/2
			if threshold >= hi {
				threshold = lo
			}
			best.impurity = impurity
			best.threshold = threshold
		}
	}
	return best, true
}

// gini is the Gini impurity of a two-class node.
func gini(pos, n int) float64 {
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
