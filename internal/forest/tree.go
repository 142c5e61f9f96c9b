package forest

import (
	"math"
	"sort"
)

// node is one decision tree node. Leaves carry either a regression value or
// a class distribution; internal nodes route on feature <= threshold.
type node struct {
	Leaf      bool      `json:"leaf,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *node     `json:"left,omitempty"`
	Right     *node     `json:"right,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Dist      []float64 `json:"dist,omitempty"`
}

func (n *node) traverse(x []float64) *node {
	cur := n
	for !cur.Leaf {
		if x[cur.Feature] <= cur.Threshold {
			cur = cur.Left
		} else {
			cur = cur.Right
		}
	}
	return cur
}

type split struct {
	feature   int
	threshold float64
	score     float64
	ok        bool
}

// bestRegressionSplit scans every feature for the threshold minimizing the
// summed squared error of the two children.
func bestRegressionSplit(X [][]float64, y []float64, idx []int) split {
	nFeatures := len(X[idx[0]])
	best := split{score: math.Inf(1)}

	order := make([]int, len(idx))

	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var sumL, sqL float64
		var sumR, sqR float64
		for _, i := range order {
			sumR += y[i]
			sqR += y[i] * y[i]
		}

		n := len(order)
		for k := 0; k < n-1; k++ {
			i := order[k]
			sumL += y[i]
			sqL += y[i] * y[i]
			sumR -= y[i]
			sqR -= y[i] * y[i]

			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}

			nl := float64(k + 1)
			nr := float64(n - k - 1)
			sse := (sqL - sumL*sumL/nl) + (sqR - sumR*sumR/nr)

			if sse < best.score {
				best = split{
					feature:   f,
					threshold: (X[order[k]][f] + X[order[k+1]][f]) / 2,
					score:     sse,
					ok:        true,
				}
			}
		}
	}

	return best
}

func growRegressionTree(X [][]float64, y []float64, idx []int, depth, maxDepth, minSamplesSplit int) *node {
	if depth >= maxDepth || len(idx) < minSamplesSplit || constantTarget(y, idx) {
		return &node{Leaf: true, Value: mean(y, idx)}
	}

	sp := bestRegressionSplit(X, y, idx)
	if !sp.ok {
		return &node{Leaf: true, Value: mean(y, idx)}
	}

	left, right := partition(X, idx, sp.feature, sp.threshold)
	if len(left) == 0 || len(right) == 0 {
		return &node{Leaf: true, Value: mean(y, idx)}
	}

	return &node{
		Feature:   sp.feature,
		Threshold: sp.threshold,
		Left:      growRegressionTree(X, y, left, depth+1, maxDepth, minSamplesSplit),
		Right:     growRegressionTree(X, y, right, depth+1, maxDepth, minSamplesSplit),
	}
}

// bestClassificationSplit minimizes the size-weighted Gini impurity of the
// two children.
func bestClassificationSplit(X [][]float64, y []int, idx []int, nClasses int) split {
	nFeatures := len(X[idx[0]])
	best := split{score: math.Inf(1)}

	order := make([]int, len(idx))
	countsL := make([]float64, nClasses)
	countsR := make([]float64, nClasses)

	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		for c := range countsL {
			countsL[c] = 0
			countsR[c] = 0
		}
		for _, i := range order {
			countsR[y[i]]++
		}

		n := len(order)
		for k := 0; k < n-1; k++ {
			i := order[k]
			countsL[y[i]]++
			countsR[y[i]]--

			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}

			nl := float64(k + 1)
			nr := float64(n - k - 1)
			score := nl*gini(countsL, nl) + nr*gini(countsR, nr)

			if score < best.score {
				best = split{
					feature:   f,
					threshold: (X[order[k]][f] + X[order[k+1]][f]) / 2,
					score:     score,
					ok:        true,
				}
			}
		}
	}

	return best
}

func growClassificationTree(X [][]float64, y []int, idx []int, nClasses, depth, maxDepth, minSamplesSplit int) *node {
	if depth >= maxDepth || len(idx) < minSamplesSplit || constantClass(y, idx) {
		return &node{Leaf: true, Dist: classDistribution(y, idx, nClasses)}
	}

	sp := bestClassificationSplit(X, y, idx, nClasses)
	if !sp.ok {
		return &node{Leaf: true, Dist: classDistribution(y, idx, nClasses)}
	}

	left, right := partition(X, idx, sp.feature, sp.threshold)
	if len(left) == 0 || len(right) == 0 {
		return &node{Leaf: true, Dist: classDistribution(y, idx, nClasses)}
	}

	return &node{
		Feature:   sp.feature,
		Threshold: sp.threshold,
		Left:      growClassificationTree(X, y, left, nClasses, depth+1, maxDepth, minSamplesSplit),
		Right:     growClassificationTree(X, y, right, nClasses, depth+1, maxDepth, minSamplesSplit),
	}
}

func partition(X [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func gini(counts []float64, n float64) float64 {
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func classDistribution(y []int, idx []int, nClasses int) []float64 {
	dist := make([]float64, nClasses)
	for _, i := range idx {
		dist[y[i]]++
	}
	for c := range dist {
		dist[c] /= float64(len(idx))
	}
	return dist
}

func mean(y []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func constantTarget(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

func constantClass(y []int, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
