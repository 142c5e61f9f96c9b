// Package forest implements bagged decision tree ensembles: a regressor for
// the per-request price models and a probability classifier for the
// pre-trained crop suitability artifact. Training is deterministic for a
// given seed.
package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var ErrNoTrainingData = errors.New("no training data")

type Config struct {
	NEstimators     int   `json:"n_estimators"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Seed            int64 `json:"seed"`
}

func (c Config) withDefaults() Config {
	if c.NEstimators <= 0 {
		c.NEstimators = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 10
	}
	if c.MinSamplesSplit <= 0 {
		c.MinSamplesSplit = 2
	}
	return c
}

// Regressor is a bagged ensemble of regression trees; predictions are the
// mean over trees.
type Regressor struct {
	Trees     []*node `json:"trees"`
	NFeatures int     `json:"n_features"`
}

func TrainRegressor(X [][]float64, y []float64, cfg Config) (*Regressor, error) {
	if err := validate(X, len(y)); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	rng := rand.New(rand.NewSource(cfg.Seed))
	all := indices(len(X))

	trees := make([]*node, 0, cfg.NEstimators)
	for t := 0; t < cfg.NEstimators; t++ {
		sample := bootstrap(all, rng)
		trees = append(trees, growRegressionTree(X, y, sample, 0, cfg.MaxDepth, cfg.MinSamplesSplit))
	}

	return &Regressor{Trees: trees, NFeatures: len(X[0])}, nil
}

func (r *Regressor) Predict(x []float64) float64 {
	var sum float64
	for _, tree := range r.Trees {
		sum += tree.traverse(x).Value
	}
	return sum / float64(len(r.Trees))
}

// Classifier is a bagged ensemble of classification trees. Class order is
// alphabetical by label, which makes tie handling deterministic downstream.
type Classifier struct {
	Trees     []*node  `json:"trees"`
	Classes   []string `json:"classes"`
	NFeatures int      `json:"n_features"`
}

func TrainClassifier(X [][]float64, labels []string, cfg Config) (*Classifier, error) {
	if err := validate(X, len(labels)); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	classes := distinctSorted(labels)
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	y := make([]int, len(labels))
	for i, label := range labels {
		y[i] = classIdx[label]
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	all := indices(len(X))

	trees := make([]*node, 0, cfg.NEstimators)
	for t := 0; t < cfg.NEstimators; t++ {
		sample := bootstrap(all, rng)
		trees = append(trees, growClassificationTree(X, y, sample, len(classes), 0, cfg.MaxDepth, cfg.MinSamplesSplit))
	}

	return &Classifier{Trees: trees, Classes: classes, NFeatures: len(X[0])}, nil
}

// PredictProba returns the probability per class (in Classes order),
// averaged over the trees' leaf distributions.
func (c *Classifier) PredictProba(x []float64) []float64 {
	probs := make([]float64, len(c.Classes))
	for _, tree := range c.Trees {
		for i, p := range tree.traverse(x).Dist {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(c.Trees))
	}
	return probs
}

// TrainTestSplit shuffles [0, n) with the given seed and carves off the
// last testFraction as the holdout.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testFraction)
	return perm[nTest:], perm[:nTest]
}

// RSquared is the coefficient of determination. A constant target yields
// 0.0 rather than a division by zero.
func RSquared(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0.0
	}

	var meanTrue float64
	for _, v := range yTrue {
		meanTrue += v
	}
	meanTrue /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		t := yTrue[i] - meanTrue
		ssTot += t * t
	}

	if ssTot == 0 {
		return 0.0
	}

	return 1 - ssRes/ssTot
}

func validate(X [][]float64, nTargets int) error {
	if len(X) == 0 || nTargets == 0 {
		return ErrNoTrainingData
	}
	if len(X) != nTargets {
		return fmt.Errorf("feature rows (%d) and targets (%d) differ", len(X), nTargets)
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	if width == 0 {
		return ErrNoTrainingData
	}
	return nil
}

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func bootstrap(idx []int, rng *rand.Rand) []int {
	sample := make([]int, len(idx))
	for i := range sample {
		sample[i] = idx[rng.Intn(len(idx))]
	}
	return sample
}

func distinctSorted(labels []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}
