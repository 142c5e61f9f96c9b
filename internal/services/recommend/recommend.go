// Package recommend ranks candidate crops for a farmer's soil and climate
// inputs using the pre-trained suitability classifier and yield regressor.
package recommend

import (
	"sort"

	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

const (
	topN = 5

	// Fixed blend of suitability and yield score. A product decision, not
	// a tunable.
	suitabilityWeight = 0.5
	yieldWeight       = 0.5
)

// Engine applies the pre-trained models to a recommendation request. It is
// immutable after construction and safe for concurrent use.
type Engine struct {
	assets *Assets
	l      *observe.Logger
}

func NewEngine(assets *Assets, l *observe.Logger) *Engine {
	return &Engine{
		assets: assets,
		l:      l,
	}
}

// Recommend returns at most five candidates sorted by final score
// descending. An empty slice means no recommendation could be made.
func (e *Engine) Recommend(in models.RecommendationInput) []models.RecommendationCandidate {
	probs := e.assets.Classifier.PredictProba(in.Vector())

	type classProb struct {
		crop string
		prob float64
	}

	ranked := make([]classProb, len(probs))
	for i, p := range probs {
		ranked[i] = classProb{crop: e.assets.Classifier.Classes[i], prob: p}
	}

	// Ties broken alphabetically so the top-5 cut is deterministic.
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].prob != ranked[b].prob {
			return ranked[a].prob > ranked[b].prob
		}
		return ranked[a].crop < ranked[b].crop
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	e.l.Info("classifier top candidates", map[string]any{
		"district": in.District,
		"season":   in.Season,
		"count":    len(ranked),
	})

	candidates := make([]models.RecommendationCandidate, 0, len(ranked))

	for _, cp := range ranked {
		yieldScore := clamp01(e.assets.Yield.Predict(in.District, cp.crop, in.Season))
		finalScore := suitabilityWeight*cp.prob + yieldWeight*yieldScore

		candidate := models.RecommendationCandidate{
			CropName:            cp.crop,
			FinalScore:          finalScore,
			Suitability:         cp.prob,
			PredictedYieldScore: yieldScore,
		}

		// Display-only join; missing entries degrade to "N/A" downstream.
		if info, ok := e.assets.AvgYield[cp.crop]; ok {
			avg := info.AvgYield
			candidate.AvgHistoricalYield = &avg
			candidate.Unit = info.Unit
		}

		candidates = append(candidates, candidate)
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].FinalScore != candidates[b].FinalScore {
			return candidates[a].FinalScore > candidates[b].FinalScore
		}
		return candidates[a].CropName < candidates[b].CropName
	})

	return candidates
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
