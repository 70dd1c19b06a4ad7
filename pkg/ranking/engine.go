package ranking

import "sort"

// Engine ranks villages using a fixed set of weights. An Engine holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	weights Weights
}

// NewEngine creates an engine with the given weights. Invalid weights fall
// back to DefaultWeights.
func NewEngine(w Weights) *Engine {
	if w.Validate() != nil {
		w = DefaultWeights()
	}
	return &Engine{weights: w}
}

// Weights returns the weights the engine ranks with.
func (e *Engine) Weights() Weights { return e.weights }

// Rank ranks villages with the default weights.
func Rank(cases []Case, sources []WaterSource) []VillageScore {
	return NewEngine(DefaultWeights()).Rank(cases, sources)
}

// Rank aggregates open cases and warning sources per village and returns the
// villages sorted by score, highest first. Villages with equal scores keep the
// order in which they were first seen, scanning cases before sources.
// Only villages with at least one qualifying case or source appear.
func (e *Engine) Rank(cases []Case, sources []WaterSource) []VillageScore {
	index := make(map[string]int)
	scores := make([]VillageScore, 0)

	entry := func(village string) *VillageScore {
		i, ok := index[village]
		if !ok {
			i = len(scores)
			index[village] = i
			scores = append(scores, VillageScore{Village: village})
		}
		return &scores[i]
	}

	for _, c := range cases {
		if !c.Status.Open() {
			continue
		}
		v := entry(c.Village)
		v.Score += e.weights.OpenCase
		v.Patients++
	}

	for _, s := range sources {
		if s.Status != SourceWarning {
			continue
		}
		v := entry(s.Village)
		v.Score += e.weights.WarningSource
		v.WaterIssues++
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	return scores
}
