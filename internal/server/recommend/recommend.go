// Package recommend picks quests to suggest from a category pool, favouring
// quests the user tends to finish over ones they tend to skip. A small random
// jitter keeps the suggestions from freezing on the same few quests.
package recommend

import (
	"math/rand/v2"
	"slices"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

const (
	// DefaultK is the number of quests returned when the caller does not ask.
	DefaultK = 3
	// MaxJitter bounds the exploration term added to each score.
	MaxJitter = 0.5
)

// Source supplies randomness. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// Aggregate counts a user's recorded outcomes for one quest.
type Aggregate struct {
	Completed int
	Skipped   int
}

// Score is 2 per completion minus 1 per skip.
func Score(a Aggregate) float64 {
	return float64(2*a.Completed - a.Skipped)
}

type globalSource struct{}

func (globalSource) Float64() float64                   { return rand.Float64() }
func (globalSource) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Scorer ranks candidate quests. It is safe for concurrent use when its
// Source is.
type Scorer struct {
	src Source
}

// NewScorer returns a Scorer drawing from src, or from the process-wide
// math/rand/v2 generator when src is nil.
func NewScorer(src Source) *Scorer {
	if src == nil {
		src = globalSource{}
	}
	return &Scorer{src: src}
}

// Recommend returns at most k quests from pool ordered by score plus jitter.
// Quests missing from aggregates score 0. When pool has k or fewer quests
// all of them are returned in random order. The input slice is not modified.
func (s *Scorer) Recommend(pool []models.Quest, aggregates map[int64]Aggregate, k int) []models.Quest {
	if k <= 0 {
		k = DefaultK
	}
	if len(pool) <= k {
		return s.shuffled(pool)
	}

	type scored struct {
		quest models.Quest
		value float64
	}

	ranked := make([]scored, len(pool))
	for i, q := range pool {
		ranked[i] = scored{
			quest: q,
			value: Score(aggregates[q.ID]) + s.src.Float64()*MaxJitter,
		}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.value > b.value:
			return -1
		case a.value < b.value:
			return 1
		}
		return 0
	})

	out := make([]models.Quest, k)
	for i := range out {
		out[i] = ranked[i].quest
	}
	return out
}

// Anonymous returns a uniformly random subset of at most k quests without
// any scoring.
func (s *Scorer) Anonymous(pool []models.Quest, k int) []models.Quest {
	if k <= 0 {
		k = DefaultK
	}
	out := s.shuffled(pool)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (s *Scorer) shuffled(pool []models.Quest) []models.Quest {
	out := slices.Clone(pool)
	s.src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
