package urts

import (
	"math/rand"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// Score classifies a tip's attachment-worthiness (spec.md §4.9).
type Score int

const (
	ScoreLazy Score = iota
	ScoreSemiLazy
	ScoreNonLazy
)

// Thresholds are the tip-scoring constants from spec.md §4.9. The zero
// value is NOT valid; use DefaultThresholds.
type Thresholds struct {
	YTRSIDelta    milestone_index.MilestoneIndex
	BelowMaxDepth milestone_index.MilestoneIndex
	OTRSIDelta    milestone_index.MilestoneIndex
	MaxSelections int
}

// DefaultThresholds matches spec.md §4.9's defaults.
var DefaultThresholds = Thresholds{
	YTRSIDelta:    2,
	BelowMaxDepth: 15,
	OTRSIDelta:    7,
	MaxSelections: 2,
}

// Selector scores and picks tips from a Tangle.
type Selector struct {
	tangle     *tangle.Tangle
	thresholds Thresholds
	rng        *rand.Rand
}

// NewSelector creates a Selector using thresholds and a reproducible random
// stream seeded by seed; tests pass a fixed seed, production seeds from a
// process-local entropy source (spec.md §9 "Tip selection randomness").
func NewSelector(t *tangle.Tangle, thresholds Thresholds, seed int64) *Selector {
	return &Selector{
		tangle:     t,
		thresholds: thresholds,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// ScoreTip computes the Non-Lazy/Semi-Lazy/Lazy score for tip under the
// current last-solid-milestone index L, per spec.md §4.9's exact decision
// order: YTRSI gap, then OTRSI depth, then a parent-pass count.
func (s *Selector) ScoreTip(tip hornet.Hash, lastSolid milestone_index.MilestoneIndex) Score {
	meta, ok := s.tangle.GetMetadata(tip)
	if !ok {
		return ScoreLazy
	}
	otrsi, hasO := meta.OTRSI()
	ytrsi, hasY := meta.YTRSI()
	if !hasO || !hasY {
		return ScoreLazy
	}

	if lastSolid-ytrsi > s.thresholds.YTRSIDelta {
		return ScoreLazy
	}
	if lastSolid-otrsi > s.thresholds.BelowMaxDepth {
		return ScoreLazy
	}

	tx, ok := s.tangle.Get(tip)
	if !ok {
		return ScoreLazy
	}

	passes := 0
	for _, parent := range parentsOf(tx) {
		pOtrsi, _, ok := s.indexOf(parent)
		if !ok {
			continue
		}
		if lastSolid-pOtrsi <= s.thresholds.OTRSIDelta {
			passes++
		}
	}

	switch passes {
	case 0:
		return ScoreLazy
	case 1:
		return ScoreSemiLazy
	default:
		return ScoreNonLazy
	}
}

func (s *Selector) indexOf(hash hornet.Hash) (otrsi, ytrsi milestone_index.MilestoneIndex, ok bool) {
	if s.tangle.ContainsSolidEntryPoint(hash) {
		index := s.tangle.SnapshotMilestoneIndex()
		return index, index, true
	}
	meta, exists := s.tangle.GetMetadata(hash)
	if !exists {
		return 0, 0, false
	}
	o, hasO := meta.OTRSI()
	y, hasY := meta.YTRSI()
	if !hasO || !hasY {
		return 0, 0, false
	}
	return o, y, true
}

// SelectTip enumerates every solid tip not already selected
// thresholds.MaxSelections times, scores it, and picks one at random
// weighted by score (a weight-2 tip is twice as likely as a weight-1 tip).
// Returns ("", false) when no positive-weight tip exists (spec.md §4.9).
func (s *Selector) SelectTip(lastSolid milestone_index.MilestoneIndex) (hornet.Hash, bool) {
	type candidate struct {
		hash   hornet.Hash
		weight int
	}

	var candidates []candidate
	totalWeight := 0

	for _, tip := range s.tangle.Tips() {
		if !s.tangle.IsSolid(tip) {
			continue
		}
		meta, ok := s.tangle.GetMetadata(tip)
		if !ok || meta.SelectedCount() >= s.thresholds.MaxSelections {
			continue
		}
		score := s.ScoreTip(tip, lastSolid)
		if score == ScoreLazy {
			continue
		}
		weight := int(score)
		candidates = append(candidates, candidate{hash: tip, weight: weight})
		totalWeight += weight
	}

	if totalWeight == 0 {
		return "", false
	}

	roll := s.rng.Intn(totalWeight)
	for _, c := range candidates {
		if roll < c.weight {
			s.tangle.UpdateMetadata(c.hash, func(meta *tangle.TransactionMetadata) {
				meta.IncSelectedCount()
			})
			return c.hash, true
		}
		roll -= c.weight
	}

	return "", false
}
