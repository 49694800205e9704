package core

import "math/rand/v2"

// dropSimulator decides whether a fragment is lost in transit. It has no
// memory across calls; the decision is a single uniform draw against the
// current drop rate.
type dropSimulator struct {
	rng *rand.Rand
}

func newDropSimulator(rng *rand.Rand) *dropSimulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &dropSimulator{rng: rng}
}

// Drop reports loss iff the draw lands below rate. Float64 ranges over
// [0, 1), so rate 0 never drops and rate 1 always does.
func (s *dropSimulator) Drop(rate float64) bool {
	return s.rng.Float64() < rate
}
