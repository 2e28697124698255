// Package sampler implements the training-time stochastic source selection
// policy: a categorical draw of the source count, a ground-truth removal
// coin, and a uniform without-replacement draw from a widened rank pool.
package sampler

import (
	"fmt"
	"math"
	"math/rand"
)

// PolicyError indicates an invalid sampling policy. It is a configuration
// error and is surfaced at construction time, never at query time.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("invalid sampling policy: %s", e.Reason)
}

// Policy is the sampling configuration shared by dataset construction and
// per-query selection. It is passed explicitly rather than re-declared per
// component.
type Policy struct {
	// CountChoices are the candidate source counts; one is drawn per query
	// when the caller does not request a count. A single choice of 0 means
	// "use every candidate" and is resolved against the candidate pool at
	// construction time.
	CountChoices []int

	// CountProbs are the draw probabilities for CountChoices. They must
	// have the same length and sum to 1.
	CountProbs []float64

	// AppendGTProb is the probability that the top-ranked (typically
	// ground-truth) candidate stays eligible for inclusion.
	AppendGTProb float64

	// ExtraPool widens the rank slice the sources are drawn from. With a
	// widened pool the chosen set is sampled uniformly without replacement,
	// deliberately destroying strict rank order so the model does not
	// overfit to a fixed closest-K pattern. Zero keeps deterministic rank
	// order.
	ExtraPool int
}

// DefaultPolicy mirrors the common training configuration: 2-4 source
// views with a bias toward 3, a 10% chance of keeping the ground truth,
// and a pool widened by one.
var DefaultPolicy = Policy{
	CountChoices: []int{2, 3, 4},
	CountProbs:   []float64{0.2, 0.6, 0.2},
	AppendGTProb: 0.1,
	ExtraPool:    1,
}

// MaxCount returns the largest configured source count.
func (p Policy) MaxCount() int {
	m := 0
	for _, c := range p.CountChoices {
		if c > m {
			m = c
		}
	}
	return m
}

// ResolveAll replaces the "use every candidate" sentinel ([0]) with the
// actual candidate count. Selecting every candidate necessarily keeps the
// closest one and leaves no room for pool widening, so the sentinel also
// pins AppendGTProb to 1 and ExtraPool to 0.
func (p Policy) ResolveAll(numCandidates int) Policy {
	if len(p.CountChoices) == 1 && p.CountChoices[0] == 0 {
		p.CountChoices = []int{numCandidates}
		p.CountProbs = []float64{1}
		p.AppendGTProb = 1
		p.ExtraPool = 0
	}
	return p
}

// Validate checks the policy against a candidate pool size.
func (p Policy) Validate(numCandidates int) error {
	if len(p.CountChoices) == 0 {
		return &PolicyError{Reason: "no count choices"}
	}
	if len(p.CountChoices) != len(p.CountProbs) {
		return &PolicyError{Reason: fmt.Sprintf("%d count choices but %d probabilities", len(p.CountChoices), len(p.CountProbs))}
	}
	sum := 0.0
	for i, prob := range p.CountProbs {
		if prob < 0 {
			return &PolicyError{Reason: fmt.Sprintf("negative probability %g at %d", prob, i)}
		}
		sum += prob
	}
	if math.Abs(sum-1) > 1e-6 {
		return &PolicyError{Reason: fmt.Sprintf("probabilities sum to %g, want 1", sum)}
	}
	for _, c := range p.CountChoices {
		if c <= 0 {
			return &PolicyError{Reason: fmt.Sprintf("non-positive count choice %d", c)}
		}
	}
	if p.AppendGTProb < 0 || p.AppendGTProb > 1 {
		return &PolicyError{Reason: fmt.Sprintf("AppendGTProb %g outside [0, 1]", p.AppendGTProb)}
	}
	if p.ExtraPool < 0 {
		return &PolicyError{Reason: fmt.Sprintf("negative ExtraPool %d", p.ExtraPool)}
	}
	// The ground-truth skip consumes one extra candidate unless the policy
	// always keeps the ground truth.
	gtSkip := 1
	if p.AppendGTProb >= 1 {
		gtSkip = 0
	}
	if need := p.MaxCount() + p.ExtraPool + gtSkip; need > numCandidates {
		return &PolicyError{Reason: fmt.Sprintf("need %d candidates (max count + extra pool + gt skip) but only %d available", need, numCandidates)}
	}
	return nil
}

// Selector draws source indices from a precomputed ranking according to a
// Policy.
//
// Randomness is per-query: each (target, secondary) pair gets its own RNG
// seeded deterministically from the global seed, so selections are
// reproducible across runs and safe across concurrent workers without any
// shared mutable random state. Vary the seed (e.g. per epoch) to vary the
// draws.
type Selector struct {
	policy Policy
	seed   int64
}

// New creates a Selector. The policy must already be validated.
func New(policy Policy, seed int64) *Selector {
	return &Selector{policy: policy, seed: seed}
}

// Policy returns the selector's sampling policy.
func (s *Selector) Policy() Policy {
	return s.policy
}

// rngFor derives a per-query RNG from (seed, target, secondary) using a
// splitmix64-style mix.
func (s *Selector) rngFor(target, secondary int) *rand.Rand {
	h := uint64(s.seed)
	h ^= (uint64(target) + 1) * 0x9E3779B97F4A7C15
	h = (h ^ (h >> 30)) * 0xBF58476D1CE4E5B9
	h ^= (uint64(secondary) + 1) * 0x94D049BB133111EB
	h = (h ^ (h >> 27)) * 0x2545F4914F6CDD1D
	return rand.New(rand.NewSource(int64(h ^ (h >> 31)))) // nolint gosec
}

// Select draws count source indices from the ranked candidate list for the
// given (target, secondary) query. Pass count <= 0 to draw the count from
// the policy's categorical distribution.
//
// The returned indices are always distinct, always taken from ranked, and
// with ExtraPool == 0 preserve rank order.
func (s *Selector) Select(ranked []int, target, secondary, count int) ([]int, error) {
	rng := s.rngFor(target, secondary)

	if count <= 0 {
		count = s.drawCount(rng)
	}

	removeGT := 1
	if rng.Float64() < s.policy.AppendGTProb {
		removeGT = 0
	}

	poolSize := count + s.policy.ExtraPool
	if removeGT+poolSize > len(ranked) {
		return nil, &PolicyError{
			Reason: fmt.Sprintf("pool %d+%d exceeds %d ranked candidates", removeGT, poolSize, len(ranked)),
		}
	}
	pool := ranked[removeGT : removeGT+poolSize]

	if s.policy.ExtraPool == 0 {
		return append([]int(nil), pool...), nil
	}

	// Uniform without replacement inside the widened pool.
	perm := rng.Perm(len(pool))
	chosen := make([]int, count)
	for i := 0; i < count; i++ {
		chosen[i] = pool[perm[i]]
	}
	return chosen, nil
}

func (s *Selector) drawCount(rng *rand.Rand) int {
	u := rng.Float64()
	acc := 0.0
	for i, prob := range s.policy.CountProbs {
		acc += prob
		if u < acc {
			return s.policy.CountChoices[i]
		}
	}
	return s.policy.CountChoices[len(s.policy.CountChoices)-1]
}
