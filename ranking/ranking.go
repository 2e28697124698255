// Package ranking precomputes the target-to-candidate similarity ranking
// used for source-view selection.
//
// Similarity is the inverse Euclidean distance between camera centers.
// Cameras are static per sequence, so the full ranking is computed once,
// eagerly, and shared read-only across all queries.
package ranking

import (
	"fmt"
	"sort"

	"github.com/hupe1980/viewsel/camera"
)

// Epsilon is the smallest distance used when inverting ad-hoc query
// distances, guarding against exact pose coincidence.
const Epsilon = 1e-10

// ErrShapeMismatch indicates target and candidate grids that do not share
// a secondary axis.
type ErrShapeMismatch struct {
	TargetSecondaries    int
	CandidateSecondaries int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("secondary axis mismatch: targets have %d, candidates have %d",
		e.TargetSecondaries, e.CandidateSecondaries)
}

// Ranking holds, for every (target, secondary) pair, the candidate indices
// ordered by descending similarity together with the similarity values.
//
// A Ranking is immutable after Build and safe for concurrent reads.
type Ranking struct {
	numTargets     int
	numCandidates  int
	numSecondaries int

	// Flattened [target][secondary][rank]. The permutation and similarity
	// tensors are parallel.
	indices []int32
	sims    []float64
}

// Build computes the full ranking: for every target t and secondary s, all
// candidates sorted by inverse center distance, descending. Ties are broken
// by ascending candidate index (stable sort).
//
// When target and candidate axes coincide, identical centers rank the
// target itself first with infinite similarity. That is intentional:
// ground-truth removal is a separate sampling step, not a ranking concern.
func Build(targets, candidates *camera.Grid) (*Ranking, error) {
	if targets.Secondaries() != candidates.Secondaries() {
		return nil, &ErrShapeMismatch{
			TargetSecondaries:    targets.Secondaries(),
			CandidateSecondaries: candidates.Secondaries(),
		}
	}

	nt := targets.Candidates()
	nc := candidates.Candidates()
	ns := targets.Secondaries()

	r := &Ranking{
		numTargets:     nt,
		numCandidates:  nc,
		numSecondaries: ns,
		indices:        make([]int32, nt*ns*nc),
		sims:           make([]float64, nt*ns*nc),
	}

	order := make([]int, nc)
	sims := make([]float64, nc)
	for s := 0; s < ns; s++ {
		centers := candidates.CentersAt(s)
		for t := 0; t < nt; t++ {
			tc := targets.At(t, s).Center()
			for c := 0; c < nc; c++ {
				// 1/0 = +Inf ranks an exact coincidence first.
				sims[c] = 1 / centers[c].Sub(tc).Norm()
				order[c] = c
			}
			sort.SliceStable(order, func(i, j int) bool {
				return sims[order[i]] > sims[order[j]]
			})
			base := (t*ns + s) * nc
			for rank, c := range order {
				r.indices[base+rank] = int32(c)
				r.sims[base+rank] = sims[c]
			}
		}
	}
	return r, nil
}

// Shape returns (targets, candidates, secondaries).
func (r *Ranking) Shape() (int, int, int) {
	return r.numTargets, r.numCandidates, r.numSecondaries
}

// At returns the ranked candidate indices and their similarities for the
// given (target, secondary) pair. The returned slices are copies.
func (r *Ranking) At(target, secondary int) ([]int, []float64, error) {
	if target < 0 || target >= r.numTargets {
		return nil, nil, fmt.Errorf("target index %d out of range [0, %d)", target, r.numTargets)
	}
	if secondary < 0 || secondary >= r.numSecondaries {
		return nil, nil, fmt.Errorf("secondary index %d out of range [0, %d)", secondary, r.numSecondaries)
	}
	base := (target*r.numSecondaries + secondary) * r.numCandidates
	indices := make([]int, r.numCandidates)
	sims := make([]float64, r.numCandidates)
	for i := 0; i < r.numCandidates; i++ {
		indices[i] = int(r.indices[base+i])
		sims[i] = r.sims[base+i]
	}
	return indices, sims, nil
}

// RankCenters ranks candidate centers against an ad-hoc query center,
// descending by inverse distance. Distances are clamped to Epsilon before
// inversion so an exact pose coincidence stays finite; this is the
// free-viewpoint (viewer) variant where no precomputed target exists.
func RankCenters(query camera.Vec3, centers []camera.Vec3) ([]int, []float64) {
	sims := make([]float64, len(centers))
	order := make([]int, len(centers))
	for i, c := range centers {
		d := c.Sub(query).Norm()
		if d < Epsilon {
			d = Epsilon
		}
		sims[i] = 1 / d
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return sims[order[i]] > sims[order[j]]
	})
	ordered := make([]float64, len(centers))
	for rank, c := range order {
		ordered[rank] = sims[c]
	}
	return order, ordered
}

// Snapshot is the serializable form of a Ranking.
type Snapshot struct {
	NumTargets     int
	NumCandidates  int
	NumSecondaries int
	Indices        []int32
	Sims           []float64
}

// Snapshot exports the ranking for persistence.
func (r *Ranking) Snapshot() *Snapshot {
	return &Snapshot{
		NumTargets:     r.numTargets,
		NumCandidates:  r.numCandidates,
		NumSecondaries: r.numSecondaries,
		Indices:        append([]int32(nil), r.indices...),
		Sims:           append([]float64(nil), r.sims...),
	}
}

// FromSnapshot rebuilds a Ranking from its serialized form.
func FromSnapshot(s *Snapshot) (*Ranking, error) {
	want := s.NumTargets * s.NumCandidates * s.NumSecondaries
	if s.NumTargets <= 0 || s.NumCandidates <= 0 || s.NumSecondaries <= 0 {
		return nil, fmt.Errorf("invalid snapshot shape (%d, %d, %d)", s.NumTargets, s.NumCandidates, s.NumSecondaries)
	}
	if len(s.Indices) != want || len(s.Sims) != want {
		return nil, fmt.Errorf("snapshot tensors have %d/%d entries, want %d", len(s.Indices), len(s.Sims), want)
	}
	return &Ranking{
		numTargets:     s.NumTargets,
		numCandidates:  s.NumCandidates,
		numSecondaries: s.NumSecondaries,
		indices:        append([]int32(nil), s.Indices...),
		sims:           append([]float64(nil), s.Sims...),
	}, nil
}
