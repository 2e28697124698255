package camera

import "fmt"

// ErrShape indicates a malformed pose grid.
//
// It is a configuration error and is surfaced at construction time.
type ErrShape struct {
	Reason string
}

func (e *ErrShape) Error() string {
	return fmt.Sprintf("invalid pose grid: %s", e.Reason)
}

// Grid stores poses candidate-major: dimension 0 enumerates source
// candidates (views or frames, depending on the selection axis), dimension 1
// the secondary axis. Normalizing the orientation once at construction keeps
// all selection code free of axis-transpose branches.
//
// A Grid is immutable after construction and safe for concurrent reads.
type Grid struct {
	poses [][]Pose
	axis  Axis
}

// NewGrid builds a Grid from view-major raw input poses[view][frame].
// For AxisView the input orientation is already candidate-major; for
// AxisTime the grid is transposed once so that frames become candidates.
func NewGrid(poses [][]Pose, axis Axis) (*Grid, error) {
	if len(poses) == 0 || len(poses[0]) == 0 {
		return nil, &ErrShape{Reason: "empty pose grid"}
	}
	width := len(poses[0])
	for i, row := range poses {
		if len(row) != width {
			return nil, &ErrShape{Reason: fmt.Sprintf("row %d has %d poses, want %d", i, len(row), width)}
		}
	}

	if axis == AxisView {
		cloned := make([][]Pose, len(poses))
		for i, row := range poses {
			cloned[i] = append([]Pose(nil), row...)
		}
		return &Grid{poses: cloned, axis: axis}, nil
	}

	// AxisTime: transpose so frames enumerate candidates.
	transposed := make([][]Pose, width)
	for f := 0; f < width; f++ {
		transposed[f] = make([]Pose, len(poses))
		for v := range poses {
			transposed[f][v] = poses[v][f]
		}
	}
	return &Grid{poses: transposed, axis: axis}, nil
}

// Axis returns the candidate axis the grid was built for.
func (g *Grid) Axis() Axis {
	return g.axis
}

// Candidates returns the number of entries along the candidate axis.
func (g *Grid) Candidates() int {
	return len(g.poses)
}

// Secondaries returns the number of entries along the secondary axis.
func (g *Grid) Secondaries() int {
	return len(g.poses[0])
}

// At returns the pose at (candidate, secondary).
func (g *Grid) At(candidate, secondary int) Pose {
	return g.poses[candidate][secondary]
}

// CentersAt computes the camera centers of every candidate at the given
// secondary index.
func (g *Grid) CentersAt(secondary int) []Vec3 {
	centers := make([]Vec3, len(g.poses))
	for c := range g.poses {
		centers[c] = g.poses[c][secondary].Center()
	}
	return centers
}

// SubsetCandidates returns a new Grid restricted to the given candidate
// indices, in the given order. A length-1 selection stays a length-1 grid;
// no dimension is ever collapsed.
func (g *Grid) SubsetCandidates(indices []int) (*Grid, error) {
	if len(indices) == 0 {
		return nil, &ErrShape{Reason: "empty candidate selection"}
	}
	subset := make([][]Pose, len(indices))
	for i, c := range indices {
		if c < 0 || c >= len(g.poses) {
			return nil, &ErrShape{Reason: fmt.Sprintf("candidate index %d out of range [0, %d)", c, len(g.poses))}
		}
		subset[i] = append([]Pose(nil), g.poses[c]...)
	}
	return &Grid{poses: subset, axis: g.axis}, nil
}
