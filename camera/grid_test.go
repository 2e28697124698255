package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// poseAt builds a pose whose camera center is (x, y, z).
func poseAt(x, y, z float64) Pose {
	return Pose{
		Ext: AffinePadding(Identity3(), Vec3{-x, -y, -z}),
		Ixt: Identity3(),
	}
}

// gridPoses builds a view-major grid where pose[view][frame] has center
// (view, frame, 0).
func gridPoses(views, frames int) [][]Pose {
	poses := make([][]Pose, views)
	for v := range poses {
		poses[v] = make([]Pose, frames)
		for f := range poses[v] {
			poses[v][f] = poseAt(float64(v), float64(f), 0)
		}
	}
	return poses
}

func TestNewGridViewAxis(t *testing.T) {
	g, err := NewGrid(gridPoses(3, 2), AxisView)
	require.NoError(t, err)

	assert.Equal(t, 3, g.Candidates())
	assert.Equal(t, 2, g.Secondaries())
	assert.Equal(t, AxisView, g.Axis())
	assert.Equal(t, Vec3{2, 1, 0}, g.At(2, 1).Center())
}

func TestNewGridTimeAxis(t *testing.T) {
	g, err := NewGrid(gridPoses(3, 2), AxisTime)
	require.NoError(t, err)

	// Frames become candidates.
	assert.Equal(t, 2, g.Candidates())
	assert.Equal(t, 3, g.Secondaries())
	assert.Equal(t, Vec3{2, 1, 0}, g.At(1, 2).Center())
}

func TestNewGridErrors(t *testing.T) {
	_, err := NewGrid(nil, AxisView)
	var shapeErr *ErrShape
	require.ErrorAs(t, err, &shapeErr)

	ragged := gridPoses(2, 2)
	ragged[1] = ragged[1][:1]
	_, err = NewGrid(ragged, AxisView)
	require.ErrorAs(t, err, &shapeErr)
}

func TestCentersAt(t *testing.T) {
	g, err := NewGrid(gridPoses(3, 2), AxisView)
	require.NoError(t, err)

	centers := g.CentersAt(1)
	assert.Equal(t, []Vec3{{0, 1, 0}, {1, 1, 0}, {2, 1, 0}}, centers)
}

func TestSubsetCandidates(t *testing.T) {
	g, err := NewGrid(gridPoses(4, 2), AxisView)
	require.NoError(t, err)

	sub, err := g.SubsetCandidates([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Candidates())
	assert.Equal(t, 2, sub.Secondaries())
	assert.Equal(t, Vec3{2, 0, 0}, sub.At(0, 0).Center())
	assert.Equal(t, Vec3{0, 1, 0}, sub.At(1, 1).Center())
}

func TestSubsetCandidatesSingle(t *testing.T) {
	g, err := NewGrid(gridPoses(4, 2), AxisView)
	require.NoError(t, err)

	// A length-1 selection must stay a grid, never collapse.
	sub, err := g.SubsetCandidates([]int{3})
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Candidates())
	assert.Equal(t, 2, sub.Secondaries())
}

func TestSubsetCandidatesErrors(t *testing.T) {
	g, err := NewGrid(gridPoses(2, 2), AxisView)
	require.NoError(t, err)

	var shapeErr *ErrShape
	_, err = g.SubsetCandidates(nil)
	require.ErrorAs(t, err, &shapeErr)

	_, err = g.SubsetCandidates([]int{5})
	require.ErrorAs(t, err, &shapeErr)
}
