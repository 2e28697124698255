package prior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/viewsel/camera"
)

func TestBoundsCorners(t *testing.T) {
	b := Bounds{{0, 0, 0}, {1, 2, 3}}
	corners := b.Corners()

	assert.Contains(t, corners[:], camera.Vec3{0, 0, 0})
	assert.Contains(t, corners[:], camera.Vec3{1, 2, 3})
	assert.Contains(t, corners[:], camera.Vec3{1, 0, 3})
	assert.Contains(t, corners[:], camera.Vec3{0, 2, 0})

	seen := map[camera.Vec3]bool{}
	for _, c := range corners {
		seen[c] = true
	}
	assert.Len(t, seen, 8)
}

func TestIntersect(t *testing.T) {
	a := Bounds{{-1, -1, -1}, {2, 2, 2}}
	b := Bounds{{0, -3, 0.5}, {3, 1, 1.5}}

	got := Intersect(a, b)
	assert.Equal(t, Bounds{{0, -1, 0.5}, {2, 1, 1.5}}, got)
}

func TestAlignBox(t *testing.T) {
	tests := []struct {
		name          string
		x, y, w, h    int
		width, height int
		expected      Crop
	}{
		{"RoundUpRecenter", 100, 100, 50, 40, 640, 480, Crop{X: 93, Y: 88, W: 64, H: 64}},
		{"AlreadyAligned", 32, 64, 64, 32, 640, 480, Crop{X: 32, Y: 64, W: 64, H: 32}},
		{"ClampLow", 2, 2, 50, 50, 640, 480, Crop{X: 0, Y: 0, W: 64, H: 64}},
		{"ClampHigh", 600, 450, 30, 20, 640, 480, Crop{X: 599, Y: 444, W: 32, H: 32}},
		{"FullImage", 0, 0, 640, 480, 640, 480, Crop{X: 0, Y: 0, W: 640, H: 480}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AlignBox(tt.x, tt.y, tt.w, tt.h, tt.width, tt.height)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Zero(t, got.W%32)
			assert.Zero(t, got.H%32)
			assert.GreaterOrEqual(t, got.X, 0)
			assert.GreaterOrEqual(t, got.Y, 0)
			assert.LessOrEqual(t, got.X+got.W, tt.width)
			assert.LessOrEqual(t, got.Y+got.H, tt.height)
		})
	}
}

func TestAlignBoxRoundDownFallback(t *testing.T) {
	// Rounding up would exceed the image; both dimensions round down and
	// the smaller box re-centers inside the original one.
	got, err := AlignBox(0, 0, 50, 40, 60, 60)
	require.NoError(t, err)
	assert.Equal(t, Crop{X: 9, Y: 4, W: 32, H: 32}, got)
}

func TestAlignBoxDegenerate(t *testing.T) {
	var degenerate *ErrDegenerateBounds

	_, err := AlignBox(0, 0, 0, 10, 640, 480)
	require.ErrorAs(t, err, &degenerate)

	// Too small to survive the round-down fallback.
	_, err = AlignBox(0, 0, 10, 10, 20, 20)
	require.ErrorAs(t, err, &degenerate)
}

func TestNearFar(t *testing.T) {
	b := Bounds{{-1, -1, 4}, {1, 1, 6}}
	near, far := NearFar(b, camera.Identity4())
	assert.InDelta(t, 4, near, 1e-12)
	assert.InDelta(t, 6, far, 1e-12)
}

func TestNearFarClampsNear(t *testing.T) {
	// A bound straddling the camera plane clamps near to a small positive
	// value.
	b := Bounds{{-1, -1, -2}, {1, 1, 3}}
	near, far := NearFar(b, camera.Identity4())
	assert.Greater(t, near, 0.0)
	assert.InDelta(t, 3, far, 1e-12)
}

func TestBoundCrop(t *testing.T) {
	// Camera at the origin looking down +z, focal 100, principal point at
	// the image center of a 640x480 image. The unit box at z in [4, 6]
	// projects to a 50x50 region around the center.
	ixt := camera.Matrix3{
		{100, 0, 320},
		{0, 100, 240},
		{0, 0, 1},
	}
	b := Bounds{{-1, -1, 4}, {1, 1, 6}}

	crop, err := BoundCrop(b, ixt, camera.Identity4(), 640, 480)
	require.NoError(t, err)

	assert.Equal(t, 288, crop.X)
	assert.Equal(t, 208, crop.Y)
	assert.Equal(t, 64, crop.W)
	assert.Equal(t, 64, crop.H)
	assert.InDelta(t, 4, crop.Near, 1e-12)
	assert.InDelta(t, 6, crop.Far, 1e-12)
}

func TestBoundCropBehindCamera(t *testing.T) {
	ixt := camera.Matrix3{
		{100, 0, 320},
		{0, 100, 240},
		{0, 0, 1},
	}
	b := Bounds{{-1, -1, -6}, {1, 1, -4}}

	var degenerate *ErrDegenerateBounds
	_, err := BoundCrop(b, ixt, camera.Identity4(), 640, 480)
	require.ErrorAs(t, err, &degenerate)
}
