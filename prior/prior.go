// Package prior computes foreground crop regions from 3D axis-aligned
// bounds: the bound is projected into image space, padded to a 32-aligned
// box, re-centered, clamped, and annotated with near/far clip planes.
package prior

import (
	"fmt"
	"math"

	"github.com/hupe1980/viewsel/camera"
)

// ErrDegenerateBounds indicates a bound that projects to zero area.
// The caller is responsible for supplying a non-degenerate prior; this is
// reported as a configuration error, never silently passed through.
type ErrDegenerateBounds struct {
	Bounds Bounds
}

func (e *ErrDegenerateBounds) Error() string {
	return fmt.Sprintf("bounds %v project to zero area", e.Bounds)
}

// Bounds is a 3D axis-aligned bound: element 0 is the lower corner,
// element 1 the upper corner.
type Bounds [2]camera.Vec3

// Corners returns the 8 corners of the bound.
func (b Bounds) Corners() [8]camera.Vec3 {
	var out [8]camera.Vec3
	for i := 0; i < 8; i++ {
		out[i] = camera.Vec3{
			b[(i>>0)&1][0],
			b[(i>>1)&1][1],
			b[(i>>2)&1][2],
		}
	}
	return out
}

// Intersect returns the intersection of two bounds: elementwise max of the
// lower corners and min of the upper corners.
func Intersect(a, b Bounds) Bounds {
	var out Bounds
	for i := 0; i < 3; i++ {
		out[0][i] = math.Max(a[0][i], b[0][i])
		out[1][i] = math.Min(a[1][i], b[1][i])
	}
	return out
}

// Crop is a 2D crop region with its depth range along the camera viewing
// axis.
type Crop struct {
	X, Y int
	W, H int

	Near, Far float64
}

// BoundCrop projects the bound through the camera and returns the aligned,
// clamped crop region together with the near/far planes.
func BoundCrop(b Bounds, ixt camera.Matrix3, ext camera.Matrix4, width, height int) (Crop, error) {
	x, y, w, h, err := projectBox(b, ixt, ext, width, height)
	if err != nil {
		return Crop{}, err
	}
	crop, err := AlignBox(x, y, w, h, width, height)
	if err != nil {
		return Crop{}, err
	}
	crop.Near, crop.Far = NearFar(b, ext)
	return crop, nil
}

// projectBox projects the 8 bound corners into image space and returns the
// clamped axis-aligned 2D box.
func projectBox(b Bounds, ixt camera.Matrix3, ext camera.Matrix4, width, height int) (x, y, w, h int, err error) {
	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, corner := range b.Corners() {
		pc := ext.ApplyAffine(corner)
		if pc[2] <= depthEpsilon {
			continue
		}
		uvw := ixt.MulVec(pc)
		u := uvw[0] / uvw[2]
		v := uvw[1] / uvw[2]
		minU = math.Min(minU, u)
		minV = math.Min(minV, v)
		maxU = math.Max(maxU, u)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minU, 1) {
		return 0, 0, 0, 0, &ErrDegenerateBounds{Bounds: b}
	}

	x0 := clampf(math.Floor(minU), 0, float64(width))
	y0 := clampf(math.Floor(minV), 0, float64(height))
	x1 := clampf(math.Ceil(maxU), 0, float64(width))
	y1 := clampf(math.Ceil(maxV), 0, float64(height))
	if x1-x0 <= 0 || y1-y0 <= 0 {
		return 0, 0, 0, 0, &ErrDegenerateBounds{Bounds: b}
	}
	return int(x0), int(y0), int(x1 - x0), int(y1 - y0), nil
}

// AlignBox rounds the box dimensions up to the next multiple of 32 (down if
// rounding up would exceed the image), re-centers the box on the original
// one, and clamps it inside the image.
//
// Invariants on success: w and h are multiples of 32, w <= width,
// h <= height, x >= 0, y >= 0, x+w <= width, y+h <= height.
func AlignBox(x, y, w, h, width, height int) (Crop, error) {
	if w <= 0 || h <= 0 {
		return Crop{}, &ErrDegenerateBounds{}
	}

	wa := ceilMultiple(w, 32)
	ha := ceilMultiple(h, 32)
	// Rounding up may exceed the image at low resolution; fall back to
	// rounding down for both dimensions.
	if wa > width || ha > height {
		wa = (w / 32) * 32
		ha = (h / 32) * 32
	}
	if wa <= 0 || ha <= 0 {
		return Crop{}, &ErrDegenerateBounds{}
	}

	xa := clampi(x-(wa-w)/2, 0, width-wa)
	ya := clampi(y-(ha-h)/2, 0, height-ha)
	return Crop{X: xa, Y: ya, W: wa, H: ha}, nil
}

// NearFar returns the depth range of the bound corners along the camera
// viewing axis. Near is clamped to a small positive value.
func NearFar(b Bounds, ext camera.Matrix4) (near, far float64) {
	near, far = math.Inf(1), math.Inf(-1)
	for _, corner := range b.Corners() {
		z := ext.ApplyAffine(corner)[2]
		near = math.Min(near, z)
		far = math.Max(far, z)
	}
	if near < depthEpsilon {
		near = depthEpsilon
	}
	return near, far
}

const depthEpsilon = 1e-6

func ceilMultiple(v, m int) int {
	return ((v + m - 1) / m) * m
}

func clampf(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clampi(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
