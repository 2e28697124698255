// Package camera provides the pose and matrix primitives used for
// source-view selection: rigid-transform math, camera center extraction
// and point projection.
package camera

import (
	"fmt"
	"math"
)

// Vec3 is a 3D vector.
type Vec3 [3]float64

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Matrix3 is a row-major 3x3 matrix, typically a camera intrinsic or a
// rotation block.
type Matrix3 [3][3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Matrix3 {
	return Matrix3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// MulVec returns m * v.
func (m Matrix3) MulVec(v Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

// Transpose returns the transpose of m.
func (m Matrix3) Transpose() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Matrix4 is a row-major 4x4 homogeneous transform.
type Matrix4 [4][4]float64

// Identity4 returns the 4x4 identity matrix.
func Identity4() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// AffinePadding builds a 4x4 homogeneous transform from a rotation and a
// translation, with the last row set to (0, 0, 0, 1).
func AffinePadding(r Matrix3, t Vec3) Matrix4 {
	var m Matrix4
	for i := 0; i < 3; i++ {
		copy(m[i][:3], r[i][:])
		m[i][3] = t[i]
	}
	m[3] = [4]float64{0, 0, 0, 1}
	return m
}

// Rotation returns the upper-left 3x3 rotation block of m.
func (m Matrix4) Rotation() Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		copy(r[i][:], m[i][:3])
	}
	return r
}

// Translation returns the translation column of m.
func (m Matrix4) Translation() Vec3 {
	return Vec3{m[0][3], m[1][3], m[2][3]}
}

// AffineInverse inverts a rigid transform: the rotation block is transposed
// and the translation becomes -R^T * t. The input must have an orthonormal
// rotation block; this is not checked.
func (m Matrix4) AffineInverse() Matrix4 {
	rt := m.Rotation().Transpose()
	t := m.Translation()
	nt := rt.MulVec(t)
	return AffinePadding(rt, Vec3{-nt[0], -nt[1], -nt[2]})
}

// ApplyAffine transforms the point p by m, treating p as a homogeneous
// point with w = 1.
func (m Matrix4) ApplyAffine(p Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*p[0] + m[i][1]*p[1] + m[i][2]*p[2] + m[i][3]
	}
	return out
}

// Center extracts the camera center from a world-to-camera extrinsic:
// the translation component of the camera-to-world inverse.
func (m Matrix4) Center() Vec3 {
	return m.AffineInverse().Translation()
}

// Pose pairs a world-to-camera extrinsic with a camera intrinsic.
type Pose struct {
	Ext Matrix4
	Ixt Matrix3
}

// Center returns the camera center of the pose.
func (p Pose) Center() Vec3 {
	return p.Ext.Center()
}

// Axis names the axis along which source candidates are enumerated.
type Axis int

const (
	// AxisView ranks and samples candidates across cameras at a fixed time.
	AxisView Axis = iota
	// AxisTime ranks and samples candidates across frames at a fixed camera.
	AxisTime
)

func (a Axis) String() string {
	switch a {
	case AxisView:
		return "view"
	case AxisTime:
		return "time"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}
