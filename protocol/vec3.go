// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"math"

	"github.com/chewxy/math32"
)

// Vec3 is a 3D position or displacement, matching the host game's float32
// coordinate space exactly.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Mul(scalar float32) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

func (v Vec3) AddScaled(o Vec3, factor float32) Vec3 {
	return Vec3{v.X + o.X*factor, v.Y + o.Y*factor, v.Z + o.Z*factor}
}

func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

func (v Vec3) Distance(o Vec3) float32 {
	return v.Sub(o).Length()
}

// Lerp returns the componentwise linear blend of a and b by u (not clamped).
func (v Vec3) Lerp(o Vec3, u float32) Vec3 {
	return Vec3{
		X: Lerp(v.X, o.X, u),
		Y: Lerp(v.Y, o.Y, u),
		Z: Lerp(v.Z, o.Z, u),
	}
}

func Lerp(a, b, u float32) float32 {
	return a + (b-a)*u
}

func Clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Floor32 delegates to math.Floor (assembly-backed) rather than a
// hand-rolled float32 floor.
func Floor32(v float32) float32 {
	return float32(math.Floor(float64(v)))
}
