// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import "github.com/chewxy/math32"

// Quat is a (w, x, y, z) rotation, nominally unit length.
type Quat struct {
	W, X, Y, Z float32
}

// IdentityQuat is the no-rotation quaternion.
var IdentityQuat = Quat{W: 1}

const quatRange = 0.7071068 // 1/sqrt(2)
const quatScale = 1.4142136 // 2/sqrt(2)

// CompressQuat implements the smallest-three encoding: drop the
// largest-magnitude component, sign-flip the rest so the dropped
// component is positive, and quantize the remaining three into 10 bits
// apiece, packed as [k:2][c2:10][c1:10][c0:10] in natural index order
// skipping k.
func CompressQuat(q Quat) uint32 {
	comps := [4]float32{q.W, q.X, q.Y, q.Z}
	largest := 0
	largestAbs := math32.Abs(comps[0])
	for i := 1; i < 4; i++ {
		a := math32.Abs(comps[i])
		if a > largestAbs {
			largest = i
			largestAbs = a
		}
	}

	sign := float32(1)
	if comps[largest] < 0 {
		sign = -1
	}

	packed := uint32(largest) << 30
	slot := uint(0)
	for i := 0; i < 4; i++ {
		if i == largest {
			continue
		}
		val := comps[i] * sign
		quantized := int32((val+quatRange)/quatScale*1023 + 0.5)
		if quantized < 0 {
			quantized = 0
		}
		if quantized > 1023 {
			quantized = 1023
		}
		packed |= uint32(quantized) << (slot * 10)
		slot++
	}
	return packed
}

// DecompressQuat inverts CompressQuat. The dropped component is
// reconstructed as sqrt(max(0, 1 - sumSq)) with a positive sign.
func DecompressQuat(packed uint32) Quat {
	largest := int((packed >> 30) & 0x3)
	var comps [4]float32
	var sumSq float32
	slot := uint(0)
	for i := 0; i < 4; i++ {
		if i == largest {
			continue
		}
		quantized := (packed >> (slot * 10)) & 0x3FF
		comps[i] = float32(quantized)/1023*quatScale - quatRange
		sumSq += comps[i] * comps[i]
		slot++
	}
	rem := 1 - sumSq
	if rem < 0 {
		rem = 0
	}
	comps[largest] = math32.Sqrt(rem)
	return Quat{W: comps[0], X: comps[1], Y: comps[2], Z: comps[3]}
}

// Dot returns the 4D dot product of two quaternions.
func (q Quat) Dot(o Quat) float32 {
	return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
}

func (q Quat) negate() Quat {
	return Quat{-q.W, -q.X, -q.Y, -q.Z}
}

// Slerp picks the short arc, falls back to an unnormalized linear blend
// near-parallel, otherwise performs standard spherical interpolation.
func Slerp(a, b Quat, u float32) Quat {
	d := a.Dot(b)
	if d < 0 {
		b = b.negate()
		d = -d
	}
	if d > 0.9995 {
		return Quat{
			W: a.W + u*(b.W-a.W),
			X: a.X + u*(b.X-a.X),
			Y: a.Y + u*(b.Y-a.Y),
			Z: a.Z + u*(b.Z-a.Z),
		}
	}
	theta := math32.Acos(d)
	sinTheta := math32.Sin(theta)
	wa := math32.Sin((1 - u) * theta) / sinTheta
	wb := math32.Sin(u*theta) / sinTheta
	return Quat{
		W: wa*a.W + wb*b.W,
		X: wa*a.X + wb*b.X,
		Y: wa*a.Y + wb*b.Y,
		Z: wa*a.Z + wb*b.Z,
	}
}
