package octree

import (
	"math"
)

func EqualWithEpsilon(a float32, b float32, epsilon float64) bool {
	return math.Abs((float64)(a-b)) <= epsilon
}

type Vector3f struct {
	X float32
	Y float32
	Z float32
}

func NewVector3f(x, y, z float32) Vector3f {
	return Vector3f{x, y, z}
}

func (v1 Vector3f) Equal(v2 Vector3f) bool {
	return v1.X == v2.X && v1.Y == v2.Y && v1.Z == v2.Z
}

func (v1 Vector3f) EqualWithEpsilon(v2 Vector3f, epsilon float64) bool {
	return math.Abs((float64)(v1.X-v2.X)) <= epsilon &&
		math.Abs((float64)(v1.Y-v2.Y)) <= epsilon &&
		math.Abs((float64)(v1.Z-v2.Z)) <= epsilon
}

func Add(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Mul(a Vector3f, s float32) Vector3f {
	return Vector3f{a.X * s, a.Y * s, a.Z * s}
}

func (a Vector3f) Length() float64 {
	return math.Sqrt((float64)(a.X*a.X + a.Y*a.Y + a.Z*a.Z))
}

// InCube reports whether the point lies within the axis-aligned cube of the
// given center and edge length.
func (a Vector3f) InCube(center Vector3f, size float32) bool {
	half := size / 2
	return a.X >= center.X-half && a.X <= center.X+half &&
		a.Y >= center.Y-half && a.Y <= center.Y+half &&
		a.Z >= center.Z-half && a.Z <= center.Z+half
}
