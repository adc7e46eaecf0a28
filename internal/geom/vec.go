package geom

import "math"

// Vec3 represents a point or direction in simulation space. 2-D assemblies
// simply leave Z at zero; all derived quantities stay correct either way.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns the normalized vector and reports whether the input was long
// enough to normalize safely. Callers pick their own fallback axis for the
// degenerate case.
func (v Vec3) Unit() (Vec3, bool) {
	n := v.Norm()
	if n == 0 {
		return Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// UnitZ is the fallback normal used when two centers coincide within
// tolerance and no direction can be derived from their separation.
var UnitZ = Vec3{Z: 1}

// Dist returns the distance between two points.
func Dist(a, b Vec3) float64 {
	return b.Sub(a).Norm()
}

// DiskDiameter returns the diameter of a disk with the given area.
func DiskDiameter(area float64) float64 {
	if area <= 0 {
		return 0
	}
	return 2 * math.Sqrt(area/math.Pi)
}
