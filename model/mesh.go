package model

import "math"

// Vec3 is a position on (or near) the render sphere, in scene units.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Face references three vertices of the same country's vertex buffer.
type Face [3]int

// Mesh is the per-country output of the pipeline: a vertex buffer and the
// triangles indexing into it. Meshes are produced fresh per country and
// never share vertices across countries.
type Mesh struct {
	Name     string
	Vertices []Vec3
	Faces    []Face
}

// TriangleCount returns the number of faces.
func (m *Mesh) TriangleCount() int { return len(m.Faces) }
