// Package model builds interleaved, GPU-ready meshes from parsed OBJ data.
package model

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds the complete mesh data ready for GPU upload.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	HasUVs   bool
	Bounds   Bounds
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	// FlipV converts OBJ texture space (origin bottom-left) to top-left.
	FlipV bool
	// ReverseWinding swaps the second and third corner of every triangle.
	ReverseWinding bool
	// NormalizeNormals rescales normals to unit length.
	NormalizeNormals bool
}

// Uploader receives finished meshes. Rendering backends implement it.
type Uploader interface {
	UploadMesh(m *Mesh) error
}
