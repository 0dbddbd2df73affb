package model

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// ErrEmptyMesh is returned when a parsed mesh has no triangles.
var ErrEmptyMesh = errors.New("mesh has no triangles")

// BuildMesh interleaves an OBJ mesh into a vertex buffer.
// Positions are narrowed to float32 here; the parser keeps them in float64.
func BuildMesh(name string, obj *formats.OBJMesh, opts BuildOptions) (*Mesh, error) {
	if obj == nil || len(obj.Indices) == 0 {
		return nil, ErrEmptyMesh
	}
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	var bounds Bounds
	vertices := make([]Vertex, obj.VertexCount())
	for i := range vertices {
		p := obj.Positions[i]
		pos := [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
		if i == 0 {
			bounds = Bounds{Min: pos, Max: pos}
		} else {
			updateBounds(&bounds, pos)
		}

		n := obj.Normals[i]
		if opts.NormalizeNormals {
			n = Normalize(n)
		}

		var uv [2]float32
		if obj.HasUVs() {
			uv = obj.UVs[i]
			if opts.FlipV {
				uv[1] = 1 - uv[1]
			}
		}

		vertices[i] = Vertex{
			Position: pos,
			Normal:   n,
			TexCoord: uv,
		}
	}

	indices := make([]uint32, len(obj.Indices))
	copy(indices, obj.Indices)
	if opts.ReverseWinding {
		for i := 0; i+2 < len(indices); i += 3 {
			indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
		}
	}

	return &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
		HasUVs:   obj.HasUVs(),
		Bounds:   bounds,
	}, nil
}

// Normalize returns a unit vector in the same direction as v.
// Near-zero vectors map to +Y.
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 0.0001 {
		return mgl32.Vec3{0, 1, 0}
	}
	return v.Normalize()
}

// CenterMeshXZ centers the mesh horizontally (X/Z) but preserves Y offset.
// Returns the centering offset applied.
func CenterMeshXZ(m *Mesh) (centerX, centerZ float32) {
	bounds := &m.Bounds
	centerX = (bounds.Min[0] + bounds.Max[0]) / 2
	centerZ = (bounds.Min[2] + bounds.Max[2]) / 2

	for i := range m.Vertices {
		m.Vertices[i].Position[0] -= centerX
		m.Vertices[i].Position[2] -= centerZ
	}

	// Update bounds after centering
	bounds.Min[0] -= centerX
	bounds.Max[0] -= centerX
	bounds.Min[2] -= centerZ
	bounds.Max[2] -= centerZ

	return centerX, centerZ
}

// Upload builds the mesh and hands it to u.
func Upload(u Uploader, name string, obj *formats.OBJMesh, opts BuildOptions) (*Mesh, error) {
	m, err := BuildMesh(name, obj, opts)
	if err != nil {
		return nil, err
	}
	if err := u.UploadMesh(m); err != nil {
		return nil, err
	}
	return m, nil
}

func updateBounds(b *Bounds, p [3]float32) {
	if p[0] < b.Min[0] {
		b.Min[0] = p[0]
	}
	if p[1] < b.Min[1] {
		b.Min[1] = p[1]
	}
	if p[2] < b.Min[2] {
		b.Min[2] = p[2]
	}
	if p[0] > b.Max[0] {
		b.Max[0] = p[0]
	}
	if p[1] > b.Max[1] {
		b.Max[1] = p[1]
	}
	if p[2] > b.Max[2] {
		b.Max[2] = p[2]
	}
}
