// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/chazu/integral/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// span is an axis-aligned box kept alongside the SDF so unions of boxes can
// be meshed exactly instead of through marching cubes.
type span struct {
	min, max v3.Vec
}

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid. spans is non-nil
// only while the solid is built purely from boxes.
type sdfxSolid struct {
	s     sdf.SDF3
	spans []span
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	// MeshCells is the marching cubes resolution.
	MeshCells int

	// Marching forces marching cubes tessellation even for box unions.
	Marching bool
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{MeshCells: defaultMeshCells}
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

func toVec(a [3]float64) v3.Vec {
	return v3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// Box creates a box spanning min to max. sdf.Box3D centers the box at the
// origin, so it is translated to the midpoint of the span.
func (k *SdfxKernel) Box(min, max [3]float64) kernel.Solid {
	lo, hi := toVec(min), toVec(max)
	size := hi.Sub(lo)
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(lo.Add(size.MulScalar(0.5)))
	return &sdfxSolid{
		s:     sdf.Transform3D(s, m),
		spans: []span{{min: lo, max: hi}},
	}
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.UnionAll(a, b)
}

// UnionAll returns the union of solids as one flat sdf.Union3D. The spans of
// box-only inputs are gathered in a single pass.
func (k *SdfxKernel) UnionAll(solids ...kernel.Solid) kernel.Solid {
	switch len(solids) {
	case 0:
		return nil
	case 1:
		return solids[0]
	}

	sdfs := make([]sdf.SDF3, len(solids))
	count := 0
	boxes := true
	for i, s := range solids {
		src := unwrap(s)
		sdfs[i] = src.s
		count += len(src.spans)
		if src.spans == nil {
			boxes = false
		}
	}

	u := &sdfxSolid{s: sdf.Union3D(sdfs...)}
	if boxes {
		u.spans = make([]span, 0, count)
		for _, s := range solids {
			u.spans = append(u.spans, unwrap(s).spans...)
		}
	}
	return u
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	src := unwrap(s)
	d := v3.Vec{X: x, Y: y, Z: z}
	out := &sdfxSolid{s: sdf.Transform3D(src.s, sdf.Translate3d(d))}
	if src.spans != nil {
		out.spans = make([]span, len(src.spans))
		for i, sp := range src.spans {
			out.spans[i] = span{min: sp.min.Add(d), max: sp.max.Add(d)}
		}
	}
	return out
}

// ToMesh converts a solid to a triangle mesh. Box unions are meshed exactly
// with 12 triangles per box unless Marching is set.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	return FromTriangles(k.Triangles(s)), nil
}

// Triangles returns the sdfx triangles of a solid.
func (k *SdfxKernel) Triangles(s kernel.Solid) []*sdf.Triangle3 {
	src := unwrap(s)
	if src.spans != nil && !k.Marching {
		triangles := make([]*sdf.Triangle3, 0, len(src.spans)*12)
		for _, sp := range src.spans {
			triangles = append(triangles, boxTriangles(sp.min, sp.max)...)
		}
		return triangles
	}

	cells := k.MeshCells
	if cells <= 0 {
		cells = defaultMeshCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	return render.ToTriangles(src.s, renderer)
}

// boxTriangles emits the six faces of a box, wound counter-clockwise when
// seen from outside.
func boxTriangles(lo, hi v3.Vec) []*sdf.Triangle3 {
	x0, y0, z0 := lo.X, lo.Y, lo.Z
	x1, y1, z1 := hi.X, hi.Y, hi.Z
	p := func(x, y, z float64) v3.Vec { return v3.Vec{X: x, Y: y, Z: z} }

	quads := [6][4]v3.Vec{
		{p(x1, y0, z0), p(x1, y1, z0), p(x1, y1, z1), p(x1, y0, z1)}, // +X
		{p(x0, y0, z0), p(x0, y0, z1), p(x0, y1, z1), p(x0, y1, z0)}, // -X
		{p(x0, y1, z0), p(x0, y1, z1), p(x1, y1, z1), p(x1, y1, z0)}, // +Y
		{p(x0, y0, z0), p(x1, y0, z0), p(x1, y0, z1), p(x0, y0, z1)}, // -Y
		{p(x0, y0, z1), p(x1, y0, z1), p(x1, y1, z1), p(x0, y1, z1)}, // +Z
		{p(x0, y0, z0), p(x0, y1, z0), p(x1, y1, z0), p(x1, y0, z0)}, // -Z
	}

	triangles := make([]*sdf.Triangle3, 0, 12)
	for _, q := range quads {
		triangles = append(triangles,
			&sdf.Triangle3{q[0], q[1], q[2]},
			&sdf.Triangle3{q[0], q[2], q[3]},
		)
	}
	return triangles
}

// FromTriangles flattens sdfx triangles into a kernel.Mesh with face normals.
func FromTriangles(triangles []*sdf.Triangle3) *kernel.Mesh {
	numVerts := len(triangles) * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
}

// ToTriangles converts kernel meshes back into sdfx triangles.
func ToTriangles(meshes ...*kernel.Mesh) []*sdf.Triangle3 {
	var triangles []*sdf.Triangle3
	for _, m := range meshes {
		if m == nil {
			continue
		}
		for t := 0; t < m.TriangleCount(); t++ {
			c := m.Triangle(t)
			tri := &sdf.Triangle3{}
			for k := 0; k < 3; k++ {
				tri[k] = v3.Vec{X: float64(c[k][0]), Y: float64(c[k][1]), Z: float64(c[k][2])}
			}
			triangles = append(triangles, tri)
		}
	}
	return triangles
}

// SaveSTL writes meshes to a binary STL file.
func SaveSTL(path string, meshes ...*kernel.Mesh) error {
	triangles := ToTriangles(meshes...)
	if len(triangles) == 0 {
		return fmt.Errorf("sdfx: no triangles to write to %s", path)
	}
	if err := render.SaveSTL(path, triangles); err != nil {
		return fmt.Errorf("sdfx: save stl %s: %w", path, err)
	}
	return nil
}
