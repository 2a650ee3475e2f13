// Package tessellate turns staircase layers and height surfaces into
// triangle meshes using a geometry kernel. One mesh is produced per layer.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
)

// SurfacePart is the PartName of meshes built by Surface.
const SurfacePart = "surface"

// LayerBoxes is the geometry of one materialized (level, previousLevel) pair.
type LayerBoxes struct {
	Pair  grid.LevelPair
	Boxes []grid.BoxSpec
}

// Bounds returns the Y-up corners of b: x and y of the footprint map to X
// and Z, the height range maps to Y.
func Bounds(b grid.BoxSpec) (min, max [3]float64) {
	min = [3]float64{b.MinX, b.PreviousHeight, b.MinY}
	max = [3]float64{b.MinX + b.Size, b.ThisHeight, b.MinY + b.Size}
	return min, max
}

// Tessellate produces one mesh per layer, in the order given. The input is
// never mutated.
func Tessellate(layers []LayerBoxes, k kernel.Kernel) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(layers))
	for _, l := range layers {
		m, err := Layer(l.Pair, l.Boxes, k)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking layer %s: %w", l.Pair, err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Layer unions the boxes of one layer into a single solid in one pass and
// meshes it. A layer without boxes yields an empty mesh.
func Layer(pair grid.LevelPair, boxes []grid.BoxSpec, k kernel.Kernel) (*kernel.Mesh, error) {
	if len(boxes) == 0 {
		return &kernel.Mesh{PartName: pair.String()}, nil
	}

	solids := make([]kernel.Solid, len(boxes))
	for i, b := range boxes {
		solids[i] = boxSolid(k, b)
	}
	solid := k.UnionAll(solids...)

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for layer %s: %w", pair, err)
	}
	mesh.PartName = pair.String()
	return mesh, nil
}

// boxSolid builds the box at the origin and moves it into place, the way a
// part is placed under a transform.
func boxSolid(k kernel.Kernel, b grid.BoxSpec) kernel.Solid {
	min, max := Bounds(b)
	extent := [3]float64{max[0] - min[0], max[1] - min[1], max[2] - min[2]}
	s := k.Box([3]float64{}, extent)
	if min[0] != 0 || min[1] != 0 || min[2] != 0 {
		s = k.Translate(s, min[0], min[1], min[2])
	}
	return s
}

// Surface samples f on a resolution x resolution grid over the unit square
// and returns a double-sided mesh of the sampled surface. With resolution 1
// the surface of x + y is the plane through (0,0,0), (1,1,0), (0,1,1) and
// (1,2,1).
func Surface(f grid.HeightFunc, resolution int) (*kernel.Mesh, error) {
	if f == nil {
		return nil, fmt.Errorf("tessellate: nil height function")
	}
	if resolution < 1 {
		return nil, fmt.Errorf("tessellate: surface resolution %d must be positive", resolution)
	}

	side := resolution + 1
	vertices := make([]float32, 0, side*side*3)
	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			x := float64(i) / float64(resolution)
			y := float64(j) / float64(resolution)
			h := f(x, y)
			if math.IsNaN(h) || math.IsInf(h, 0) {
				return nil, fmt.Errorf("tessellate: height at (%g, %g) is not finite", x, y)
			}
			vertices = append(vertices, float32(x), float32(h), float32(y))
		}
	}

	at := func(i, j int) uint32 { return uint32(j*side + i) }
	indices := make([]uint32, 0, resolution*resolution*6)
	for j := 0; j < resolution; j++ {
		for i := 0; i < resolution; i++ {
			v00, v10 := at(i, j), at(i+1, j)
			v01, v11 := at(i, j+1), at(i+1, j+1)
			// Wound so the front faces point up.
			indices = append(indices, v00, v01, v11, v00, v11, v10)
		}
	}

	front := &kernel.Mesh{
		Vertices: vertices,
		Normals:  kernel.FlatNormals(vertices, indices),
		Indices:  indices,
	}

	// The back side repeats the vertices with flipped winding and normals.
	back := &kernel.Mesh{
		Vertices: append([]float32(nil), vertices...),
		Normals:  make([]float32, len(front.Normals)),
		Indices:  make([]uint32, len(indices)),
	}
	for i, n := range front.Normals {
		back.Normals[i] = -n
	}
	for t := 0; t < len(indices); t += 3 {
		back.Indices[t] = indices[t]
		back.Indices[t+1] = indices[t+2]
		back.Indices[t+2] = indices[t+1]
	}

	front.Append(back)
	front.PartName = SurfacePart
	return front, nil
}
