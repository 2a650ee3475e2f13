// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) turn box solids into triangle meshes
// behind this interface so the staircase can be rendered or exported without
// depending on a particular backend.
//
// Coordinates are Y-up: a box built from a grid cell spans (x, height, y).
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Box creates an axis-aligned box spanning min to max.
	Box(min, max [3]float64) Solid

	// Union combines two solids.
	Union(a, b Solid) Solid

	// UnionAll combines any number of solids at once. It returns nil when
	// given none.
	UnionAll(solids ...Solid) Solid

	// Translate moves a solid by (x, y, z).
	Translate(s Solid, x, y, z float64) Solid

	// ToMesh converts a solid to a triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}
