package sdfx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/integral/pkg/kernel"
)

func TestBox(t *testing.T) {
	k := New()
	box := k.Box([3]float64{0, 0, 0}, [3]float64{1, 0.5, 0.25})
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	// A box should produce exactly 12 triangles (2 per face, 6 faces).
	if triCount := mesh.TriangleCount(); triCount != 12 {
		t.Fatalf("box triangle count: %d (expected 12)", triCount)
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != 36 {
		t.Fatalf("indices length %d != 36", len(mesh.Indices))
	}
}

func TestBoxNormalsPointOutward(t *testing.T) {
	k := New()
	lo := [3]float64{1, 2, 3}
	hi := [3]float64{2, 4, 6}
	mesh, err := k.ToMesh(k.Box(lo, hi))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}

	center := [3]float32{1.5, 3, 4.5}
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		c := mesh.Triangle(tri)
		i := mesh.Indices[tri*3]
		n := mesh.Normals[i*3 : i*3+3]
		// The vector from the box center to the face must agree with the normal.
		var dot float32
		for a := 0; a < 3; a++ {
			dot += (c[0][a] - center[a]) * n[a]
		}
		if dot <= 0 {
			t.Errorf("triangle %d normal %v points inward", tri, n)
		}
	}
}

func TestBoundingBox(t *testing.T) {
	k := New()
	box := k.Box([3]float64{0.25, 0, 0.5}, [3]float64{0.5, 0.75, 0.75})
	min, max := box.BoundingBox()

	const tol = 1e-9
	expectMin := [3]float64{0.25, 0, 0.5}
	expectMax := [3]float64{0.5, 0.75, 0.75}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestUnion(t *testing.T) {
	k := New()
	box1 := k.Box([3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	box2 := k.Box([3]float64{1, 0, 0}, [3]float64{2, 2, 1})
	u := k.Union(box1, box2)
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() != 24 {
		t.Fatalf("union triangle count = %d, expected 24", mesh.TriangleCount())
	}

	min, max := u.BoundingBox()
	if min != [3]float64{0, 0, 0} || max != [3]float64{2, 2, 1} {
		t.Errorf("union bounds = %v..%v", min, max)
	}
}

func TestUnionAll(t *testing.T) {
	k := New()
	if u := k.UnionAll(); u != nil {
		t.Errorf("UnionAll() = %v, expected nil", u)
	}

	box := k.Box([3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	if u := k.UnionAll(box); u != box {
		t.Error("UnionAll of one solid should return it unchanged")
	}

	solids := make([]kernel.Solid, 0, 3)
	for i := 0; i < 3; i++ {
		x := float64(i)
		solids = append(solids, k.Box([3]float64{x, 0, 0}, [3]float64{x + 1, x + 1, 1}))
	}
	u := k.UnionAll(solids...)
	if n := len(unwrap(u).spans); n != 3 {
		t.Fatalf("union holds %d spans, expected 3", n)
	}

	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() != 36 {
		t.Errorf("union triangle count = %d, expected 36", mesh.TriangleCount())
	}
	min, max := u.BoundingBox()
	if min != [3]float64{0, 0, 0} || max != [3]float64{3, 3, 1} {
		t.Errorf("union bounds = %v..%v", min, max)
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Box([3]float64{-5, -5, -5}, [3]float64{5, 5, 5})
	translated := k.Translate(box, 100, 200, 300)

	min, max := translated.BoundingBox()

	const tol = 1e-6
	expectMin := [3]float64{95, 195, 295}
	expectMax := [3]float64{105, 205, 305}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}

	// The exact mesh follows the translation too.
	mesh, err := k.ToMesh(translated)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	for i := 0; i < len(mesh.Vertices); i += 3 {
		if mesh.Vertices[i] < 95 || mesh.Vertices[i] > 105 {
			t.Fatalf("vertex x %f outside translated box", mesh.Vertices[i])
		}
	}
}

func TestMarchingCubes(t *testing.T) {
	k := &SdfxKernel{MeshCells: 20, Marching: true}
	box := k.Box([3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	t.Logf("marching cubes triangle count: %d", mesh.TriangleCount())
}

func TestToTrianglesRoundTrip(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Box([3]float64{0, 0, 0}, [3]float64{1, 2, 3}))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	triangles := ToTriangles(mesh, nil, &kernel.Mesh{})
	if len(triangles) != 12 {
		t.Fatalf("got %d triangles, expected 12", len(triangles))
	}
}

func TestSaveSTL(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Box([3]float64{0, 0, 0}, [3]float64{1, 1, 1}))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "box.stl")
	if err := SaveSTL(path, mesh); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Binary STL: 80 byte header, 4 byte count, 50 bytes per triangle.
	if want := int64(84 + 12*50); info.Size() != want {
		t.Errorf("stl size = %d, expected %d", info.Size(), want)
	}

	if err := SaveSTL(filepath.Join(t.TempDir(), "empty.stl")); err == nil {
		t.Error("expected error for empty mesh list")
	}
}
