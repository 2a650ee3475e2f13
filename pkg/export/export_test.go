package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/chazu/integral/pkg/kernel/sdfx"
	"github.com/chazu/integral/pkg/scene"
	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopHeights(t *testing.T) {
	t.Run("same level", func(t *testing.T) {
		got := topHeights(grid.MustGenerate(1, 0, grid.Sum), 1)
		want := [][]float64{{0, 0.5}, {0.5, 1}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("heights mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("incremental layers stack", func(t *testing.T) {
		boxes := append(grid.MustGenerate(1, 0, grid.Sum), grid.MustGenerate(2, 1, grid.Sum)...)
		full := topHeights(grid.MustGenerate(2, 0, grid.Sum), 2)
		if diff := cmp.Diff(full, topHeights(boxes, 2)); diff != "" {
			t.Errorf("chain differs from full layer (-full +chain):\n%s", diff)
		}
	})

	t.Run("finer boxes project up", func(t *testing.T) {
		got := topHeights(grid.MustGenerate(2, 0, grid.Sum), 1)
		want := [][]float64{{0.5, 1}, {1, 1.5}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("heights mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestWriteSTL(t *testing.T) {
	k := sdfx.New()
	mesh, err := k.ToMesh(k.Box([3]float64{0, 0, 0}, [3]float64{1, 1, 1}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.stl")
	require.NoError(t, WriteSTL(path, []*kernel.Mesh{mesh, mesh}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(84+24*50), info.Size())

	err = WriteSTL(filepath.Join(t.TempDir(), "empty.stl"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, ErrTypeExport))
}

func TestWriteHTML(t *testing.T) {
	var b bytes.Buffer
	boxes := grid.MustGenerate(3, 0, grid.Sum)
	require.NoError(t, WriteHTML(&b, "x + y", boxes, 3))

	out := b.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "x + y")
	assert.Contains(t, out, "bar3D")

	err := WriteHTML(&b, "too deep", nil, MaxChartLevel+1)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, ErrTypeExport))
}

func TestWritePNG(t *testing.T) {
	dir := t.TempDir()

	for _, level := range []grid.Level{0, 2} {
		path := filepath.Join(dir, level.String()+".png")
		require.NoError(t, WritePNG(path, grid.MustGenerate(level, 0, grid.Sum), level))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "not a png")
	}

	err := WritePNG(filepath.Join(dir, "deep.png"), nil, MaxChartLevel+1)
	require.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	sink := scene.NewMeshSink(sdfx.New())
	s := scene.NewSession(grid.Sum, sink)
	cfg := config.Default()
	cfg.N = 2
	require.NoError(t, s.Apply(cfg))

	doc := NewDocument(s, sink, 0)
	require.Len(t, doc.Layers, 2)
	assert.Equal(t, grid.Pair(1, 0), doc.Layers[0].Pair)
	assert.Equal(t, scene.LayerColor(2), doc.Layers[1].Color)
	assert.Equal(t, 12, doc.Layers[1].Boxes)
	require.NotNil(t, doc.Surface)
	assert.Equal(t, scene.SurfaceColor, doc.Surface.Color)
	assert.NotEmpty(t, doc.Grid)
	assert.Equal(t, scene.Palette(false, 0), doc.Party)

	var b strings.Builder
	require.NoError(t, WriteJSON(&b, doc))

	var decoded Document
	require.NoError(t, json.Unmarshal([]byte(b.String()), &decoded))
	assert.Equal(t, s.ID, decoded.SessionID)
	assert.Equal(t, cfg, decoded.Config)
	require.Len(t, decoded.Layers, 2)
	assert.Equal(t, doc.Layers[1].Mesh.Indices, decoded.Layers[1].Mesh.Indices)
	assert.Len(t, decoded.Grid, len(doc.Grid))

	cfg.Party = true
	require.NoError(t, s.Apply(cfg))
	party := NewDocument(s, sink, 1.5)
	assert.True(t, party.Party.On)
	assert.Equal(t, scene.PartyColor(1.5, scene.LevelTextFrequency).Hex(), party.Party.LevelText)
	assert.Len(t, party.Party.Buttons, 6)
}
