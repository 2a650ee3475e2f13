package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/engine"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneConfig(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		cfg, steps, err := sceneConfig(options{N: 4, Incremental: true, Party: true, Steps: []string{"1", " 3", ""}})
		require.NoError(t, err)
		assert.Equal(t, config.Config{N: 4, Incremental: true, Party: true}, cfg)
		assert.Equal(t, []grid.Level{1, 3}, steps)
	})

	t.Run("file overrides flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scene.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"n": 2, "show_incremental_cubes": false}`), 0o644))

		cfg, _, err := sceneConfig(options{N: 5, Config: path})
		require.NoError(t, err)
		assert.Equal(t, grid.Level(2), cfg.N)
		assert.False(t, cfg.Incremental)
		assert.True(t, cfg.ShowFunction)
	})

	t.Run("bad step", func(t *testing.T) {
		_, _, err := sceneConfig(options{N: 1, Steps: []string{"two"}})
		require.Error(t, err)
		assert.Equal(t, config.ErrTypeInvalidConfig, errors.Type(err))
	})

	t.Run("bad level", func(t *testing.T) {
		_, _, err := sceneConfig(options{N: -1})
		require.Error(t, err)
	})
}

func TestHeightSource(t *testing.T) {
	ctx := context.Background()

	src, err := heightSource(ctx, options{})
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultSource, src)

	src, err = heightSource(ctx, options{Height: "(* x y)"})
	require.NoError(t, err)
	assert.Equal(t, "(* x y)", src)

	path, err := filepath.Abs("examples/product.zy")
	require.NoError(t, err)
	src, err = heightSource(ctx, options{HeightSrc: path})
	require.NoError(t, err)
	assert.Contains(t, src, "(* x y)")

	_, err = heightSource(ctx, options{Height: "x", HeightSrc: path})
	require.Error(t, err)
}

func TestGeometryKernel(t *testing.T) {
	k, err := geometryKernel("sdfx")
	require.NoError(t, err)
	assert.NotNil(t, k)

	_, err = geometryKernel("cadquery")
	require.Error(t, err)

	// Without the manifold build tag the kernel is reported as unavailable.
	if k, err := geometryKernel("manifold"); err != nil {
		assert.True(t, errors.IsType(err, kernel.ErrTypeUnavailable))
	} else {
		assert.NotNil(t, k)
	}
}
