// Package export writes staircase scenes to files: STL meshes, an HTML
// bar chart, a PNG heat map and a JSON scene document.
package export

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/grid"
)

// ErrTypeExport classifies export failures.
const ErrTypeExport = "export-failed"

// MaxChartLevel is the deepest level WriteHTML and WritePNG accept.
const MaxChartLevel grid.Level = 7

func checkChartLevel(level grid.Level) error {
	if err := level.Validate(); err != nil {
		return err
	}
	if level > MaxChartLevel {
		return errors.New("level too deep for a chart").
			WithType(ErrTypeExport).
			WithTag("level", int(level)).
			WithTag("max", int(MaxChartLevel))
	}
	return nil
}

// topHeights returns the height of the staircase over every cell of level,
// indexed [i][j]. Boxes from other levels are projected onto the cells they
// cover.
func topHeights(boxes []grid.BoxSpec, level grid.Level) [][]float64 {
	n := level.CellsPerAxis()
	heights := make([][]float64, n)
	for i := range heights {
		heights[i] = make([]float64, n)
	}

	for _, b := range boxes {
		i0, i1, j0, j1 := b.I, b.I+1, b.J, b.J+1
		if b.Level <= level {
			shift := uint(level - b.Level)
			i0, i1, j0, j1 = i0<<shift, i1<<shift, j0<<shift, j1<<shift
		} else {
			shift := uint(b.Level - level)
			i0, j0 = i0>>shift, j0>>shift
			i1, j1 = i0+1, j0+1
		}
		for i := i0; i < i1 && i < n; i++ {
			for j := j0; j < j1 && j < n; j++ {
				if b.ThisHeight > heights[i][j] {
					heights[i][j] = b.ThisHeight
				}
			}
		}
	}
	return heights
}
