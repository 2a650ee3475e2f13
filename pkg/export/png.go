package export

import (
	"fmt"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/grid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// heightGrid adapts staircase heights to plotter.GridXYZ. Columns run along
// x and rows along y; coordinates are cell centers.
type heightGrid struct {
	heights [][]float64
	size    float64
}

func (g heightGrid) Dims() (c, r int) {
	return len(g.heights), len(g.heights)
}

func (g heightGrid) Z(c, r int) float64 {
	return g.heights[c][r]
}

func (g heightGrid) X(c int) float64 {
	return (float64(c) + 0.5) * g.size
}

func (g heightGrid) Y(r int) float64 {
	return (float64(r) + 0.5) * g.size
}

// WritePNG renders the staircase top at level as a heat map image. A level
// 0 staircase is drawn on the level 1 grid.
func WritePNG(path string, boxes []grid.BoxSpec, level grid.Level) error {
	if err := checkChartLevel(level); err != nil {
		return err
	}

	res := level
	if res < 1 {
		res = 1
	}
	g := heightGrid{heights: topHeights(boxes, res), size: res.CellSize()}

	heatMap := plotter.NewHeatMap(g, palette.Heat(16, 1))
	if heatMap.Min == heatMap.Max {
		heatMap.Max = heatMap.Min + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("staircase n=%d", int(level))
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(heatMap)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.New("writing png failed").
			WithType(ErrTypeExport).
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
