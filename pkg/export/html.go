package export

import (
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/scene"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders the staircase top at level as an interactive 3D bar
// chart page.
func WriteHTML(w io.Writer, title string, boxes []grid.BoxSpec, level grid.Level) error {
	if err := checkChartLevel(level); err != nil {
		return err
	}

	heights := topHeights(boxes, level)
	data := make([]opts.Chart3DData, 0, len(heights)*len(heights))
	maxHeight := 0.0
	for i, row := range heights {
		for j, h := range row {
			data = append(data, opts.Chart3DData{Value: []interface{}{i, j, h}})
			if h > maxHeight {
				maxHeight = h
			}
		}
	}

	colors := make([]string, 0, int(level)+1)
	for n := grid.Level(0); n <= level; n++ {
		colors = append(colors, scene.LayerColor(n).Hex())
	}

	bar := charts.NewBar3D()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("n=%d cells=%d", int(level), len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxHeight),
			InRange:    &opts.VisualMapInRange{Color: colors},
		}),
	)
	bar.AddSeries("height", data)

	if err := bar.Render(w); err != nil {
		return errors.New("rendering html chart failed").
			WithType(ErrTypeExport).
			Wrap(err)
	}
	return nil
}
