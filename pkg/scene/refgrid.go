package scene

import "math"

// Line is a colored segment of the reference grid.
type Line struct {
	From  [3]float64 `json:"from"`
	To    [3]float64 `json:"to"`
	Color Color      `json:"color"`
}

// DefaultGridRadius is the camera distance the reference grid is sized for
// when no camera is involved.
const DefaultGridRadius = 4.0

const minGridRadius = 0.01

// Reference grid colors.
var (
	XAxisColor     = Color{R: 1, G: 0.2, B: 0.2, A: 1}
	YAxisColor     = Color{R: 0.2, G: 1, B: 0.2, A: 1}
	ZAxisColor     = Color{R: 0.2, G: 0.2, B: 1, A: 1}
	MajorLineColor = Color{R: 0.25, G: 0.25, B: 0.25, A: 0.5}
	MinorLineColor = Color{R: 0.01, G: 0.01, B: 0.01, A: 0.01}
)

// GridDensity returns how far the grid reaches and how many minor lines
// fall between major lines for a camera at radius.
func GridDensity(radius float64) (fadeout float64, minorPerMajor int) {
	if radius < minGridRadius {
		radius = minGridRadius
	}
	fadeout = math.Round(math.Max(1, math.Min(3, radius/2)))
	minorPerMajor = int(math.Round(6 / math.Sqrt(radius)))
	if minorPerMajor < 1 {
		minorPerMajor = 1
	}
	return fadeout, minorPerMajor
}

// ReferenceGrid returns the axis rays and grid lines around the origin. A
// full grid fills the three coordinate planes; otherwise only lines along
// the axes are drawn.
func ReferenceGrid(radius float64, full bool) []Line {
	fadeout, minor := GridDensity(radius)
	steps := int(fadeout) * minor

	ray := func(from, dir [3]float64, length float64, c Color) Line {
		return Line{
			From:  from,
			To:    [3]float64{from[0] + dir[0]*length, from[1] + dir[1]*length, from[2] + dir[2]*length},
			Color: c,
		}
	}
	lineColor := func(major bool) Color {
		if major {
			return MajorLineColor
		}
		return MinorLineColor
	}

	x := [3]float64{1, 0, 0}
	y := [3]float64{0, 1, 0}
	z := [3]float64{0, 0, 1}

	lines := []Line{
		ray([3]float64{}, x, math.Ceil(fadeout), XAxisColor),
		ray([3]float64{}, y, math.Ceil(fadeout), YAxisColor),
		ray([3]float64{}, z, math.Ceil(fadeout), ZAxisColor),
	}

	if full {
		planes := []func(a, b float64) ([3]float64, [3]float64){
			func(a, b float64) ([3]float64, [3]float64) { return [3]float64{a, b, 0}, z },
			func(a, b float64) ([3]float64, [3]float64) { return [3]float64{a, 0, b}, y },
			func(a, b float64) ([3]float64, [3]float64) { return [3]float64{0, a, b}, x },
		}
		for _, plane := range planes {
			for a := 0; a <= steps; a++ {
				for b := 0; b <= steps; b++ {
					from, dir := plane(float64(a)/float64(minor), float64(b)/float64(minor))
					lines = append(lines, ray(from, dir, fadeout, lineColor(a%minor == 0 || b%minor == 0)))
				}
			}
		}
		return lines
	}

	axes := []struct {
		main [3]float64
		dirs [2][3]float64
	}{
		{x, [2][3]float64{y, z}},
		{y, [2][3]float64{z, x}},
		{z, [2][3]float64{x, y}},
	}
	for _, axis := range axes {
		for _, dir := range axis.dirs {
			for a := 0; a <= steps; a++ {
				t := float64(a) / float64(minor)
				from := [3]float64{axis.main[0] * t, axis.main[1] * t, axis.main[2] * t}
				lines = append(lines, ray(from, dir, fadeout, lineColor(a%minor == 0)))
			}
		}
	}
	return lines
}
