package grid

import (
	"fmt"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Threshold is the height below which a cell contributes no box.
const Threshold = 1e-8

// HeightFunc is the surface being approximated. It is expected to be
// non-decreasing under refinement: a cell corner is never lower than the
// corner of its ancestor cell.
type HeightFunc func(x, y float64) float64

// Sum is the default height function x + y.
func Sum(x, y float64) float64 {
	return x + y
}

// BoxSpec describes one rendered volume: the footprint of its cell and the
// vertical range from the ancestor's height to the cell's own height.
type BoxSpec struct {
	Level          Level   `json:"level"`
	PreviousLevel  Level   `json:"previous_level"`
	I              int64   `json:"i"`
	J              int64   `json:"j"`
	MinX           float64 `json:"min_x"`
	MinY           float64 `json:"min_y"`
	Size           float64 `json:"size"`
	PreviousHeight float64 `json:"previous_height"`
	ThisHeight     float64 `json:"this_height"`
}

// Pair returns the layer the box belongs to.
func (b BoxSpec) Pair() LevelPair {
	return LevelPair{Level: b.Level, PreviousLevel: b.PreviousLevel}
}

// Height returns the vertical extent of the box.
func (b BoxSpec) Height() float64 {
	return b.ThisHeight - b.PreviousHeight
}

// Min returns the minimum corner in (x, y, height) order.
func (b BoxSpec) Min() [3]float64 {
	return [3]float64{b.MinX, b.MinY, b.PreviousHeight}
}

// Max returns the maximum corner in (x, y, height) order.
func (b BoxSpec) Max() [3]float64 {
	return [3]float64{b.MinX + b.Size, b.MinY + b.Size, b.ThisHeight}
}

// CheckBudget reports whether a layer at level fits in MaxCells.
func CheckBudget(level Level) error {
	if err := level.Validate(); err != nil {
		return err
	}
	if 2*int(level) >= 63 || int64(1)<<uint(2*level) > MaxCells {
		return errors.New("layer exceeds cell budget").
			WithType(ErrTypeCellBudget).
			WithTag("level", int(level)).
			WithTag("max_cells", MaxCells)
	}
	return nil
}

// Generate enumerates the cells of level and returns one box per cell that
// rises above its ancestor at previous. A previous of 0 stacks the boxes on
// the zero baseline.
//
// A cell whose height is below Threshold, or equal to its ancestor's height,
// yields no box. A cell lower than its ancestor is an error of type
// ErrTypeNonMonotone: f must be non-decreasing under refinement. Generate is
// pure; calling it twice with the same arguments yields the same boxes.
func Generate(level, previous Level, f HeightFunc) ([]BoxSpec, error) {
	pair := Pair(level, previous)
	if err := pair.Validate(); err != nil {
		return nil, err
	}
	if err := CheckBudget(level); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.New("height function is nil").
			WithType(ErrTypeInvalidHeight)
	}

	perAxis := level.CellsPerAxis()
	size := level.CellSize()
	boxes := make([]BoxSpec, 0, perAxis*perAxis)

	for i := int64(0); i < perAxis; i++ {
		for j := int64(0); j < perAxis; j++ {
			c := Cell{Level: level, I: i, J: j}
			x, y := c.Origin()

			this := f(x, y)
			if err := checkHeight(this, c); err != nil {
				return nil, err
			}

			prevHeight := 0.0
			if previous != 0 {
				px, py := c.Ancestor(previous).Origin()
				prevHeight = f(px, py)
				if err := checkHeight(prevHeight, c); err != nil {
					return nil, err
				}
			}

			if this < Threshold || prevHeight == this {
				continue
			}
			if prevHeight > this {
				return nil, errors.New("height decreases under refinement").
					WithType(ErrTypeNonMonotone).
					WithTag("level", int(level)).
					WithTag("previous_level", int(previous)).
					WithTag("i", i).
					WithTag("j", j).
					WithTag("previous_height", prevHeight).
					WithTag("this_height", this)
			}

			boxes = append(boxes, BoxSpec{
				Level:          level,
				PreviousLevel:  previous,
				I:              i,
				J:              j,
				MinX:           x,
				MinY:           y,
				Size:           size,
				PreviousHeight: prevHeight,
				ThisHeight:     this,
			})
		}
	}
	return boxes, nil
}

// MustGenerate is like Generate but panics on error.
func MustGenerate(level, previous Level, f HeightFunc) []BoxSpec {
	boxes, err := Generate(level, previous, f)
	if err != nil {
		panic(fmt.Sprintf("grid: generate %s: %v", Pair(level, previous), err))
	}
	return boxes
}

func checkHeight(h float64, c Cell) error {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return errors.New("height is not a finite number").
			WithType(ErrTypeInvalidHeight).
			WithTag("level", int(c.Level)).
			WithTag("i", c.I).
			WithTag("j", c.J)
	}
	return nil
}
