package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Level is a subdivision depth. A level n grid has 2^n cells per axis.
type Level int

// MaxLevel is the deepest level a configuration may request.
const MaxLevel Level = 40

// MaxCells bounds the number of cells a single Generate call enumerates.
// With 4^n cells per layer this admits levels up to 12.
const MaxCells = 1 << 24

// CellsPerAxis returns 2^n.
func (n Level) CellsPerAxis() int64 {
	return int64(1) << uint(n)
}

// CellSize returns the footprint edge length 2^-n.
func (n Level) CellSize() float64 {
	return math.Ldexp(1, -int(n))
}

func (n Level) String() string {
	return fmt.Sprintf("n=%d", int(n))
}

// Validate reports whether n is within [0, MaxLevel].
func (n Level) Validate() error {
	if n < 0 {
		return errors.New("level must not be negative").
			WithType(ErrTypeInvalidLevel).
			WithTag("level", int(n))
	}
	if n > MaxLevel {
		return errors.New("level exceeds maximum").
			WithType(ErrTypeInvalidLevel).
			WithTag("level", int(n)).
			WithTag("max", int(MaxLevel))
	}
	return nil
}

// LevelPair identifies one generated layer: the boxes of Level stacked on top
// of the heights of PreviousLevel. PreviousLevel 0 means the baseline at
// height zero.
type LevelPair struct {
	Level         Level `json:"level"`
	PreviousLevel Level `json:"previous_level"`
}

// Pair is shorthand for LevelPair{level, previous}.
func Pair(level, previous Level) LevelPair {
	return LevelPair{Level: level, PreviousLevel: previous}
}

func (p LevelPair) String() string {
	return fmt.Sprintf("(%d,%d)", int(p.Level), int(p.PreviousLevel))
}

// Incremental reports whether the pair refines its direct predecessor.
func (p LevelPair) Incremental() bool {
	return p.Level > 0 && p.PreviousLevel == p.Level-1
}

// Less orders pairs by level, then previous level.
func (p LevelPair) Less(o LevelPair) bool {
	if p.Level != o.Level {
		return p.Level < o.Level
	}
	return p.PreviousLevel < o.PreviousLevel
}

// SortPairs sorts pairs in place with LevelPair.Less.
func SortPairs(pairs []LevelPair) {
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].Less(pairs[b]) })
}

// Validate checks both levels and that PreviousLevel does not exceed Level.
func (p LevelPair) Validate() error {
	if err := p.Level.Validate(); err != nil {
		return err
	}
	if err := p.PreviousLevel.Validate(); err != nil {
		return err
	}
	if p.PreviousLevel > p.Level {
		return errors.New("previous level exceeds level").
			WithType(ErrTypeInvalidLevel).
			WithTag("level", int(p.Level)).
			WithTag("previous_level", int(p.PreviousLevel))
	}
	return nil
}

// Cell is one grid square at a given level.
type Cell struct {
	Level Level
	I, J  int64
}

// Origin returns the footprint's minimum corner (i*size, j*size).
func (c Cell) Origin() (x, y float64) {
	size := c.Level.CellSize()
	return float64(c.I) * size, float64(c.J) * size
}

// Ancestor returns the cell at level prev containing c. prev must not exceed
// c.Level.
func (c Cell) Ancestor(prev Level) Cell {
	shift := uint(c.Level - prev)
	return Cell{Level: prev, I: c.I >> shift, J: c.J >> shift}
}
