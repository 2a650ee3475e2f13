package scene

import (
	"sort"

	"github.com/chazu/integral/pkg/grid"
)

// BoxKey identifies one box across every layer of a session.
type BoxKey struct {
	Level         grid.Level `json:"level"`
	PreviousLevel grid.Level `json:"previous_level"`
	I             int64      `json:"i"`
	J             int64      `json:"j"`
}

// KeyOf returns the arena key of b.
func KeyOf(b grid.BoxSpec) BoxKey {
	return BoxKey{Level: b.Level, PreviousLevel: b.PreviousLevel, I: b.I, J: b.J}
}

// Pair returns the layer the key belongs to.
func (k BoxKey) Pair() grid.LevelPair {
	return grid.Pair(k.Level, k.PreviousLevel)
}

// Arena owns every box generated during a session. Boxes stay in the arena
// while hidden; the renderer maps keys to its own drawables.
type Arena struct {
	boxes  map[BoxKey]grid.BoxSpec
	layers map[grid.LevelPair][]BoxKey
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		boxes:  make(map[BoxKey]grid.BoxSpec),
		layers: make(map[grid.LevelPair][]BoxKey),
	}
}

// Insert stores boxes and returns how many were new.
func (a *Arena) Insert(boxes []grid.BoxSpec) int {
	n := 0
	for _, b := range boxes {
		k := KeyOf(b)
		if _, ok := a.boxes[k]; ok {
			continue
		}
		a.boxes[k] = b
		a.layers[k.Pair()] = append(a.layers[k.Pair()], k)
		n++
	}
	return n
}

// Get returns the box stored under k.
func (a *Arena) Get(k BoxKey) (grid.BoxSpec, bool) {
	b, ok := a.boxes[k]
	return b, ok
}

// Layer returns the boxes of pair ordered by i, then j.
func (a *Arena) Layer(pair grid.LevelPair) []grid.BoxSpec {
	keys := a.layers[pair]
	out := make([]grid.BoxSpec, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.boxes[k])
	}
	sort.Slice(out, func(x, y int) bool {
		if out[x].I != out[y].I {
			return out[x].I < out[y].I
		}
		return out[x].J < out[y].J
	})
	return out
}

// Len returns the number of boxes in the arena.
func (a *Arena) Len() int {
	return len(a.boxes)
}

// Reset drops every box.
func (a *Arena) Reset() {
	a.boxes = make(map[BoxKey]grid.BoxSpec)
	a.layers = make(map[grid.LevelPair][]BoxKey)
}
