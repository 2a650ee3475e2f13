package scene

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/chazu/integral/pkg/tessellate"
)

// Sink is the rendering collaborator of a session. It turns layers into
// drawables and toggles their visibility.
type Sink interface {
	// AddLayer materializes the boxes of pair. New layers start visible.
	AddLayer(pair grid.LevelPair, boxes []grid.BoxSpec) error

	// SetLayerVisible shows or hides a previously added layer.
	SetLayerVisible(pair grid.LevelPair, visible bool)

	// SetSurface shows or hides the function surface.
	SetSurface(mesh *kernel.Mesh, visible bool)

	// SetParty switches party mode.
	SetParty(on bool)
}

// LayerState describes one layer held by a MeshSink.
type LayerState struct {
	Pair    grid.LevelPair `json:"pair"`
	Boxes   int            `json:"boxes"`
	Visible bool           `json:"visible"`
}

type meshLayer struct {
	boxes   int
	mesh    *kernel.Mesh
	visible bool
}

// MeshSink keeps one tessellated mesh per layer in memory. Boxes stay with
// the session arena; the sink only remembers how many each layer had. It is
// safe for concurrent use.
type MeshSink struct {
	Kernel kernel.Kernel

	mu             sync.Mutex
	layers         map[grid.LevelPair]*meshLayer
	surface        *kernel.Mesh
	surfaceVisible bool
	party          bool
}

// NewMeshSink returns a sink that tessellates layers with k.
func NewMeshSink(k kernel.Kernel) *MeshSink {
	return &MeshSink{
		Kernel: k,
		layers: make(map[grid.LevelPair]*meshLayer),
	}
}

func (s *MeshSink) AddLayer(pair grid.LevelPair, boxes []grid.BoxSpec) error {
	mesh, err := tessellate.Layer(pair, boxes, s.Kernel)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layers == nil {
		s.layers = make(map[grid.LevelPair]*meshLayer)
	}
	s.layers[pair] = &meshLayer{boxes: len(boxes), mesh: mesh, visible: true}
	return nil
}

func (s *MeshSink) SetLayerVisible(pair grid.LevelPair, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.layers[pair]; ok {
		l.visible = visible
	}
}

func (s *MeshSink) SetSurface(mesh *kernel.Mesh, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mesh != nil {
		s.surface = mesh
	}
	s.surfaceVisible = visible
}

func (s *MeshSink) SetParty(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.party = on
}

// Party reports whether party mode is on.
func (s *MeshSink) Party() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.party
}

// Layers returns the state of every layer ordered by pair.
func (s *MeshSink) Layers() []LayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LayerState, 0, len(s.layers))
	for _, p := range s.pairs(false) {
		l := s.layers[p]
		out = append(out, LayerState{Pair: p, Boxes: l.boxes, Visible: l.visible})
	}
	return out
}

// VisibleLayers returns the visible pairs in order.
func (s *MeshSink) VisibleLayers() []grid.LevelPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pairs(true)
}

// Mesh returns the mesh of pair whether or not it is visible.
func (s *MeshSink) Mesh(pair grid.LevelPair) (*kernel.Mesh, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.layers[pair]
	if !ok {
		return nil, false
	}
	return l.mesh, true
}

// Meshes returns the meshes of the visible layers ordered by pair.
func (s *MeshSink) Meshes() []*kernel.Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*kernel.Mesh
	for _, p := range s.pairs(true) {
		out = append(out, s.layers[p].mesh)
	}
	return out
}

// Surface returns the function surface and whether it is shown.
func (s *MeshSink) Surface() (*kernel.Mesh, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface, s.surfaceVisible
}

// Reset drops every layer and the surface.
func (s *MeshSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layers = make(map[grid.LevelPair]*meshLayer)
	s.surface = nil
	s.surfaceVisible = false
	s.party = false
}

func (s *MeshSink) pairs(visibleOnly bool) []grid.LevelPair {
	out := make([]grid.LevelPair, 0, len(s.layers))
	for p, l := range s.layers {
		if visibleOnly && !l.visible {
			continue
		}
		out = append(out, p)
	}
	grid.SortPairs(out)
	return out
}

// SinkWithLogs returns a sink that logs every call before delegating to s.
func SinkWithLogs(s Sink, sessionID string) Sink {
	return &sinkWithLogs{Sink: s, sessionID: sessionID}
}

type sinkWithLogs struct {
	Sink

	sessionID string
}

func (s *sinkWithLogs) AddLayer(pair grid.LevelPair, boxes []grid.BoxSpec) error {
	if err := s.Sink.AddLayer(pair, boxes); err != nil {
		logs.WithTag(logs.SessionIDTag, s.sessionID).
			WithTag("pair", pair.String()).
			Error(err)
		return err
	}

	logs.WithTag(logs.SessionIDTag, s.sessionID).
		WithTag("pair", pair.String()).
		WithTag("boxes", len(boxes)).
		Debug("layer added")
	return nil
}

func (s *sinkWithLogs) SetLayerVisible(pair grid.LevelPair, visible bool) {
	s.Sink.SetLayerVisible(pair, visible)

	logs.WithTag(logs.SessionIDTag, s.sessionID).
		WithTag("pair", pair.String()).
		WithTag("visible", visible).
		Debug("layer visibility changed")
}

func (s *sinkWithLogs) SetSurface(mesh *kernel.Mesh, visible bool) {
	s.Sink.SetSurface(mesh, visible)

	logs.WithTag(logs.SessionIDTag, s.sessionID).
		WithTag("visible", visible).
		Debug("function surface visibility changed")
}

func (s *sinkWithLogs) SetParty(on bool) {
	s.Sink.SetParty(on)

	logs.WithTag(logs.SessionIDTag, s.sessionID).
		WithTag("party", on).
		Info("party mode changed")
}

// Reset forwards to the wrapped sink when it supports it.
func (s *sinkWithLogs) Reset() {
	if r, ok := s.Sink.(resetter); ok {
		r.Reset()
	}
}

type resetter interface {
	Reset()
}
