// Package scene drives a staircase visualization. A Session diffs each new
// configuration against the previous one, plans the layers to show, serves
// already materialized layers by toggling their visibility and generates the
// rest. Drawing is left to a Sink.
package scene

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/chazu/integral/pkg/tessellate"
	"github.com/google/uuid"
)

// Error types reported by sessions.
const (
	ErrTypeSession = "scene-session"
	ErrTypeSurface = "scene-surface"
	ErrTypeSink    = "scene-sink"
)

// DefaultSurfaceResolution is the sampling resolution of the function
// surface.
const DefaultSurfaceResolution = 32

// Session holds the geometry of one visualization. It is not safe for
// concurrent use.
type Session struct {
	ID                string
	Height            grid.HeightFunc
	Sink              Sink
	Record            *grid.Record
	Arena             *Arena
	SurfaceResolution int

	applied bool
	cfg     config.Config
	visible map[grid.LevelPair]bool
	surface *kernel.Mesh
}

// NewSession returns a session generating boxes from f into sink.
func NewSession(f grid.HeightFunc, sink Sink) *Session {
	return &Session{
		ID:                uuid.NewString(),
		Height:            f,
		Sink:              sink,
		Record:            grid.NewRecord(),
		Arena:             NewArena(),
		SurfaceResolution: DefaultSurfaceResolution,
		visible:           make(map[grid.LevelPair]bool),
	}
}

// Config returns the configuration in effect and whether one was applied.
func (s *Session) Config() (config.Config, bool) {
	return s.cfg, s.applied
}

// Visible returns the visible layers in order.
func (s *Session) Visible() []grid.LevelPair {
	var out []grid.LevelPair
	for p, v := range s.visible {
		if v {
			out = append(out, p)
		}
	}
	grid.SortPairs(out)
	return out
}

// VisibleLayers returns the boxes of the visible layers in order, read from
// the arena.
func (s *Session) VisibleLayers() []tessellate.LayerBoxes {
	pairs := s.Visible()
	out := make([]tessellate.LayerBoxes, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, tessellate.LayerBoxes{Pair: p, Boxes: s.Arena.Layer(p)})
	}
	return out
}

// VisibleBoxes returns every visible box, layer by layer.
func (s *Session) VisibleBoxes() []grid.BoxSpec {
	var out []grid.BoxSpec
	for _, l := range s.VisibleLayers() {
		out = append(out, l.Boxes...)
	}
	return out
}

// Apply brings the scene in line with cfg. Layers are only replanned when
// the level or the incremental flag changed. When a layer cannot be
// generated the previous configuration stays in effect and the error is
// returned.
func (s *Session) Apply(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if s.Height == nil || s.Sink == nil {
		return errors.New("session has no height function or sink").
			WithType(ErrTypeSession)
	}
	if s.Record == nil {
		s.Record = grid.NewRecord()
	}
	if s.Arena == nil {
		s.Arena = NewArena()
	}
	if s.visible == nil {
		s.visible = make(map[grid.LevelPair]bool)
	}

	first := !s.applied
	prev := s.cfg

	// The surface is built once, the first time it is shown.
	surface := s.surface
	if cfg.ShowFunction && surface == nil {
		m, err := tessellate.Surface(s.Height, s.SurfaceResolution)
		if err != nil {
			instrumentFailure(ErrTypeSurface)
			return errors.New("building function surface failed").
				WithType(ErrTypeSurface).
				Wrap(err)
		}
		surface = m
	}

	if first || prev.GeometryChanged(cfg) {
		if err := s.applyGeometry(prev, cfg, first); err != nil {
			instrumentFailure(errors.Type(err))
			return err
		}
	}

	s.surface = surface
	if first || prev.ShowFunction != cfg.ShowFunction {
		s.Sink.SetSurface(s.surface, cfg.ShowFunction)
	}
	if first || prev.Party != cfg.Party {
		s.Sink.SetParty(cfg.Party)
	}

	s.cfg = cfg
	s.applied = true
	return nil
}

type pendingLayer struct {
	pair  grid.LevelPair
	boxes []grid.BoxSpec
}

func (s *Session) applyGeometry(prev, cfg config.Config, first bool) error {
	base := s.planBase(prev, cfg, first)
	plan := grid.PlanIncrementalLevels(base, cfg.N, cfg.Incremental)

	// Every missing layer is generated before the sink is touched, so a
	// failure leaves the scene as it was.
	var fresh []pendingLayer
	for _, p := range plan {
		if s.Record.Has(p) {
			instrumentMemoHit()
			continue
		}
		boxes, err := grid.Generate(p.Level, p.PreviousLevel, s.Height)
		if err != nil {
			return errors.New("generating layer failed").
				WithType(errors.Type(err)).
				WithTag("pair", p.String()).
				Wrap(err)
		}
		fresh = append(fresh, pendingLayer{pair: p, boxes: boxes})
	}

	restore := make(map[grid.LevelPair]bool, len(s.visible))
	for p, v := range s.visible {
		restore[p] = v
	}

	for _, l := range fresh {
		if err := s.Sink.AddLayer(l.pair, l.boxes); err != nil {
			s.show(restore)
			return errors.New("adding layer to sink failed").
				WithType(ErrTypeSink).
				WithTag("pair", l.pair.String()).
				Wrap(err)
		}
		s.Arena.Insert(l.boxes)
		s.Record.Add(l.pair)
		s.visible[l.pair] = true
		instrumentLayer(l.pair, len(l.boxes))

		logs.WithTag(logs.SessionIDTag, s.ID).
			WithTag("pair", l.pair.String()).
			WithTag("boxes", len(l.boxes)).
			Debug("layer generated")
	}

	s.show(wantedLayers(plan, cfg.N))
	return nil
}

// planBase returns the level the plan starts from. A fresh session or a
// flipped incremental flag starts over from the baseline. In incremental
// mode the base never exceeds the top of the contiguous chain (1,0) ...
// (k,k-1), so every refinement below it is already materialized.
func (s *Session) planBase(prev, cfg config.Config, first bool) grid.Level {
	if first || prev.Incremental != cfg.Incremental {
		return 0
	}
	base := prev.N
	if cfg.Incremental {
		if top := s.Record.ChainTop(); top < base {
			base = top
		}
	}
	return base
}

// wantedLayers returns the layers visible after applying plan. A chain plan
// shows the whole chain up to n; any other plan shows its single full layer.
func wantedLayers(plan []grid.LevelPair, n grid.Level) map[grid.LevelPair]bool {
	want := make(map[grid.LevelPair]bool)
	if grid.IsChain(plan) {
		for k := grid.Level(1); k <= n; k++ {
			want[grid.Pair(k, k-1)] = true
		}
		return want
	}
	for _, p := range plan {
		want[p] = true
	}
	return want
}

// show makes exactly the layers in want visible among those materialized.
func (s *Session) show(want map[grid.LevelPair]bool) {
	count := 0
	for _, p := range s.Record.Pairs() {
		v := want[p]
		if s.visible[p] != v {
			s.Sink.SetLayerVisible(p, v)
			s.visible[p] = v
		}
		if v {
			count++
		}
	}
	instrumentVisibleLayers(s.ID, count)
}

// Close tears the session down and discards every box.
func (s *Session) Close() {
	if r, ok := s.Sink.(resetter); ok {
		r.Reset()
	}
	if s.Record != nil {
		s.Record.Reset()
	}
	if s.Arena != nil {
		s.Arena.Reset()
	}
	s.visible = make(map[grid.LevelPair]bool)
	s.surface = nil
	s.applied = false
	s.cfg = config.Config{}
	instrumentCloseSession(s.ID)

	logs.WithTag(logs.SessionIDTag, s.ID).Debug("session closed")
}
