package export

import (
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/chazu/integral/pkg/scene"
	"github.com/segmentio/encoding/json"
)

// Document is the JSON form of a scene.
type Document struct {
	SessionID  string             `json:"session_id"`
	Config     config.Config      `json:"config"`
	Background scene.Color        `json:"background"`
	Layers     []LayerDoc         `json:"layers"`
	Surface    *SurfaceDoc        `json:"surface,omitempty"`
	Grid       []scene.Line       `json:"grid"`
	Party      scene.PartyPalette `json:"party"`
}

// LayerDoc is one visible layer of a Document.
type LayerDoc struct {
	Pair  grid.LevelPair `json:"pair"`
	Color scene.Color    `json:"color"`
	Boxes int            `json:"boxes"`
	Mesh  *kernel.Mesh   `json:"mesh"`
}

// SurfaceDoc is the function surface of a Document.
type SurfaceDoc struct {
	Color scene.Color  `json:"color"`
	Mesh  *kernel.Mesh `json:"mesh"`
}

// NewDocument captures the visible state of a session drawing into sink.
// Box counts come from the session arena, meshes from the sink. The party
// palette is sampled at seconds.
func NewDocument(s *scene.Session, sink *scene.MeshSink, seconds float64) Document {
	cfg, _ := s.Config()
	doc := Document{
		SessionID:  s.ID,
		Config:     cfg,
		Background: scene.Background,
		Grid:       scene.ReferenceGrid(scene.DefaultGridRadius, cfg.ShowFullGrid),
		Party:      scene.Palette(sink.Party(), seconds),
	}

	for _, l := range s.VisibleLayers() {
		mesh, _ := sink.Mesh(l.Pair)
		doc.Layers = append(doc.Layers, LayerDoc{
			Pair:  l.Pair,
			Color: scene.LayerColor(l.Pair.Level),
			Boxes: len(l.Boxes),
			Mesh:  mesh,
		})
	}

	if surface, visible := sink.Surface(); visible && surface != nil {
		doc.Surface = &SurfaceDoc{Color: scene.SurfaceColor, Mesh: surface}
	}
	return doc
}

// WriteJSON encodes doc to w.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.New("encoding scene document failed").
			WithType(ErrTypeExport).
			Wrap(err)
	}
	return nil
}
