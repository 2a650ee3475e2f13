package main

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/engine"
	"github.com/chazu/integral/pkg/export"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/chazu/integral/pkg/kernel/sdfx"
	"github.com/chazu/integral/pkg/scene"
	"github.com/chazu/integral/pkg/tessellate"
)

// Export formats accepted by App.Export.
const (
	FormatSTL  = "stl"
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// App is the frontend-facing backend of the visualization. It owns one
// session at a time and exposes its bindings as plain methods.
type App struct {
	mu      sync.Mutex
	engine  *engine.Engine
	kernel  kernel.Kernel
	sink    *scene.MeshSink
	session *scene.Session
	cfg     config.Config
	source  string
	start   time.Time
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Snapshot is the full scene state returned to the frontend.
type Snapshot struct {
	SessionID  string             `json:"sessionId"`
	Config     config.Config      `json:"config"`
	Source     string             `json:"source"`
	Background string             `json:"background"`
	Meshes     []MeshData         `json:"meshes"`
	Grid       []scene.Line       `json:"grid"`
	Party      scene.PartyPalette `json:"party"`
	Errors     []EvalErrorData    `json:"errors"`
}

// NewApp creates an App drawing x + y with the sdfx kernel.
func NewApp() *App {
	return NewAppWithKernel(sdfx.New())
}

// NewAppWithKernel creates an App tessellating with k.
func NewAppWithKernel(k kernel.Kernel) *App {
	a := &App{
		engine: engine.NewEngine(),
		kernel: k,
		cfg:    config.Default(),
		source: engine.DefaultSource,
		start:  time.Now(),
	}
	f, _, err := a.engine.Compile(a.source)
	if err != nil {
		logs.Fatal(errors.New("compiling default height function failed").Wrap(err))
	}
	a.sink, a.session = a.newScene(f)
	return a
}

// newScene returns a fresh sink and a session drawing f into it.
func (a *App) newScene(f grid.HeightFunc) (*scene.MeshSink, *scene.Session) {
	sink := scene.NewMeshSink(a.kernel)
	session := scene.NewSession(f, nil)
	session.Sink = scene.SinkWithLogs(sink, session.ID)
	return sink, session
}

// SetHeight compiles source as the new height function and rebuilds the
// scene with the current configuration. The new scene is built on the side:
// when source does not compile, or its scene cannot be built, the previous
// function and scene stay in place.
func (a *App) SetHeight(source string) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, evalErrs, err := a.engine.Compile(source)
	if err != nil {
		logs.Warn(errors.New("compiling height function failed").Wrap(err))
		return a.snapshot(EvalErrorData{Message: err.Error()})
	}
	if len(evalErrs) > 0 {
		errs := make([]EvalErrorData, 0, len(evalErrs))
		for _, e := range evalErrs {
			errs = append(errs, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return a.snapshot(errs...)
	}

	sink, session := a.newScene(f)
	if err := session.Apply(a.cfg); err != nil {
		session.Close()
		logs.WithTag(logs.SessionIDTag, a.session.ID).
			WithTag("n", int(a.cfg.N)).
			Warn(err)
		return a.snapshot(applyError(err))
	}

	a.session.Close()
	a.sink, a.session = sink, session
	a.source = source
	return a.snapshot()
}

// Apply brings the scene in line with cfg.
func (a *App) Apply(cfg config.Config) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(cfg)
}

// Press applies a named control panel action such as "more" or "party".
func (a *App) Press(action string) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	act, ok := config.ParseAction(action)
	if !ok {
		return a.snapshot(EvalErrorData{Message: "unknown action: " + action})
	}
	return a.apply(a.cfg.Press(act))
}

// Snapshot returns the current scene.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.session.Config(); !ok {
		return a.apply(a.cfg)
	}
	return a.snapshot()
}

func (a *App) apply(cfg config.Config) Snapshot {
	if err := a.session.Apply(cfg); err != nil {
		logs.WithTag(logs.SessionIDTag, a.session.ID).
			WithTag("n", int(cfg.N)).
			Warn(err)
		return a.snapshot(applyError(err))
	}
	a.cfg = cfg
	return a.snapshot()
}

func applyError(err error) EvalErrorData {
	msg := err.Error()
	if t := errors.Type(err); t != "" {
		msg = t + ": " + msg
	}
	return EvalErrorData{Message: msg}
}

func (a *App) snapshot(errs ...EvalErrorData) Snapshot {
	cfg, ok := a.session.Config()
	if !ok {
		cfg = a.cfg
	}
	s := Snapshot{
		SessionID:  a.session.ID,
		Config:     cfg,
		Source:     a.source,
		Background: scene.Background.Hex(),
		Meshes:     []MeshData{},
		Grid:       scene.ReferenceGrid(scene.DefaultGridRadius, cfg.ShowFullGrid),
		Party:      scene.Palette(a.sink.Party(), a.seconds()),
		Errors:     []EvalErrorData{},
	}
	s.Errors = append(s.Errors, errs...)

	pairs := a.sink.VisibleLayers()
	for i, m := range a.sink.Meshes() {
		s.Meshes = append(s.Meshes, meshData(m, scene.LayerColor(pairs[i].Level)))
	}
	if surface, visible := a.sink.Surface(); visible && surface != nil {
		s.Meshes = append(s.Meshes, meshData(surface, scene.SurfaceColor))
	}
	return s
}

// seconds is the party mode clock.
func (a *App) seconds() float64 {
	return time.Since(a.start).Seconds()
}

func meshData(m *kernel.Mesh, c scene.Color) MeshData {
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		PartName: m.PartName,
		Color:    c.Hex(),
	}
}

// Export writes the current scene to dir in each of formats and returns the
// written paths.
func (a *App) Export(dir string, formats []string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New("creating output directory failed").
			WithTag("dir", dir).
			Wrap(err)
	}

	cfg, _ := a.session.Config()
	var paths []string
	for _, format := range formats {
		path := filepath.Join(dir, "staircase."+format)

		var err error
		switch format {
		case FormatSTL:
			var meshes []*kernel.Mesh
			meshes, err = tessellate.Tessellate(a.session.VisibleLayers(), a.kernel)
			if err != nil {
				err = errors.New("tessellating layers failed").
					WithType(export.ErrTypeExport).
					Wrap(err)
				break
			}
			if surface, visible := a.sink.Surface(); visible && surface != nil {
				meshes = append(meshes, surface)
			}
			err = export.WriteSTL(path, meshes)

		case FormatHTML:
			err = writeFile(path, func(f *os.File) error {
				return export.WriteHTML(f, a.source, a.session.VisibleBoxes(), cfg.N)
			})

		case FormatPNG:
			err = export.WritePNG(path, a.session.VisibleBoxes(), cfg.N)

		case FormatJSON:
			err = writeFile(path, func(f *os.File) error {
				return export.WriteJSON(f, export.NewDocument(a.session, a.sink, a.seconds()))
			})

		default:
			err = errors.New("unknown export format").
				WithType(export.ErrTypeExport).
				WithTag("format", format)
		}
		if err != nil {
			return paths, err
		}

		logs.WithTag(logs.SessionIDTag, a.session.ID).
			WithTag("path", path).
			Info("scene exported")
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New("creating export file failed").
			WithTag("path", path).
			Wrap(err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
