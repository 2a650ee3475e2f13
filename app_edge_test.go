package main

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/engine"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/scene"
	"github.com/chazu/integral/pkg/tessellate"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty source falls back to x + y.
// ---------------------------------------------------------------------------

func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	snap := app.SetHeight("")

	if len(snap.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %v", snap.Errors)
	}
	if len(snap.Meshes) != 2 {
		t.Errorf("expected layer and surface meshes, got %d", len(snap.Meshes))
	}
	// Slices must be non-nil so JSON serializes them as [] not null.
	if snap.Meshes == nil || snap.Errors == nil {
		t.Error("snapshot slices should be non-nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error: reported with line info, previous scene kept.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorKeepsScene(t *testing.T) {
	app := NewApp()
	before := app.Snapshot()

	snap := app.SetHeight("(+ x y)\n(* x")
	if len(snap.Errors) == 0 {
		t.Fatal("expected errors for unmatched parens")
	}
	if snap.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q",
		snap.Errors[0].Line, snap.Errors[0].Col, snap.Errors[0].Message)

	if snap.SessionID != before.SessionID {
		t.Error("failed compile replaced the session")
	}
	if snap.Source != engine.DefaultSource {
		t.Errorf("source = %q, expected the default", snap.Source)
	}
	if len(snap.Meshes) != len(before.Meshes) {
		t.Errorf("meshes changed: %d -> %d", len(before.Meshes), len(snap.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 3. Unknown action names are reported, not applied.
// ---------------------------------------------------------------------------

func TestE2EUnknownAction(t *testing.T) {
	app := NewApp()
	app.Snapshot()

	snap := app.Press("bogus")
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0].Message, "bogus") {
		t.Fatalf("expected unknown action error, got %v", snap.Errors)
	}
	if snap.Config != config.Default() {
		t.Errorf("config changed to %+v", snap.Config)
	}
}

// ---------------------------------------------------------------------------
// 4. A falling height function is rejected past level 1 and the scene stays.
// ---------------------------------------------------------------------------

func TestE2ENonMonotoneHeight(t *testing.T) {
	source, err := os.ReadFile("examples/decreasing.zy")
	if err != nil {
		t.Fatal(err)
	}

	app := NewApp()
	if snap := app.SetHeight(string(source)); len(snap.Errors) > 0 {
		t.Fatalf("level 1 should render: %v", snap.Errors)
	}

	snap := app.Press("more")
	if len(snap.Errors) == 0 {
		t.Fatal("expected a monotonicity error")
	}
	if !strings.HasPrefix(snap.Errors[0].Message, grid.ErrTypeNonMonotone) {
		t.Errorf("error = %q, expected type %s", snap.Errors[0].Message, grid.ErrTypeNonMonotone)
	}
	if snap.Config.N != 1 {
		t.Errorf("n = %d, expected the previous level", snap.Config.N)
	}
	if snap.Meshes[0].PartName != "(1,0)" {
		t.Errorf("visible layer = %q", snap.Meshes[0].PartName)
	}

	// The session keeps working after the rejection.
	if snap := app.Press("less"); len(snap.Errors) > 0 || snap.Config.N != 0 {
		t.Errorf("press less after rejection: n=%d errors=%v", snap.Config.N, snap.Errors)
	}
}

func TestE2ESetHeightRejectedKeepsScene(t *testing.T) {
	source, err := os.ReadFile("examples/decreasing.zy")
	if err != nil {
		t.Fatal(err)
	}

	app := NewApp()
	cfg := config.Default()
	cfg.N = 3
	before := app.Apply(cfg)
	if len(before.Errors) > 0 || len(before.Meshes) != 4 {
		t.Fatalf("n=3: meshes=%d errors=%v", len(before.Meshes), before.Errors)
	}

	snap := app.SetHeight(string(source))
	if len(snap.Errors) == 0 {
		t.Fatal("expected a monotonicity error")
	}
	if !strings.HasPrefix(snap.Errors[0].Message, grid.ErrTypeNonMonotone) {
		t.Errorf("error = %q, expected type %s", snap.Errors[0].Message, grid.ErrTypeNonMonotone)
	}

	after := app.Snapshot()
	if len(after.Errors) > 0 {
		t.Errorf("snapshot after rejection has errors %v", after.Errors)
	}
	if after.SessionID != before.SessionID {
		t.Error("rejected height function replaced the session")
	}
	if after.Source != engine.DefaultSource {
		t.Errorf("source = %q, expected the previous one", after.Source)
	}
	if after.Config != cfg {
		t.Errorf("config = %+v, expected %+v", after.Config, cfg)
	}
	if len(after.Meshes) != len(before.Meshes) {
		t.Fatalf("meshes = %d, expected %d", len(after.Meshes), len(before.Meshes))
	}
	for i := range after.Meshes {
		if after.Meshes[i].PartName != before.Meshes[i].PartName {
			t.Errorf("mesh %d = %q, expected %q", i, after.Meshes[i].PartName, before.Meshes[i].PartName)
		}
	}

	if snap := app.Press("more"); len(snap.Errors) > 0 || snap.Config.N != 4 {
		t.Errorf("press more after rejection: n=%d errors=%v", snap.Config.N, snap.Errors)
	}
}

// ---------------------------------------------------------------------------
// 5. Levels beyond the cell budget are rejected.
// ---------------------------------------------------------------------------

func TestE2ECellBudget(t *testing.T) {
	app := NewApp()
	app.Snapshot()

	cfg := config.Default()
	cfg.ShowFunction = false
	cfg.Incremental = false
	cfg.N = 13

	snap := app.Apply(cfg)
	if len(snap.Errors) == 0 {
		t.Fatal("expected cell budget error")
	}
	if !strings.HasPrefix(snap.Errors[0].Message, grid.ErrTypeCellBudget) {
		t.Errorf("error = %q", snap.Errors[0].Message)
	}
	if snap.Config.N != 1 {
		t.Errorf("n = %d, expected 1", snap.Config.N)
	}
}

// ---------------------------------------------------------------------------
// 6. Rapid button presses: no panics, state follows the presses.
// ---------------------------------------------------------------------------

func TestE2ERapidPresses(t *testing.T) {
	app := NewApp()

	presses := []string{
		"more", "more", "more", "more", "more",
		"less", "less", "less",
		"incremental", "incremental",
		"function", "full-grid", "party", "party",
	}
	var snap Snapshot
	for i, p := range presses {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("press %d (%s) panicked: %v", i, p, r)
				}
			}()
			snap = app.Press(p)
		}()
		if len(snap.Errors) > 0 {
			t.Fatalf("press %d (%s): %v", i, p, snap.Errors)
		}
	}

	want := config.Config{N: 3, Incremental: true}
	if snap.Config != want {
		t.Errorf("config = %+v, expected %+v", snap.Config, want)
	}
	// Back on the chain without the surface: three layers.
	if len(snap.Meshes) != 3 {
		t.Errorf("expected 3 meshes, got %d", len(snap.Meshes))
	}
}

func TestE2EConcurrentSnapshots(t *testing.T) {
	app := NewApp()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				app.Press("more")
				return
			}
			app.Snapshot()
		}(i)
	}
	wg.Wait()

	if n := app.Snapshot().Config.N; n != 5 {
		t.Errorf("n = %d, expected 5", n)
	}
}

// ---------------------------------------------------------------------------
// 7. Toggles: function surface and full layers.
// ---------------------------------------------------------------------------

func TestE2EHideFunction(t *testing.T) {
	app := NewApp()
	snap := app.Press("function")

	for _, m := range snap.Meshes {
		if m.PartName == tessellate.SurfacePart {
			t.Error("surface still visible")
		}
	}
	if len(snap.Meshes) != 1 {
		t.Errorf("expected 1 mesh, got %d", len(snap.Meshes))
	}
}

func TestE2EFullLayer(t *testing.T) {
	app := NewApp()
	cfg := config.Default()
	cfg.Incremental = false
	cfg.N = 3

	snap := app.Apply(cfg)
	if len(snap.Errors) > 0 {
		t.Fatalf("apply: %v", snap.Errors)
	}
	if len(snap.Meshes) != 2 || snap.Meshes[0].PartName != "(3,0)" {
		t.Fatalf("expected (3,0) and the surface, got %d meshes", len(snap.Meshes))
	}
	if want := scene.LayerColor(3).Hex(); snap.Meshes[0].Color != want {
		t.Errorf("color = %s, expected %s", snap.Meshes[0].Color, want)
	}
	// 63 boxes above the baseline at level 3.
	if got := len(snap.Meshes[0].Indices) / 3; got != 63*12 {
		t.Errorf("triangles = %d, expected %d", got, 63*12)
	}
}

func TestE2EPartyPalette(t *testing.T) {
	app := NewApp()
	if snap := app.Snapshot(); snap.Party.On || len(snap.Party.Buttons) != 0 {
		t.Errorf("party palette before the toggle = %+v", snap.Party)
	}

	snap := app.Press("party")
	if !snap.Party.On {
		t.Fatal("party mode not reported")
	}
	if len(snap.Party.Buttons) != len(scene.ButtonFrequencies) {
		t.Errorf("expected %d button colors, got %d", len(scene.ButtonFrequencies), len(snap.Party.Buttons))
	}
	if snap.Party.LevelText == "" {
		t.Error("level readout color missing")
	}
	if snap.Party.Frequencies["party"] != scene.ButtonFrequencies[config.ActionToggleParty] {
		t.Errorf("party button frequencies = %v", snap.Party.Frequencies["party"])
	}

	if snap := app.Press("party"); snap.Party.On {
		t.Error("party mode still on after the second toggle")
	}
}

// ---------------------------------------------------------------------------
// 8. Runtime failures inside the script surface as errors.
// ---------------------------------------------------------------------------

func TestE2ERuntimeError(t *testing.T) {
	app := NewApp()
	snap := app.SetHeight(`(if (>= x 0.5) (sqrt "oops") x)`)
	if len(snap.Errors) == 0 {
		t.Fatal("expected an error for a script failing at x >= 0.5")
	}
}

// ---------------------------------------------------------------------------
// 9. Export edge cases.
// ---------------------------------------------------------------------------

func TestE2EExportUnknownFormat(t *testing.T) {
	app := NewApp()
	app.Snapshot()

	paths, err := app.Export(t.TempDir(), []string{FormatJSON, "obj"})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if len(paths) != 1 {
		t.Errorf("expected the json file before the failure, got %v", paths)
	}
}
