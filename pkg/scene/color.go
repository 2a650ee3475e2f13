package scene

import (
	"fmt"
	"math"

	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/grid"
)

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// RGB8 returns an opaque color from 8-bit components.
func RGB8(r, g, b uint8) Color {
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

// Hex returns the color as #rrggbb, ignoring alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Background is the clear color of the scene.
var Background = Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// SurfaceColor is the color of the function surface.
var SurfaceColor = RGB8(200, 50, 200)

// LayerColor returns the color of boxes at level n: red fixed at 124, green
// rising with the level and blue falling with it.
func LayerColor(n grid.Level) Color {
	g := 40 * int(n)
	if g > 255 {
		g = 255
	}
	b := 255
	if n > 0 {
		b = 255 / int(n)
	}
	return RGB8(124, uint8(g), uint8(b))
}

// PartyColor returns the party mode color at the given time. Each channel
// oscillates as sin(f*t)/2 + 0.5 with its own frequency.
func PartyColor(seconds float64, freq [3]float64) Color {
	wave := func(f float64) float64 { return math.Sin(f*seconds)/2 + 0.5 }
	return Color{R: wave(freq[0]), G: wave(freq[1]), B: wave(freq[2]), A: 1}
}

// ButtonFrequencies are the party mode channel frequencies of each action's
// button.
var ButtonFrequencies = map[config.Action][3]float64{
	config.ActionMore:              {4.2, 1.5, 0.4},
	config.ActionLess:              {5, 0, 3.5},
	config.ActionToggleFunction:    {0, 7.5, 6},
	config.ActionToggleIncremental: {9, 0, 0.5},
	config.ActionToggleFullGrid:    {0.8, 8.5, 7.5},
	config.ActionToggleParty:       {10, 15, 8},
}

// LevelTextFrequency drives the color of the level readout in party mode.
var LevelTextFrequency = [3]float64{4.25, 3.75, 2.5}

// PartyPalette is the party mode state of the control panel at one instant.
// Frequencies let a frontend keep animating from there.
type PartyPalette struct {
	On          bool                  `json:"on"`
	Seconds     float64               `json:"seconds"`
	Buttons     map[string]string     `json:"buttons,omitempty"`
	LevelText   string                `json:"level_text,omitempty"`
	Frequencies map[string][3]float64 `json:"frequencies,omitempty"`
}

// Palette returns the party palette at the given time. With party mode off
// only the flag is set.
func Palette(on bool, seconds float64) PartyPalette {
	p := PartyPalette{On: on, Seconds: seconds}
	if !on {
		return p
	}

	p.Buttons = make(map[string]string, len(ButtonFrequencies))
	p.Frequencies = make(map[string][3]float64, len(ButtonFrequencies)+1)
	for a, freq := range ButtonFrequencies {
		p.Buttons[a.String()] = PartyColor(seconds, freq).Hex()
		p.Frequencies[a.String()] = freq
	}
	p.LevelText = PartyColor(seconds, LevelTextFrequency).Hex()
	p.Frequencies["level"] = LevelTextFrequency
	return p
}
