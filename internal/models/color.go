// Package models holds the small value types shared by the layer packages.
package models

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a color with each component in [0, 1].
type RGB struct {
	R, G, B float64
}

// Clamped returns the color with every component limited to [0, 1].
func (c RGB) Clamped() RGB {
	return RGB{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

// Bytes returns the color scaled to 0-255, truncating like an integer cast.
func (c RGB) Bytes() (r, g, b uint8) {
	c = c.Clamped()
	return uint8(255 * c.R), uint8(255 * c.G), uint8(255 * c.B)
}

func (c RGB) String() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// basic color names accepted besides hex strings
var namedColors = map[string]string{
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"yellow":  "#ffff00",
	"black":   "#000000",
	"white":   "#ffffff",
	"gray":    "#808080",
	"grey":    "#808080",
	"orange":  "#ffa500",
	"purple":  "#800080",
}

// ParseColor converts a "#rrggbb" (or "#rgb") string or a basic color name
// into an RGB triple.
func ParseColor(s string) (RGB, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: c.R, G: c.G, B: c.B}, nil
}

// Style is the visual style attached to a layer.
type Style struct {
	// Color is a hex string or basic color name.
	Color string

	// Alpha is the opacity used when the layer is drawn as an overlay.
	Alpha float64
}

// DefaultStyle is used for layers that never set one.
var DefaultStyle = Style{Color: "#ff0000", Alpha: 0.5}

// RGB parses the style color.
func (s Style) RGB() (RGB, error) {
	return ParseColor(s.Color)
}
