package canvas

import (
	"fmt"
	"image/color"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap maps normalized values in [0, 1] to colors through a 256 entry
// lookup table built by linear interpolation between stops.
type Colormap struct {
	name string
	lut  [256]color.NRGBA
}

func rgb8(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func newColormap(name string, stops ...colorful.Color) *Colormap {
	cm := &Colormap{name: name}
	last := len(stops) - 1
	for i := range cm.lut {
		t := float64(i) / 255 * float64(last)
		lo := min(int(t), last)
		hi := min(lo+1, last)
		c := stops[lo].BlendRgb(stops[hi], t-float64(lo)).Clamped()
		r, g, b := c.RGB255()
		cm.lut[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return cm
}

var colormaps = map[string]*Colormap{
	"gray": newColormap("gray", rgb8(0, 0, 0), rgb8(255, 255, 255)),
	"viridis": newColormap("viridis",
		rgb8(68, 1, 84), rgb8(72, 35, 116), rgb8(64, 67, 135), rgb8(52, 94, 141),
		rgb8(41, 120, 142), rgb8(32, 144, 140), rgb8(34, 167, 132), rgb8(68, 190, 112),
		rgb8(121, 209, 81), rgb8(189, 222, 38), rgb8(253, 231, 37)),
	"plasma": newColormap("plasma",
		rgb8(13, 8, 135), rgb8(75, 3, 161), rgb8(125, 3, 168), rgb8(168, 34, 150),
		rgb8(203, 70, 121), rgb8(229, 107, 93), rgb8(248, 148, 65), rgb8(253, 195, 40),
		rgb8(240, 249, 33)),
	"heat": newColormap("heat",
		rgb8(0, 0, 0), rgb8(128, 0, 0), rgb8(255, 64, 0), rgb8(255, 192, 0), rgb8(255, 255, 255)),
}

// LookupColormap returns the named colormap.
func LookupColormap(name string) (*Colormap, error) {
	cm, ok := colormaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (have %v)", name, ColormapNames())
	}
	return cm, nil
}

// ColormapNames lists the registered colormaps in sorted order.
func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for name := range colormaps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Name returns the colormap name.
func (c *Colormap) Name() string { return c.name }

// At returns the color for t, clamped to [0, 1].
func (c *Colormap) At(t float64) color.NRGBA {
	switch {
	case t <= 0 || math.IsNaN(t):
		return c.lut[0]
	case t >= 1:
		return c.lut[255]
	}
	return c.lut[int(t*255)]
}
