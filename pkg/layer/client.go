package layer

import (
	"errors"
	"fmt"
	"slices"

	"viewglue/pkg/canvas"
	"viewglue/pkg/lazyimage"
)

// Client creates layer controllers for one canvas and keeps them in
// creation order.
type Client struct {
	canvas canvas.Canvas
	opts   []Option
	layers []Artist
}

// NewClient returns a client drawing on c. opts are passed to every
// controller it creates.
func NewClient(c canvas.Canvas, opts ...Option) *Client {
	return &Client{canvas: c, opts: opts}
}

// Canvas returns the canvas layers are drawn on.
func (c *Client) Canvas() canvas.Canvas { return c.canvas }

// NewImageLayer adds a controller showing a field of data.
func (c *Client) NewImageLayer(label string, data lazyimage.Dataset) *ImageLayer {
	l := NewImageLayer(label, data, c.canvas, c.opts...)
	c.add(l)
	return l
}

// NewSubsetLayer adds a controller drawing subset as an overlay.
func (c *Client) NewSubsetLayer(subset Subset) *SubsetLayer {
	l := NewSubsetLayer(subset, c.canvas, c.opts...)
	c.add(l)
	return l
}

// NewRGBLayer adds a controller composing three fields of data.
func (c *Client) NewRGBLayer(label string, data lazyimage.Dataset) *RGBLayer {
	l := NewRGBLayer(label, data, c.canvas, c.opts...)
	c.add(l)
	return l
}

func (c *Client) add(a Artist) {
	a.SetZOrder(len(c.layers))
	c.layers = append(c.layers, a)
}

// Layers returns the controllers ordered by z-order.
func (c *Client) Layers() []Artist {
	layers := slices.Clone(c.layers)
	slices.SortStableFunc(layers, func(a, b Artist) int { return a.ZOrder() - b.ZOrder() })
	return layers
}

// Remove clears a and forgets it.
func (c *Client) Remove(a Artist) {
	i := slices.Index(c.layers, a)
	if i < 0 {
		return
	}
	a.Clear()
	c.layers = slices.Delete(c.layers, i, i+1)
}

// Update updates every layer, lowest z-order first, and returns the joined
// errors of the layers that failed.
func (c *Client) Update(sel Selection, transpose bool) error {
	var errs []error
	for _, a := range c.Layers() {
		if err := a.Update(sel, transpose); err != nil {
			errs = append(errs, fmt.Errorf("layer %s: %w", a.Label(), err))
		}
	}
	return errors.Join(errs...)
}

// SetCmap changes the canvas colormap.
func (c *Client) SetCmap(name string) error {
	return c.canvas.SetCmap(name)
}
