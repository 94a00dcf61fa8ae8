package lazyimage

import (
	"fmt"
	"image"
	"slices"

	"viewglue/internal/models"
	"viewglue/pkg/norm"
	"viewglue/pkg/view"
)

type channel struct {
	field   string
	visible bool
	norm    *norm.Normalizer

	// limits-fixed copy of norm, derived from a preview of the whole plane
	fixed *norm.Normalizer
}

// CompositeImage combines up to three dataset fields into an opaque RGB
// image, one normalized field per color channel.
//
// Limits for each channel are derived once per view from a preview of the
// whole plane, so every cutout of the same view uses the same mapping.
type CompositeImage struct {
	data      Dataset
	view      view.View
	transpose bool
	channels  [3]channel
}

// NewCompositeImage binds a dataset and logical view. All channels start
// empty and visible.
func NewCompositeImage(data Dataset, v view.View, transpose bool) *CompositeImage {
	img := &CompositeImage{
		data:      data,
		view:      slices.Clone(v),
		transpose: transpose,
	}
	for i := range img.channels {
		img.channels[i].visible = true
	}
	return img
}

// SetView replaces the logical view and transpose flag.
func (c *CompositeImage) SetView(v view.View, transpose bool) {
	c.view = slices.Clone(v)
	c.transpose = transpose
	c.forget()
}

// SetChannel assigns a field, normalizer and visibility to one channel. An
// empty field or a hidden channel renders as zero. A nil normalizer uses
// norm.New defaults.
func (c *CompositeImage) SetChannel(ch models.Channel, field string, n *norm.Normalizer, visible bool) {
	if !ch.Valid() {
		return
	}
	c.channels[ch] = channel{field: field, visible: visible, norm: n}
}

func (c *CompositeImage) forget() {
	for i := range c.channels {
		c.channels[i].fixed = nil
	}
}

// Shape returns (rows, cols, 4).
func (c *CompositeImage) Shape() ([]int, error) {
	comp, err := composeView(c.data.Shape(), c.view, c.transpose)
	if err != nil {
		return nil, err
	}
	return append(comp.Shape(), 4), nil
}

// Cutout renders the channels over req.
func (c *CompositeImage) Cutout(req view.Request) (*image.NRGBA, error) {
	base, err := composeView(c.data.Shape(), c.view, c.transpose)
	if err != nil {
		return nil, err
	}
	comp, err := base.Then(req)
	if err != nil {
		return nil, err
	}
	if err := comp.Expect(2); err != nil {
		return nil, err
	}
	rows, cols := dims2(comp)

	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	if rows == 0 || cols == 0 {
		return img, nil
	}

	for _, ch := range models.Channels {
		st := &c.channels[ch]
		if st.field == "" || !st.visible {
			continue
		}
		n, err := c.fixedNorm(st, base)
		if err != nil {
			return nil, err
		}
		values, err := c.data.Values(st.field, comp)
		if err != nil {
			return nil, fmt.Errorf("reading %s channel field %s: %w", ch, st.field, err)
		}
		for i, v := range n.Apply(values) {
			img.Pix[i*4+int(ch)] = uint8(255 * v)
		}
	}
	return img, nil
}

// ScaledCutout returns the inclusive region (x1, y1)-(x2, y2) resized to
// width x height.
func (c *CompositeImage) ScaledCutout(x1, y1, x2, y2, width, height int) (Scaled, error) {
	if x2 < x1 || y2 < y1 {
		return Scaled{}, fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrInvalidRegion, x1, y1, x2, y2)
	}
	if width <= 0 || height <= 0 {
		return Scaled{}, fmt.Errorf("%w: %dx%d", ErrOutputSize, width, height)
	}
	shape, err := c.Shape()
	if err != nil {
		return Scaled{}, err
	}
	return scaledCutout(shape[0], shape[1], c.Cutout, x1, y1, x2, y2, width, height)
}

func (c *CompositeImage) fixedNorm(st *channel, base view.Composite) (*norm.Normalizer, error) {
	if st.fixed != nil {
		return st.fixed, nil
	}
	n := st.norm
	if n == nil {
		n = norm.New()
	}
	if n.HasLimits {
		st.fixed = n
		return n, nil
	}

	rows, cols := dims2(base)
	preview, err := base.Then(view.Full(rows, cols, PreviewStride))
	if err != nil {
		return nil, err
	}
	values, err := c.data.Values(st.field, preview)
	if err != nil {
		return nil, fmt.Errorf("reading preview of field %s: %w", st.field, err)
	}
	lo, hi := n.Limits(values)
	st.fixed = n.Clone()
	st.fixed.Set(norm.WithLimits(lo, hi))
	return st.fixed, nil
}
