package layer

import (
	"gonum.org/v1/gonum/mat"

	"viewglue/pkg/canvas"
	"viewglue/pkg/lazyimage"
	"viewglue/pkg/norm"
	"viewglue/pkg/view"
)

// ImageLayer shows one field of a dataset as the canvas's primary image.
type ImageLayer struct {
	artist
	data     lazyimage.Dataset
	img      *lazyimage.DataImage
	override *mat.Dense
	ok       bool
}

// NewImageLayer returns a controller for data drawn on c.
func NewImageLayer(label string, data lazyimage.Dataset, c canvas.Canvas, opts ...Option) *ImageLayer {
	return &ImageLayer{
		artist: newArtist(label, c, buildOptions(opts)),
		data:   data,
	}
}

// Enabled reports whether the last Update produced a displayable image.
func (l *ImageLayer) Enabled() bool { return l.img != nil && l.ok }

// Image returns the lazy image, or nil before the first Update.
func (l *ImageLayer) Image() *lazyimage.DataImage { return l.img }

// SetVisible shows or hides the layer. Showing re-places the last image
// without recomputing it.
func (l *ImageLayer) SetVisible(visible bool) {
	if visible == l.visible {
		return
	}
	l.visible = visible
	if !visible {
		l.Clear()
	} else if l.Enabled() {
		l.canvas.SetImage(l.img)
	}
}

// SetNorm does nothing; numeric images are normalized by the canvas.
func (l *ImageLayer) SetNorm(...norm.Option) {}

// ClearNorm does nothing; numeric images are normalized by the canvas.
func (l *ImageLayer) ClearNorm() {}

// OverrideImage temporarily shows m instead of the dataset. m must have
// the shape of the current view.
func (l *ImageLayer) OverrideImage(m *mat.Dense) {
	l.override = m
	if l.img != nil {
		l.img.SetOverride(m)
	}
}

// ClearOverride returns the layer to dataset values.
func (l *ImageLayer) ClearOverride() {
	l.OverrideImage(nil)
}

// Clear removes the primary image from the canvas.
func (l *ImageLayer) Clear() {
	l.remove(canvas.ImageTag, false)
}

// Update points the lazy image at sel and places it on the canvas. A view
// that does not reduce the data to a plane is returned as a
// *view.CompositionError and leaves the layer disabled.
//
// If the field cannot be read, the layer is disabled, the registered
// IncompatibleHandler is told which attributes are missing, and Update
// returns nil.
func (l *ImageLayer) Update(sel Selection, transpose bool) error {
	l.Clear()

	if l.img == nil {
		l.img = lazyimage.NewDataImage(l.data, sel.Field, sel.View, transpose)
	} else {
		l.img.SetView(sel.View, sel.Field, transpose)
	}
	l.img.SetOverride(l.override)

	shape, err := l.img.Shape()
	if err == nil {
		err = l.checkReadable(shape)
	}
	l.ok = err == nil
	if err != nil {
		if l.disableIncompatible(err) {
			return nil
		}
		return err
	}
	l.logger.Printf("image %s: field %s view %v shape %v", l.label, sel.Field, sel.View, shape)

	if l.visible {
		l.canvas.SetImage(l.img)
	}
	return nil
}

// checkReadable reads a single pixel so that a missing field is found
// before the canvas paints.
func (l *ImageLayer) checkReadable(shape []int) error {
	if shape[0] == 0 || shape[1] == 0 {
		return nil
	}
	_, err := l.img.Cutout(view.Cutout(0, 1, 0, 1))
	return err
}
