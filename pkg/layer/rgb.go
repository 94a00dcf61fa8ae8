package layer

import (
	"errors"
	"fmt"

	"viewglue/internal/models"
	"viewglue/pkg/canvas"
	"viewglue/pkg/data"
	"viewglue/pkg/lazyimage"
	"viewglue/pkg/norm"
	"viewglue/pkg/view"
)

// RGBLayer shows three fields of one dataset as the red, green and blue
// channels of the canvas's primary image.
type RGBLayer struct {
	artist
	data     lazyimage.Dataset
	img      *lazyimage.CompositeImage
	fields   [3]string
	shown    [3]bool
	norms    [3]*norm.Normalizer
	contrast models.Channel
	ok       bool
}

// NewRGBLayer returns a controller for data drawn on c. All channels start
// empty and visible, and the contrast channel is green.
func NewRGBLayer(label string, data lazyimage.Dataset, c canvas.Canvas, opts ...Option) *RGBLayer {
	return &RGBLayer{
		artist:   newArtist(label, c, buildOptions(opts)),
		data:     data,
		shown:    [3]bool{true, true, true},
		contrast: models.Green,
	}
}

// Enabled reports whether the last Update produced a displayable image.
func (l *RGBLayer) Enabled() bool { return l.img != nil && l.ok }

// Image returns the lazy composite, or nil before the first Update.
func (l *RGBLayer) Image() *lazyimage.CompositeImage { return l.img }

// SetChannel assigns field to ch. An empty field renders the channel black.
func (l *RGBLayer) SetChannel(ch models.Channel, field string) error {
	if !ch.Valid() {
		return fmt.Errorf("invalid channel %d", ch)
	}
	l.fields[ch] = field
	l.sync()
	return nil
}

// Channel returns the field assigned to ch.
func (l *RGBLayer) Channel(ch models.Channel) string {
	if !ch.Valid() {
		return ""
	}
	return l.fields[ch]
}

// SetChannelVisible shows or hides a single channel.
func (l *RGBLayer) SetChannelVisible(ch models.Channel, visible bool) error {
	if !ch.Valid() {
		return fmt.Errorf("invalid channel %d", ch)
	}
	l.shown[ch] = visible
	l.sync()
	return nil
}

// ChannelVisible reports whether ch is shown.
func (l *RGBLayer) ChannelVisible(ch models.Channel) bool {
	return ch.Valid() && l.shown[ch]
}

// SetContrastChannel selects the channel whose normalizer SetNorm edits.
func (l *RGBLayer) SetContrastChannel(ch models.Channel) error {
	if !ch.Valid() {
		return fmt.Errorf("invalid channel %d", ch)
	}
	l.contrast = ch
	return nil
}

// ContrastChannel returns the channel SetNorm edits.
func (l *RGBLayer) ContrastChannel() models.Channel { return l.contrast }

// Norm returns the contrast channel's normalizer, or nil if it uses defaults.
func (l *RGBLayer) Norm() *norm.Normalizer { return l.norms[l.contrast] }

// SetNorm applies opts to the contrast channel's normalizer, creating it
// from defaults first if needed.
func (l *RGBLayer) SetNorm(opts ...norm.Option) {
	n := l.norms[l.contrast]
	if n == nil {
		n = norm.New()
	} else {
		n = n.Clone()
	}
	n.Set(opts...)
	l.norms[l.contrast] = n
	l.sync()
}

// ClearNorm returns the contrast channel to default normalization.
func (l *RGBLayer) ClearNorm() {
	l.norms[l.contrast] = nil
	l.sync()
}

// SetVisible shows or hides the composite.
func (l *RGBLayer) SetVisible(visible bool) {
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

// Clear removes the composite from the canvas.
func (l *RGBLayer) Clear() {
	l.remove(canvas.ImageTag, false)
}

// Update points the composite at sel.View and places it on the canvas.
// sel.Field is ignored; fields come from the channel assignments.
//
// If a shown channel's field cannot be read, the layer is disabled, the
// registered IncompatibleHandler is told every missing field, and Update
// returns nil.
func (l *RGBLayer) Update(sel Selection, transpose bool) error {
	l.Clear()

	if l.img == nil {
		l.img = lazyimage.NewCompositeImage(l.data, sel.View, transpose)
	} else {
		l.img.SetView(sel.View, transpose)
	}
	l.sync()

	shape, err := l.img.Shape()
	if err == nil {
		err = l.checkReadable(sel.View, transpose)
	}
	l.ok = err == nil
	if err != nil {
		if l.disableIncompatible(err) {
			return nil
		}
		return err
	}
	l.logger.Printf("rgb %s: channels %v shape %v", l.label, l.fields, shape)

	if l.visible {
		l.canvas.SetImage(l.img)
	}
	return nil
}

// checkReadable reads one pixel of every shown channel. Missing fields are
// collected into a single *data.IncompatibleAttributeError.
func (l *RGBLayer) checkReadable(v view.View, transpose bool) error {
	ops := []view.Op{v}
	if transpose {
		ops = append(ops, view.Transpose)
	}
	c, err := view.Compose(l.data.Shape(), ops...)
	if err != nil {
		return err
	}
	shape := c.Shape()
	if shape[0] == 0 || shape[1] == 0 {
		return nil
	}
	pixel, err := c.Then(view.Cutout(0, 1, 0, 1))
	if err != nil {
		return err
	}

	var missing []string
	for _, ch := range models.Channels {
		if l.fields[ch] == "" || !l.shown[ch] {
			continue
		}
		_, err := l.data.Values(l.fields[ch], pixel)
		var incompatible *data.IncompatibleAttributeError
		switch {
		case errors.As(err, &incompatible):
			missing = append(missing, incompatible.Attributes...)
		case err != nil:
			return fmt.Errorf("reading %s channel field %s: %w", ch, l.fields[ch], err)
		}
	}
	if len(missing) > 0 {
		return &data.IncompatibleAttributeError{Attributes: missing}
	}
	return nil
}

// sync pushes the channel settings into the composite, if it exists.
func (l *RGBLayer) sync() {
	if l.img == nil {
		return
	}
	for _, ch := range models.Channels {
		l.img.SetChannel(ch, l.fields[ch], l.norms[ch], l.shown[ch])
	}
}
