// Package layer keeps canvas objects in sync with dataset layers.
//
// A controller owns one lazy image, created on its first Update and reused
// afterwards, and pushes it to the canvas. Controllers never compute pixels
// themselves; the canvas pulls them from the lazy image at paint time.
// Controllers are not safe for concurrent use.
package layer

import (
	"errors"
	"io"
	"log"

	"viewglue/pkg/canvas"
	"viewglue/pkg/data"
	"viewglue/pkg/view"
)

// DefaultSubsetAlpha is the canvas opacity of subset overlays whose style
// does not set one.
const DefaultSubsetAlpha = 0.5

// Selection is what an upstream layer wants displayed: a dataset field and a
// logical view reducing the dataset to a plane.
type Selection struct {
	Field string
	View  view.View
}

// Artist is the contract shared by every layer controller.
type Artist interface {
	Label() string
	Update(sel Selection, transpose bool) error
	Visible() bool
	SetVisible(visible bool)
	Enabled() bool
	Clear()
	Redraw()
	ZOrder() int
	SetZOrder(z int)
}

// IncompatibleHandler is told which attributes a layer could not use.
type IncompatibleHandler func(label string, attributes []string)

type options struct {
	logger         *log.Logger
	alpha          float64
	fixedAlpha     bool
	onIncompatible IncompatibleHandler
}

// Option configures controllers built by a Client or directly.
type Option func(*options)

// WithLogger sends debug output to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAlpha sets the canvas opacity of subset overlays, overriding their
// style.
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
		o.fixedAlpha = true
	}
}

// WithIncompatibleHandler registers h to be called when a layer is disabled
// because its mask or image needs attributes the data lacks.
func WithIncompatibleHandler(h IncompatibleHandler) Option {
	return func(o *options) {
		o.onIncompatible = h
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: log.New(io.Discard, "", 0),
		alpha:  DefaultSubsetAlpha,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// artist holds the state shared by all controllers.
type artist struct {
	label          string
	tag            string
	canvas         canvas.Canvas
	visible        bool
	zorder         int
	logger         *log.Logger
	onIncompatible IncompatibleHandler
}

func newArtist(label string, c canvas.Canvas, o options) artist {
	return artist{
		label:          label,
		tag:            "layer" + label,
		canvas:         c,
		visible:        true,
		logger:         o.logger,
		onIncompatible: o.onIncompatible,
	}
}

// Label returns the label of the upstream layer.
func (a *artist) Label() string { return a.label }

// Tag returns the canvas tag of the layer's overlay.
func (a *artist) Tag() string { return a.tag }

// Visible reports whether the layer should be shown.
func (a *artist) Visible() bool { return a.visible }

// ZOrder returns the stacking position; lower values are drawn first.
func (a *artist) ZOrder() int { return a.zorder }

// SetZOrder changes the stacking position used the next time the layer is
// placed on the canvas.
func (a *artist) SetZOrder(z int) { a.zorder = z }

// Redraw asks the canvas to repaint.
func (a *artist) Redraw() { a.canvas.Redraw(canvas.RedrawData) }

// remove deletes tag from the canvas. A missing object is not an error.
func (a *artist) remove(tag string, redraw bool) {
	if err := a.canvas.DeleteObjectsByTag([]string{tag}, redraw); err != nil {
		a.logger.Printf("clear %s: %v", a.label, err)
	}
}

// disableIncompatible reports whether err was caused by missing attributes.
// If so the handler is told which ones and the canvas is redrawn.
func (a *artist) disableIncompatible(err error) bool {
	var incompatible *data.IncompatibleAttributeError
	if !errors.As(err, &incompatible) {
		return false
	}
	a.logger.Printf("disabling %s: missing attributes %v", a.label, incompatible.Attributes)
	if a.onIncompatible != nil {
		a.onIncompatible(a.label, incompatible.Attributes)
	}
	a.Redraw()
	return true
}
