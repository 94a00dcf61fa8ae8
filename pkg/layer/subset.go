package layer

import (
	"fmt"

	"viewglue/internal/models"
	"viewglue/pkg/canvas"
	"viewglue/pkg/lazyimage"
	"viewglue/pkg/view"
)

// Subset is a mask-producing layer with a label and a display style.
type Subset interface {
	lazyimage.Subset
	Label() string
	Style() models.Style
}

// SubsetLayer draws a subset as a colored overlay.
type SubsetLayer struct {
	artist
	subset     Subset
	img        *lazyimage.SubsetImage
	alpha      float64
	fixedAlpha bool
	enabled    bool
}

// NewSubsetLayer returns a controller for subset drawn on c.
func NewSubsetLayer(subset Subset, c canvas.Canvas, opts ...Option) *SubsetLayer {
	o := buildOptions(opts)
	return &SubsetLayer{
		artist:     newArtist(subset.Label(), c, o),
		subset:     subset,
		alpha:      o.alpha,
		fixedAlpha: o.fixedAlpha,
		enabled:    true,
	}
}

// Enabled reports whether the subset's mask could be computed at the last
// Update.
func (l *SubsetLayer) Enabled() bool { return l.enabled }

// Image returns the lazy overlay, or nil before the first successful Update.
func (l *SubsetLayer) Image() *lazyimage.SubsetImage { return l.img }

// SetVisible shows or hides the overlay. Showing re-places the last overlay
// without recomputing its mask.
func (l *SubsetLayer) SetVisible(visible bool) {
	if visible == l.visible {
		return
	}
	l.visible = visible
	if !visible {
		l.Clear()
	} else if l.img != nil && l.enabled {
		l.place()
	}
}

// Clear removes the overlay from the canvas.
func (l *SubsetLayer) Clear() {
	l.remove(l.tag, true)
}

// Update points the overlay at sel.View, refreshes its color from the
// subset style and places it on the canvas.
//
// If the subset cannot be evaluated because attributes are missing, the
// layer is disabled, the registered IncompatibleHandler is told which
// attributes, and Update returns nil. Other failures are returned.
func (l *SubsetLayer) Update(sel Selection, transpose bool) error {
	l.Clear()
	l.enabled = true
	l.logger.Printf("view into subset %s is %v", l.label, sel.View)

	if err := l.checkEnabled(sel.View); err != nil {
		l.enabled = false
		if l.disableIncompatible(err) {
			return nil
		}
		return err
	}

	style := l.subset.Style()
	color, err := style.RGB()
	if err != nil {
		l.enabled = false
		return fmt.Errorf("subset %s: %w", l.label, err)
	}
	if !l.fixedAlpha && style.Alpha > 0 {
		l.alpha = style.Alpha
	}

	if l.img == nil {
		l.img = lazyimage.NewSubsetImage(l.subset, sel.View, color, transpose)
	} else {
		l.img.SetView(sel.View, transpose)
		l.img.SetColor(color)
	}

	if l.visible {
		l.place()
	}
	return nil
}

// checkEnabled evaluates the mask of a single pixel so that missing
// attributes are found before the canvas asks for a full cutout.
func (l *SubsetLayer) checkEnabled(v view.View) error {
	c, err := view.Compose(l.subset.Shape(), v)
	if err != nil {
		return err
	}
	if err := c.Expect(2); err != nil {
		return err
	}
	pixel, err := c.Then(view.Cutout(0, 1, 0, 1))
	if err != nil {
		return err
	}
	mask, err := l.subset.ToMask(pixel)
	if err != nil {
		return err
	}
	l.logger.Printf("view mask has shape %v", pixel.Shape())
	if len(mask) != pixel.Size() {
		return fmt.Errorf("%w: got %d, want %d", lazyimage.ErrMaskLength, len(mask), pixel.Size())
	}
	return nil
}

func (l *SubsetLayer) place() {
	l.canvas.AddObject(canvas.Object{
		Image:  l.img,
		Alpha:  l.alpha,
		ZOrder: l.zorder,
	}, l.tag, true)
}
