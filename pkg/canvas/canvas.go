// Package canvas defines the surface layer controllers draw on, and provides
// Memory, an in-process canvas that keeps placed objects by tag and renders
// the scene to an RGBA raster.
package canvas

import (
	"errors"
	"image"

	"gonum.org/v1/gonum/mat"

	"viewglue/pkg/lazyimage"
	"viewglue/pkg/view"
)

// ImageTag is the tag of the canvas's primary image.
const ImageTag = "_image"

// ErrObjectNotFound is returned by DeleteObjectsByTag when no tag matched.
var ErrObjectNotFound = errors.New("no canvas object with tag")

// ErrNoImage is returned when rendering an empty canvas.
var ErrNoImage = errors.New("canvas has nothing to render")

// Whence tells Redraw how much of the pipeline to rerun.
type Whence int

const (
	RedrawData     Whence = iota // new primary image
	RedrawCuts                   // normalization changed
	RedrawColor                  // colormap changed
	RedrawOverlays               // only overlays changed
)

// Image is anything the canvas can hold as its primary image. Concrete
// values are expected to also satisfy DataImage or ColorImage.
type Image interface {
	Shape() ([]int, error)
}

// DataImage is a lazily evaluated numeric plane, colored by the canvas's
// normalizer and colormap.
type DataImage interface {
	Image
	Cutout(req view.Request) (*mat.Dense, error)
	Preview() (*mat.Dense, error)
}

// ColorImage is a lazily evaluated RGBA image.
type ColorImage interface {
	Image
	Cutout(req view.Request) (*image.NRGBA, error)
	ScaledCutout(x1, y1, x2, y2, width, height int) (lazyimage.Scaled, error)
}

// Object is an overlay placed at (X, Y) in primary image coordinates.
type Object struct {
	X, Y   int
	Image  ColorImage
	Alpha  float64
	ZOrder int
}

// Canvas is the contract between layer controllers and a display surface.
type Canvas interface {
	SetImage(img Image)
	AddObject(obj Object, tag string, redraw bool)
	// DeleteObjectsByTag removes every object carrying one of tags. ImageTag
	// removes the primary image.
	DeleteObjectsByTag(tags []string, redraw bool) error
	Redraw(whence Whence)
	SetCmap(name string) error
}
