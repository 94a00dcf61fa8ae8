// Package lazyimage provides image objects that defer pixel computation until
// a renderer asks for a specific rectangular cutout.
//
// Each image stores a logical view into a shared dataset or subset. Nothing
// is read when the view changes; a cutout request is folded into the stored
// view with the view package and only the requested elements are fetched.
// The images intentionally expose no whole-buffer accessors: every read goes
// through Cutout, ScaledCutout or Preview.
package lazyimage

import (
	"errors"
	"image"

	"viewglue/pkg/view"
)

// PreviewStride is the sampling step of the overview returned by Preview.
const PreviewStride = 10

// Common errors
var (
	ErrEmptyCutout   = errors.New("cutout selects no pixels")
	ErrMaskLength    = errors.New("mask length does not match cutout shape")
	ErrOutputSize    = errors.New("output size must be positive")
	ErrInvalidRegion = errors.New("invalid cutout region")
)

// Dataset is the labeled N-dimensional data an image is drawn from.
// Implementations must not be modified by Values.
type Dataset interface {
	Shape() []int
	Values(field string, c view.Composite) ([]float64, error)
}

// Subset produces boolean membership masks over a dataset. ToMask may fail
// when attributes it depends on are unavailable.
type Subset interface {
	Shape() []int
	ToMask(c view.Composite) ([]bool, error)
}

// Scaled is the result of a scaled cutout.
type Scaled struct {
	Image  *image.NRGBA
	ScaleX float64
	ScaleY float64
}

func composeView(base []int, v view.View, transpose bool, ops ...view.Op) (view.Composite, error) {
	chain := make([]view.Op, 0, len(ops)+2)
	chain = append(chain, v)
	if transpose {
		chain = append(chain, view.Transpose)
	}
	chain = append(chain, ops...)

	c, err := view.Compose(base, chain...)
	if err != nil {
		return view.Composite{}, err
	}
	if err := c.Expect(2); err != nil {
		return view.Composite{}, err
	}
	return c, nil
}

func dims2(c view.Composite) (rows, cols int) {
	shape := c.Shape()
	return shape[0], shape[1]
}
