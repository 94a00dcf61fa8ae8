package lazyimage

import (
	"fmt"
	"image"
	"slices"

	"viewglue/internal/models"
	"viewglue/pkg/view"
)

// SubsetAlpha is the alpha given to pixels inside the subset. Half opacity
// keeps overlapping subsets distinguishable.
const SubsetAlpha = 127

// SubsetImage renders a subset mask as a colored, semi-transparent overlay.
// The last computed overlay is kept until the view, transpose flag or color
// changes, so repeated reads of the same region evaluate the mask once.
type SubsetImage struct {
	subset    Subset
	view      view.View
	transpose bool
	color     models.RGB

	memoKey string
	memo    *image.NRGBA
}

// NewSubsetImage binds a subset, a logical view and an overlay color.
func NewSubsetImage(subset Subset, v view.View, color models.RGB, transpose bool) *SubsetImage {
	return &SubsetImage{
		subset:    subset,
		view:      slices.Clone(v),
		transpose: transpose,
		color:     color.Clamped(),
	}
}

// SetColor changes the overlay color.
func (s *SubsetImage) SetColor(c models.RGB) {
	s.color = c.Clamped()
	s.forget()
}

// SetView replaces the logical view and transpose flag.
func (s *SubsetImage) SetView(v view.View, transpose bool) {
	s.view = slices.Clone(v)
	s.transpose = transpose
	s.forget()
}

// SetTranspose changes only the transpose flag.
func (s *SubsetImage) SetTranspose(transpose bool) {
	s.transpose = transpose
	s.forget()
}

// Color returns the overlay color.
func (s *SubsetImage) Color() models.RGB { return s.color }

// View returns a copy of the logical view.
func (s *SubsetImage) View() view.View { return slices.Clone(s.view) }

// Transposed reports whether the overlay is transposed.
func (s *SubsetImage) Transposed() bool { return s.transpose }

func (s *SubsetImage) forget() {
	s.memoKey = ""
	s.memo = nil
}

// Shape returns (rows, cols, 4).
func (s *SubsetImage) Shape() ([]int, error) {
	c, err := composeView(s.subset.Shape(), s.view, s.transpose)
	if err != nil {
		return nil, err
	}
	return append(c.Shape(), 4), nil
}

// Cutout evaluates the mask over req and converts it to RGBA. The returned
// image may be shared with later calls and must not be modified.
// Mask failures from the subset are returned unchanged.
func (s *SubsetImage) Cutout(req view.Request) (*image.NRGBA, error) {
	c, err := composeView(s.subset.Shape(), s.view, s.transpose, req)
	if err != nil {
		return nil, err
	}

	key := c.String() + "/" + s.color.String()
	if s.memo != nil && s.memoKey == key {
		return s.memo, nil
	}

	mask, err := s.subset.ToMask(c)
	if err != nil {
		return nil, err
	}
	rows, cols := dims2(c)
	if len(mask) != rows*cols {
		return nil, fmt.Errorf("%w: got %d, want %dx%d", ErrMaskLength, len(mask), rows, cols)
	}

	s.memo = MaskToRGBA(mask, rows, cols, s.color)
	s.memoKey = key
	return s.memo, nil
}

// ScaledCutout returns the inclusive region (x1, y1)-(x2, y2) resampled to
// width x height pixels, with the scale factors actually applied.
//
// When upsampling on both axes the region is clamped one pixel inside the
// image, the mask is evaluated once at source resolution, and the result is
// enlarged by nearest-neighbour index lookup. Otherwise the generic scaled
// cutout is used.
func (s *SubsetImage) ScaledCutout(x1, y1, x2, y2, width, height int) (Scaled, error) {
	if x2 < x1 || y2 < y1 {
		return Scaled{}, fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrInvalidRegion, x1, y1, x2, y2)
	}
	if width <= 0 || height <= 0 {
		return Scaled{}, fmt.Errorf("%w: %dx%d", ErrOutputSize, width, height)
	}

	shape, err := s.Shape()
	if err != nil {
		return Scaled{}, err
	}
	rows, cols := shape[0], shape[1]

	upsampling := width > x2-x1+1 && height > y2-y1+1
	if !upsampling || rows < 2 || cols < 2 {
		return scaledCutout(rows, cols, s.Cutout, x1, y1, x2, y2, width, height)
	}

	x1, x2 = clampInt(x1, 0, cols-2), clampInt(x2, 0, cols-2)
	y1, y2 = clampInt(y1, 0, rows-2), clampInt(y2, 0, rows-2)

	src, err := s.Cutout(view.Cutout(y1, y2+1, x1, x2+1))
	if err != nil {
		return Scaled{}, err
	}

	out := resampleNearest(src, width, height)
	return Scaled{
		Image:  out,
		ScaleX: float64(width) / float64(x2-x1+1),
		ScaleY: float64(height) / float64(y2-y1+1),
	}, nil
}

// MaskToRGBA converts a row-major mask into an overlay: pixels inside the
// mask get 255*color and alpha SubsetAlpha, pixels outside are all zero.
func MaskToRGBA(mask []bool, rows, cols int, c models.RGB) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	r, g, b := c.Bytes()
	n := min(len(mask), rows*cols)
	for i := 0; i < n; i++ {
		if !mask[i] {
			continue
		}
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = r, g, b, SubsetAlpha
	}
	return img
}
