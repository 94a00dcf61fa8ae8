package lazyimage

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"viewglue/pkg/view"
)

// DataImage is a lazily evaluated 2D plane of one dataset field.
//
// An override matrix, when set, replaces the dataset for every read. It must
// have the shape of the current view.
type DataImage struct {
	data      Dataset
	field     string
	view      view.View
	transpose bool
	override  *mat.Dense
}

// NewDataImage binds a dataset field and a logical view.
func NewDataImage(data Dataset, field string, v view.View, transpose bool) *DataImage {
	return &DataImage{
		data:      data,
		field:     field,
		view:      slices.Clone(v),
		transpose: transpose,
	}
}

// SetView replaces the logical view, field and transpose flag. No pixels are
// computed.
func (d *DataImage) SetView(v view.View, field string, transpose bool) {
	d.view = slices.Clone(v)
	d.field = field
	d.transpose = transpose
}

// SetOverride makes every read return slices of m instead of dataset values.
// A nil m clears the override.
func (d *DataImage) SetOverride(m *mat.Dense) {
	d.override = m
}

// ClearOverride returns reads to the dataset.
func (d *DataImage) ClearOverride() {
	d.override = nil
}

// Field returns the dataset field being displayed.
func (d *DataImage) Field() string { return d.field }

// View returns a copy of the logical view.
func (d *DataImage) View() view.View { return slices.Clone(d.view) }

// Transposed reports whether the plane is transposed.
func (d *DataImage) Transposed() bool { return d.transpose }

// Shape returns (rows, cols) of the logical plane.
func (d *DataImage) Shape() ([]int, error) {
	c, err := composeView(d.data.Shape(), d.view, d.transpose)
	if err != nil {
		return nil, err
	}
	return c.Shape(), nil
}

// Cutout returns the pixels selected by req, in the coordinates of the
// logical plane.
func (d *DataImage) Cutout(req view.Request) (*mat.Dense, error) {
	if d.override != nil {
		return d.overrideCutout(req)
	}

	c, err := composeView(d.data.Shape(), d.view, d.transpose, req)
	if err != nil {
		return nil, err
	}
	rows, cols := dims2(c)
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: %v of field %s", ErrEmptyCutout, req, d.field)
	}

	values, err := d.data.Values(d.field, c)
	if err != nil {
		return nil, fmt.Errorf("reading field %s: %w", d.field, err)
	}
	return mat.NewDense(rows, cols, values), nil
}

// Preview returns a stride-PreviewStride sampling of the whole plane.
func (d *DataImage) Preview() (*mat.Dense, error) {
	shape, err := d.Shape()
	if err != nil {
		return nil, err
	}
	return d.Cutout(view.Full(shape[0], shape[1], PreviewStride))
}

func (d *DataImage) overrideCutout(req view.Request) (*mat.Dense, error) {
	r, c := d.override.Dims()
	comp, err := view.Compose([]int{r, c}, req)
	if err != nil {
		return nil, err
	}
	rows, cols := dims2(comp)
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: %v of override", ErrEmptyCutout, req)
	}

	values := make([]float64, 0, rows*cols)
	for _, off := range comp.Offsets() {
		values = append(values, d.override.At(off/c, off%c))
	}
	return mat.NewDense(rows, cols, values), nil
}
