package data

import (
	"fmt"
	"slices"

	"viewglue/internal/models"
	"viewglue/pkg/view"
)

// RangeSubset selects the elements of a cube whose field value lies in
// [Lo, Hi).
type RangeSubset struct {
	label string
	cube  *Cube
	field string
	lo    float64
	hi    float64
	style models.Style
}

// NewRangeSubset creates a subset of cube on field.
func NewRangeSubset(label string, cube *Cube, field string, lo, hi float64) *RangeSubset {
	return &RangeSubset{
		label: label,
		cube:  cube,
		field: field,
		lo:    lo,
		hi:    hi,
		style: models.DefaultStyle,
	}
}

// Label returns the subset label.
func (s *RangeSubset) Label() string { return s.label }

// Shape returns the shape of the parent dataset.
func (s *RangeSubset) Shape() []int { return s.cube.Shape() }

// Style returns the subset's drawing style.
func (s *RangeSubset) Style() models.Style { return s.style }

// SetStyle replaces the drawing style.
func (s *RangeSubset) SetStyle(style models.Style) { s.style = style }

// SetRange changes the selected interval.
func (s *RangeSubset) SetRange(lo, hi float64) {
	s.lo, s.hi = lo, hi
}

// Field returns the attribute the subset is defined on.
func (s *RangeSubset) Field() string { return s.field }

// ToMask evaluates membership for every element selected by comp.
func (s *RangeSubset) ToMask(comp view.Composite) ([]bool, error) {
	values, ok := s.cube.fields[s.field]
	if !ok {
		return nil, &IncompatibleAttributeError{Attributes: []string{s.field}}
	}
	if !slices.Equal(comp.Base(), s.cube.shape) {
		return nil, fmt.Errorf("%w: composite base %v, dataset %v", ErrShapeMismatch, comp.Base(), s.cube.shape)
	}

	offsets := comp.Offsets()
	mask := make([]bool, len(offsets))
	for i, off := range offsets {
		v := values[off]
		mask[i] = v >= s.lo && v < s.hi
	}
	return mask, nil
}
