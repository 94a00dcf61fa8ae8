package data

import (
	"fmt"
	"slices"

	"viewglue/pkg/view"
)

// Cube is an N-dimensional dataset holding one or more named fields, each
// stored flat in row-major order.
type Cube struct {
	label  string
	shape  []int
	fields map[string][]float64
	order  []string
}

// NewCube creates an empty cube with the given shape.
func NewCube(label string, shape ...int) *Cube {
	return &Cube{
		label:  label,
		shape:  slices.Clone(shape),
		fields: make(map[string][]float64),
	}
}

// Label returns the dataset label.
func (c *Cube) Label() string { return c.label }

// Shape returns the dataset dimensions.
func (c *Cube) Shape() []int { return slices.Clone(c.shape) }

// Size returns the number of elements per field.
func (c *Cube) Size() int {
	n := 1
	for _, s := range c.shape {
		n *= s
	}
	return n
}

// AddField stores values under name. The slice is kept, not copied.
func (c *Cube) AddField(name string, values []float64) error {
	if _, ok := c.fields[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateField, name)
	}
	if len(values) != c.Size() {
		return fmt.Errorf("%w: %s has %d values, shape %v needs %d",
			ErrFieldLength, name, len(values), c.shape, c.Size())
	}
	c.fields[name] = values
	c.order = append(c.order, name)
	return nil
}

// RemoveField drops a field. Subsets depending on it become incompatible.
func (c *Cube) RemoveField(name string) {
	if _, ok := c.fields[name]; !ok {
		return
	}
	delete(c.fields, name)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == name })
}

// Fields returns the field names in insertion order.
func (c *Cube) Fields() []string { return slices.Clone(c.order) }

// HasField reports whether the field exists.
func (c *Cube) HasField(name string) bool {
	_, ok := c.fields[name]
	return ok
}

// Values gathers the elements of field selected by comp, in row-major output
// order. The cube is never modified.
func (c *Cube) Values(field string, comp view.Composite) ([]float64, error) {
	values, ok := c.fields[field]
	if !ok {
		return nil, &IncompatibleAttributeError{Attributes: []string{field}}
	}
	if !slices.Equal(comp.Base(), c.shape) {
		return nil, fmt.Errorf("%w: composite base %v, dataset %v", ErrShapeMismatch, comp.Base(), c.shape)
	}

	offsets := comp.Offsets()
	out := make([]float64, len(offsets))
	for i, off := range offsets {
		out[i] = values[off]
	}
	return out, nil
}
