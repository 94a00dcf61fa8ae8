package view

import (
	"fmt"
	"slices"
	"strings"
)

// Op is one link of a composition chain: a View, a Request, Transpose, or a
// previously built Composite whose base shape matches the current output.
type Op interface {
	apply(c *Composite) error
}

type transposeOp struct{}

// Transpose swaps the two trailing axes of the current output.
var Transpose Op = transposeOp{}

// axis maps one output axis onto a base dimension.
type axis struct {
	dim   int
	start int
	step  int
	n     int
}

// Composite is a folded chain of views expressed as an affine map from output
// coordinates to base coordinates. Every output axis walks one base dimension
// with a fixed start and step; every other base dimension is pinned.
//
// The zero value is not usable; build one with Identity or Compose.
type Composite struct {
	base []int
	pins []int
	free []bool
	axes []axis
}

// Identity returns the composite that selects all of base.
func Identity(base []int) Composite {
	c := Composite{
		base: slices.Clone(base),
		pins: make([]int, len(base)),
		free: make([]bool, len(base)),
		axes: make([]axis, len(base)),
	}
	for d, n := range base {
		c.free[d] = true
		c.axes[d] = axis{dim: d, start: 0, step: 1, n: n}
	}
	return c
}

// Compose folds ops, in order, into a composite valid against base.
func Compose(base []int, ops ...Op) (Composite, error) {
	return Identity(base).Then(ops...)
}

// ShapeOf returns the output shape of composing ops over base without
// touching any data.
func ShapeOf(base []int, ops ...Op) ([]int, error) {
	c, err := Compose(base, ops...)
	if err != nil {
		return nil, err
	}
	return c.Shape(), nil
}

// Then returns a new composite with ops folded after c. The receiver is not
// modified.
func (c Composite) Then(ops ...Op) (Composite, error) {
	out := c.clone()
	for _, op := range ops {
		if op == nil {
			continue
		}
		if err := op.apply(&out); err != nil {
			return Composite{}, err
		}
	}
	return out, nil
}

func (c Composite) clone() Composite {
	return Composite{
		base: slices.Clone(c.base),
		pins: slices.Clone(c.pins),
		free: slices.Clone(c.free),
		axes: slices.Clone(c.axes),
	}
}

// Base returns the shape the composite indexes into.
func (c Composite) Base() []int { return slices.Clone(c.base) }

// Shape returns the output shape.
func (c Composite) Shape() []int {
	shape := make([]int, len(c.axes))
	for i, a := range c.axes {
		shape[i] = a.n
	}
	return shape
}

// NDim returns the number of output dimensions.
func (c Composite) NDim() int { return len(c.axes) }

// Size returns the number of output elements.
func (c Composite) Size() int {
	size := 1
	for _, a := range c.axes {
		size *= a.n
	}
	return size
}

// Expect fails with a CompositionError unless the output has ndim dimensions.
func (c Composite) Expect(ndim int) error {
	if len(c.axes) != ndim {
		return &CompositionError{
			Shape:  c.Shape(),
			Reason: fmt.Sprintf("expected %d output dimensions, got %d", ndim, len(c.axes)),
		}
	}
	return nil
}

// Offsets returns, in row-major output order, the flat row-major offset of
// every selected element within an array of the base shape.
func (c Composite) Offsets() []int {
	size := c.Size()
	if size == 0 {
		return nil
	}

	strides := make([]int, len(c.base))
	stride := 1
	for d := len(c.base) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= c.base[d]
	}

	origin := 0
	for d := range c.base {
		if !c.free[d] {
			origin += c.pins[d] * strides[d]
		}
	}
	deltas := make([]int, len(c.axes))
	for i, a := range c.axes {
		origin += a.start * strides[a.dim]
		deltas[i] = a.step * strides[a.dim]
	}

	offsets := make([]int, 0, size)
	if len(c.axes) == 0 {
		return append(offsets, origin)
	}

	counter := make([]int, len(c.axes))
	last := len(c.axes) - 1
	off := origin
	for {
		inner := c.axes[last].n
		for i := 0; i < inner; i++ {
			offsets = append(offsets, off+i*deltas[last])
		}

		k := last - 1
		for ; k >= 0; k-- {
			counter[k]++
			off += deltas[k]
			if counter[k] < c.axes[k].n {
				break
			}
			off -= counter[k] * deltas[k]
			counter[k] = 0
		}
		if k < 0 {
			return offsets
		}
	}
}

// String renders the composite canonically: one entry per base dimension,
// either its pinned coordinate or the output axis walking it.
func (c Composite) String() string {
	owner := make([]int, len(c.base))
	for i := range owner {
		owner[i] = -1
	}
	for i, a := range c.axes {
		owner[a.dim] = i
	}

	parts := make([]string, len(c.base))
	for d := range c.base {
		if i := owner[d]; i >= 0 {
			a := c.axes[i]
			parts[d] = fmt.Sprintf("ax%d=%d+%d*%d", i, a.start, a.step, a.n)
		} else {
			parts[d] = fmt.Sprintf("%d", c.pins[d])
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (v View) apply(c *Composite) error {
	if len(v) > len(c.axes) {
		return &CompositionError{
			Shape:  c.Shape(),
			Reason: fmt.Sprintf("too many selectors: %d for %d dimensions", len(v), len(c.axes)),
		}
	}

	axes := make([]axis, 0, len(c.axes))
	for k, a := range c.axes {
		if k >= len(v) {
			axes = append(axes, a)
			continue
		}
		switch sel := v[k].(type) {
		case Index:
			i := int(sel)
			if i < 0 {
				i += a.n
			}
			if i < 0 || i >= a.n {
				return &CompositionError{
					Shape:  c.Shape(),
					Reason: fmt.Sprintf("index %d out of range for axis %d of length %d", int(sel), k, a.n),
				}
			}
			c.pins[a.dim] = a.start + i*a.step
			c.free[a.dim] = false
		case Slice:
			start, step, count := sel.bounds(a.n)
			axes = append(axes, axis{
				dim:   a.dim,
				start: a.start + start*a.step,
				step:  a.step * step,
				n:     count,
			})
		default:
			return &CompositionError{
				Shape:  c.Shape(),
				Reason: fmt.Sprintf("unsupported selector %T on axis %d", v[k], k),
			}
		}
	}
	c.axes = axes
	return nil
}

func (r Request) apply(c *Composite) error {
	if len(c.axes) < 2 {
		return &CompositionError{
			Shape:  c.Shape(),
			Reason: "cutout request needs a two-dimensional view",
		}
	}
	return r.View().apply(c)
}

func (transposeOp) apply(c *Composite) error {
	n := len(c.axes)
	if n < 2 {
		return &CompositionError{
			Shape:  c.Shape(),
			Reason: "transpose needs at least two dimensions",
		}
	}
	c.axes[n-2], c.axes[n-1] = c.axes[n-1], c.axes[n-2]
	return nil
}

// apply folds c, a composite built over dst's output shape, into dst.
func (c Composite) apply(dst *Composite) error {
	if !slices.Equal(c.base, dst.Shape()) {
		return &CompositionError{
			Shape:  dst.Shape(),
			Reason: fmt.Sprintf("composite over %v cannot follow output %v", c.base, dst.Shape()),
		}
	}

	outer := dst.axes
	for d := range c.base {
		if c.free[d] {
			continue
		}
		a := outer[d]
		dst.pins[a.dim] = a.start + c.pins[d]*a.step
		dst.free[a.dim] = false
	}

	axes := make([]axis, len(c.axes))
	for i, xa := range c.axes {
		a := outer[xa.dim]
		axes[i] = axis{
			dim:   a.dim,
			start: a.start + xa.start*a.step,
			step:  a.step * xa.step,
			n:     xa.n,
		}
	}
	dst.axes = axes
	return nil
}
