// Package view composes logical views over N-dimensional arrays.
//
// A logical view is a list of per-dimension selectors (integer indices and
// slices) that reduces a dataset to a displayable plane. Views, transposes
// and paint-time cutout requests are folded into a single Composite, an
// affine index map that can be evaluated directly against the base shape
// without materializing any intermediate array.
package view

import (
	"fmt"
	"math"
	"strings"
)

// Open marks an omitted slice bound, the equivalent of leaving the start or
// stop of a Python slice empty.
const Open = math.MinInt

// Selector selects along a single axis. It is implemented by Index and Slice.
type Selector interface {
	selector()
	String() string
}

// Index selects a single position and drops the axis. Negative values count
// from the end of the axis.
type Index int

func (Index) selector() {}

func (i Index) String() string { return fmt.Sprintf("%d", int(i)) }

// Slice selects a strided range and keeps the axis.
// Step 0 is treated as 1.
type Slice struct {
	Start int
	Stop  int
	Step  int
}

func (Slice) selector() {}

// All selects a whole axis.
func All() Slice { return Slice{Start: Open, Stop: Open, Step: 1} }

// Span selects [start, stop) with unit step.
func Span(start, stop int) Slice { return Slice{Start: start, Stop: stop, Step: 1} }

// Strided selects [start, stop) every step elements.
func Strided(start, stop, step int) Slice { return Slice{Start: start, Stop: stop, Step: step} }

func (s Slice) String() string {
	var b strings.Builder
	if s.Start != Open {
		fmt.Fprintf(&b, "%d", s.Start)
	}
	b.WriteByte(':')
	if s.Stop != Open {
		fmt.Fprintf(&b, "%d", s.Stop)
	}
	if s.Step != 0 && s.Step != 1 {
		fmt.Fprintf(&b, ":%d", s.Step)
	}
	return b.String()
}

// bounds normalizes the slice against an axis of length n and returns the
// first position, the step and the number of selected elements.
func (s Slice) bounds(n int) (start, step, count int) {
	step = s.Step
	if step == 0 {
		step = 1
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}

	clamp := func(v, def int) int {
		if v == Open {
			return def
		}
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}

	if step > 0 {
		start = clamp(s.Start, lower)
		stop := clamp(s.Stop, upper)
		if stop > start {
			count = (stop-start-1)/step + 1
		}
	} else {
		start = clamp(s.Start, upper)
		stop := clamp(s.Stop, lower)
		if start > stop {
			count = (start-stop-1)/(-step) + 1
		}
	}
	if count == 0 {
		start = 0
	}
	return start, step, count
}

// View is an ordered list of selectors, one per leading axis. Axes without a
// selector are kept whole.
type View []Selector

func (v View) String() string {
	parts := make([]string, len(v))
	for i, s := range v {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Request is a paint-time cutout: a row range and a column range expressed in
// the coordinate space of the view being cut.
type Request struct {
	Rows Slice
	Cols Slice
}

// Cutout builds a unit-step request for rows [y1, y2) and columns [x1, x2).
func Cutout(y1, y2, x1, x2 int) Request {
	return Request{Rows: Span(y1, y2), Cols: Span(x1, x2)}
}

// Full builds a request covering a whole plane of the given shape, sampling
// every stride-th element.
func Full(rows, cols, stride int) Request {
	return Request{Rows: Strided(0, rows, stride), Cols: Strided(0, cols, stride)}
}

// View returns the request as a two-selector View.
func (r Request) View() View { return View{r.Rows, r.Cols} }

func (r Request) String() string { return r.View().String() }
