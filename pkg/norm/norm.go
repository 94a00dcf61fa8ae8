// Package norm maps raw sample values to display intensities in [0, 1],
// following the DS9 conventions: percentile clipping, a stretch function,
// then bias and contrast.
package norm

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Normalizer holds the normalization parameters. The zero value is not
// useful; create one with New.
type Normalizer struct {
	// Stretch is applied after scaling into [0, 1].
	Stretch Stretch

	// ClipLo and ClipHi are the percentiles (0-100) used to derive the
	// limits when no explicit limits are set.
	ClipLo float64
	ClipHi float64

	// VMin and VMax are explicit limits, used when HasLimits is true.
	VMin      float64
	VMax      float64
	HasLimits bool

	Bias     float64
	Contrast float64
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithStretch sets the stretch function.
func WithStretch(s Stretch) Option {
	return func(n *Normalizer) {
		n.Stretch = s
	}
}

// WithClip sets the percentile limits. Values outside 0-100 are ignored.
func WithClip(lo, hi float64) Option {
	return func(n *Normalizer) {
		if lo >= 0 && hi <= 100 && lo <= hi {
			n.ClipLo, n.ClipHi = lo, hi
		}
	}
}

// WithLimits fixes vmin and vmax. vmax below vmin inverts the output.
func WithLimits(vmin, vmax float64) Option {
	return func(n *Normalizer) {
		n.VMin, n.VMax = vmin, vmax
		n.HasLimits = true
	}
}

// WithAutoLimits drops explicit limits in favor of the clip percentiles.
func WithAutoLimits() Option {
	return func(n *Normalizer) {
		n.HasLimits = false
	}
}

// WithBias sets the bias, 0.5 being neutral.
func WithBias(bias float64) Option {
	return func(n *Normalizer) {
		n.Bias = bias
	}
}

// WithContrast sets the contrast, 1 being neutral.
func WithContrast(contrast float64) Option {
	return func(n *Normalizer) {
		n.Contrast = contrast
	}
}

// New returns a linear 5-95 percentile normalizer with the options applied.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		Stretch:  Linear,
		ClipLo:   5,
		ClipHi:   95,
		Bias:     0.5,
		Contrast: 1,
	}
	n.Set(opts...)
	return n
}

// Set applies options in place.
func (n *Normalizer) Set(opts ...Option) {
	for _, opt := range opts {
		opt(n)
	}
}

// Clone returns an independent copy.
func (n *Normalizer) Clone() *Normalizer {
	c := *n
	return &c
}

// Limits returns the (vmin, vmax) pair used for values.
func (n *Normalizer) Limits(values []float64) (vmin, vmax float64) {
	if n.HasLimits {
		return n.VMin, n.VMax
	}

	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0
	}
	if n.ClipLo <= 0 && n.ClipHi >= 100 {
		return floats.Min(finite), floats.Max(finite)
	}

	sort.Float64s(finite)
	vmin = stat.Quantile(n.ClipLo/100, stat.Empirical, finite, nil)
	vmax = stat.Quantile(n.ClipHi/100, stat.Empirical, finite, nil)
	return vmin, vmax
}

// Apply normalizes values into a new slice of intensities in [0, 1].
// Non-finite inputs map to 0.
func (n *Normalizer) Apply(values []float64) []float64 {
	vmin, vmax := n.Limits(values)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = n.scale(v, vmin, vmax)
	}
	return out
}

// ApplyDense normalizes a matrix into a new matrix of the same shape.
func (n *Normalizer) ApplyDense(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	values := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		values = append(values, m.RawRowView(i)...)
	}

	out := mat.NewDense(rows, cols, n.Apply(values))
	return out
}

func (n *Normalizer) scale(v, vmin, vmax float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	inverted := vmax < vmin
	if inverted {
		vmin, vmax = vmax, vmin
	}

	var x float64
	if vmax > vmin {
		x = clip((v - vmin) / (vmax - vmin))
	}
	x = n.Stretch.apply(x)
	x = clip((x-n.Bias)*n.Contrast + 0.5)
	if inverted {
		x = 1 - x
	}
	return x
}

func clip(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
