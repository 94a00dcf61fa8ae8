package layer

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"viewglue/internal/models"
	"viewglue/pkg/canvas"
	"viewglue/pkg/data"
	"viewglue/pkg/lazyimage"
	"viewglue/pkg/norm"
	"viewglue/pkg/view"
)

type countingSubset struct {
	*data.RangeSubset
	calls int
}

func (s *countingSubset) ToMask(c view.Composite) ([]bool, error) {
	s.calls++
	return s.RangeSubset.ToMask(c)
}

func newCube(t *testing.T) *data.Cube {
	t.Helper()
	cube := data.NewCube("cube", 2, 4, 5)
	flux := make([]float64, cube.Size())
	for i := range flux {
		flux[i] = float64(i)
	}
	require.NoError(t, cube.AddField("flux", flux))
	return cube
}

func plane(z int) Selection {
	return Selection{Field: "flux", View: view.View{view.Index(z)}}
}

func TestSubsetLayerVisibilityToggling(t *testing.T) {
	cube := newCube(t)
	subset := &countingSubset{RangeSubset: data.NewRangeSubset("bright", cube, "flux", 10, 30)}
	mem := canvas.NewMemory()
	l := NewSubsetLayer(subset, mem)

	require.NoError(t, l.Update(plane(1), false))
	require.True(t, mem.HasTag("layerbright"))
	masks := subset.calls
	deletes := mem.Calls.Delete
	adds := mem.Calls.Add

	l.SetVisible(false)
	l.SetVisible(false)
	assert.Equal(t, deletes+1, mem.Calls.Delete, "hiding twice removes once")
	assert.False(t, mem.HasTag("layerbright"))
	assert.False(t, l.Visible())

	l.SetVisible(true)
	assert.True(t, mem.HasTag("layerbright"))
	assert.Equal(t, adds+1, mem.Calls.Add)
	assert.Equal(t, masks, subset.calls, "showing again does not recompute the mask")

	obj, ok := mem.Object("layerbright")
	require.True(t, ok)
	assert.Same(t, l.Image(), obj.Image)
	assert.Equal(t, DefaultSubsetAlpha, obj.Alpha)
}

func TestSubsetLayerMaskFailure(t *testing.T) {
	cube := newCube(t)
	cube.RemoveField("flux")
	subset := data.NewRangeSubset("bright", cube, "flux", 10, 30)
	mem := canvas.NewMemory()

	var gotLabel string
	var gotAttrs []string
	l := NewSubsetLayer(subset, mem, WithIncompatibleHandler(func(label string, attrs []string) {
		gotLabel, gotAttrs = label, attrs
	}))

	require.NoError(t, l.Update(plane(0), false))
	assert.False(t, l.Enabled())
	assert.False(t, mem.HasTag("layerbright"))
	assert.Equal(t, "bright", gotLabel)
	assert.Equal(t, []string{"flux"}, gotAttrs)

	// visibility changes do not resurrect a disabled layer
	l.SetVisible(false)
	l.SetVisible(true)
	assert.False(t, mem.HasTag("layerbright"))

	flux := make([]float64, cube.Size())
	require.NoError(t, cube.AddField("flux", flux))
	require.NoError(t, l.Update(plane(0), false))
	assert.True(t, l.Enabled())
	assert.True(t, mem.HasTag("layerbright"))
}

func TestSubsetLayerCompositionError(t *testing.T) {
	cube := newCube(t)
	mem := canvas.NewMemory()
	l := NewSubsetLayer(data.NewRangeSubset("s", cube, "flux", 0, 1), mem)

	err := l.Update(Selection{View: view.View{}}, false)
	assert.ErrorIs(t, err, view.ErrComposition)
	assert.False(t, l.Enabled())
	assert.False(t, mem.HasTag("layers"))
}

func TestSubsetLayerFollowsStyle(t *testing.T) {
	cube := newCube(t)
	subset := data.NewRangeSubset("s", cube, "flux", 0, 1)
	mem := canvas.NewMemory()
	l := NewSubsetLayer(subset, mem, WithAlpha(0.8))

	require.NoError(t, l.Update(plane(0), false))
	first := l.Image()
	assert.Equal(t, models.RGB{R: 1}, first.Color())

	subset.SetStyle(models.Style{Color: "#00ff00", Alpha: 0.5})
	require.NoError(t, l.Update(plane(1), true))
	assert.Same(t, first, l.Image(), "the lazy image is reused across updates")
	assert.Equal(t, models.RGB{G: 1}, l.Image().Color())
	assert.True(t, l.Image().Transposed())

	obj, ok := mem.Object("layers")
	require.True(t, ok)
	assert.Equal(t, 0.8, obj.Alpha)

	subset.SetStyle(models.Style{Color: "not a color"})
	assert.Error(t, l.Update(plane(0), false))
	assert.False(t, l.Enabled())
}

func TestClearIsIdempotent(t *testing.T) {
	cube := newCube(t)
	mem := canvas.NewMemory()
	var logs bytes.Buffer
	client := NewClient(mem, WithLogger(log.New(&logs, "", 0)))
	img := client.NewImageLayer("cube", cube)
	sub := client.NewSubsetLayer(data.NewRangeSubset("s", cube, "flux", 0, 5))

	require.NoError(t, client.Update(plane(0), false))
	require.True(t, mem.HasTag(canvas.ImageTag))
	require.True(t, mem.HasTag("layers"))

	for _, a := range []Artist{img, sub} {
		a.Clear()
	}
	tags := mem.Tags()
	image := mem.Image()

	for _, a := range []Artist{img, sub} {
		assert.NotPanics(t, a.Clear)
	}
	assert.Equal(t, tags, mem.Tags())
	assert.Equal(t, image, mem.Image())
	assert.Nil(t, mem.Image())
	assert.Contains(t, logs.String(), "view into subset s")
}

func TestImageLayerUpdate(t *testing.T) {
	cube := newCube(t)
	mem := canvas.NewMemory()
	l := NewImageLayer("cube", cube, mem)
	assert.False(t, l.Enabled())

	require.NoError(t, l.Update(plane(1), true))
	assert.True(t, l.Enabled())
	require.Same(t, l.Image(), mem.Image())

	shape, err := l.Image().Shape()
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, shape)

	err = l.Update(Selection{Field: "flux", View: view.View{view.Index(7)}}, false)
	assert.ErrorIs(t, err, view.ErrComposition)
	assert.False(t, l.Enabled())
	assert.False(t, mem.HasTag(canvas.ImageTag))

	// no-ops for this canvas
	l.SetNorm(norm.WithStretch(norm.Log))
	l.ClearNorm()
}

func TestImageLayerMissingField(t *testing.T) {
	cube := newCube(t)
	mem := canvas.NewMemory()

	var gotLabel string
	var gotAttrs []string
	client := NewClient(mem, WithIncompatibleHandler(func(label string, attrs []string) {
		gotLabel, gotAttrs = label, attrs
	}))
	img := client.NewImageLayer("cube", cube)
	sub := client.NewSubsetLayer(data.NewRangeSubset("s", cube, "flux", 0, 5))

	require.NoError(t, client.Update(Selection{Field: "nope", View: view.View{view.Index(0)}}, false))
	assert.False(t, img.Enabled())
	assert.False(t, mem.HasTag(canvas.ImageTag))
	assert.Equal(t, "cube", gotLabel)
	assert.Equal(t, []string{"nope"}, gotAttrs)

	// the overlay of a valid subset still renders
	assert.True(t, sub.Enabled())
	require.True(t, mem.HasTag("layers"))
	rendered, err := mem.Render(1)
	require.NoError(t, err)
	assert.Equal(t, 5, rendered.Bounds().Dx())
	assert.Equal(t, 4, rendered.Bounds().Dy())

	// showing a disabled layer places nothing
	img.SetVisible(false)
	img.SetVisible(true)
	assert.False(t, mem.HasTag(canvas.ImageTag))

	require.NoError(t, img.Update(plane(0), false))
	assert.True(t, img.Enabled())
	assert.Same(t, img.Image(), mem.Image())
}

func TestImageLayerVisibility(t *testing.T) {
	cube := newCube(t)
	mem := canvas.NewMemory()
	l := NewImageLayer("cube", cube, mem)
	require.NoError(t, l.Update(plane(0), false))
	sets := mem.Calls.SetImage

	l.SetVisible(false)
	l.SetVisible(false)
	assert.False(t, mem.HasTag(canvas.ImageTag))

	l.SetVisible(true)
	l.SetVisible(true)
	assert.Equal(t, sets+1, mem.Calls.SetImage)
	assert.Same(t, l.Image(), mem.Image())

	l.SetVisible(false)
	require.NoError(t, l.Update(plane(1), false))
	assert.Nil(t, mem.Image(), "hidden layers are not placed on update")
}

func TestImageLayerOverride(t *testing.T) {
	cube := newCube(t)
	mem := canvas.NewMemory()
	l := NewImageLayer("cube", cube, mem)

	buf := mat.NewDense(4, 5, nil)
	buf.Apply(func(i, j int, _ float64) float64 { return float64(-i*10 - j) }, buf)
	l.OverrideImage(buf)
	require.NoError(t, l.Update(plane(0), false))

	full := view.Cutout(0, 4, 0, 5)
	got, err := l.Image().Cutout(full)
	require.NoError(t, err)
	assert.True(t, mat.Equal(buf, got))

	l.ClearOverride()
	got, err = l.Image().Cutout(full)
	require.NoError(t, err)
	assert.Equal(t, 19.0, got.At(3, 4))
}

func TestRGBLayer(t *testing.T) {
	cube := data.NewCube("rgb", 1, 2, 2)
	require.NoError(t, cube.AddField("a", []float64{0, 1, 2, 4}))
	require.NoError(t, cube.AddField("b", []float64{4, 2, 1, 0}))
	mem := canvas.NewMemory()
	l := NewRGBLayer("rgb", cube, mem)

	assert.Equal(t, models.Green, l.ContrastChannel())
	l.SetNorm(norm.WithStretch(norm.Sqrt))
	require.NotNil(t, l.Norm())
	assert.Equal(t, norm.Sqrt, l.Norm().Stretch)

	require.NoError(t, l.SetContrastChannel(models.Red))
	assert.Nil(t, l.Norm())
	l.SetNorm(norm.WithLimits(0, 4))

	require.NoError(t, l.SetChannel(models.Red, "a"))
	require.NoError(t, l.SetChannel(models.Blue, "b"))
	require.NoError(t, l.SetChannelVisible(models.Blue, false))
	assert.Error(t, l.SetChannel(models.Channel(7), "a"))
	assert.False(t, l.ChannelVisible(models.Blue))
	assert.Equal(t, "a", l.Channel(models.Red))

	require.NoError(t, l.Update(Selection{View: view.View{view.Index(0)}}, false))
	require.True(t, l.Enabled())
	require.Same(t, l.Image(), mem.Image())

	img, err := l.Image().Cutout(view.Cutout(0, 2, 0, 2))
	require.NoError(t, err)
	var red, blue []uint8
	for i := 0; i < 4; i++ {
		red = append(red, img.Pix[i*4])
		blue = append(blue, img.Pix[i*4+2])
	}
	assert.Equal(t, []uint8{0, 63, 127, 255}, red)
	assert.Equal(t, []uint8{0, 0, 0, 0}, blue)

	// channel changes after binding reach the live image
	require.NoError(t, l.SetChannelVisible(models.Blue, true))
	require.NoError(t, l.SetContrastChannel(models.Blue))
	l.SetNorm(norm.WithLimits(0, 4))
	img, err = l.Image().Cutout(view.Cutout(0, 1, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.Pix[2])

	l.ClearNorm()
	assert.Nil(t, l.Norm())
}

func TestRGBLayerMissingFields(t *testing.T) {
	cube := data.NewCube("rgb", 1, 2, 2)
	require.NoError(t, cube.AddField("a", []float64{0, 1, 2, 4}))
	mem := canvas.NewMemory()

	var gotAttrs []string
	l := NewRGBLayer("rgb", cube, mem, WithIncompatibleHandler(func(_ string, attrs []string) {
		gotAttrs = attrs
	}))
	require.NoError(t, l.SetChannel(models.Red, "a"))
	require.NoError(t, l.SetChannel(models.Green, "x"))
	require.NoError(t, l.SetChannel(models.Blue, "y"))

	require.NoError(t, l.Update(Selection{View: view.View{view.Index(0)}}, false))
	assert.False(t, l.Enabled())
	assert.False(t, mem.HasTag(canvas.ImageTag))
	assert.Equal(t, []string{"x", "y"}, gotAttrs)

	// hidden and empty channels are not read
	require.NoError(t, l.SetChannelVisible(models.Green, false))
	require.NoError(t, l.SetChannel(models.Blue, ""))
	gotAttrs = nil
	require.NoError(t, l.Update(Selection{View: view.View{view.Index(0)}}, false))
	assert.True(t, l.Enabled())
	assert.Nil(t, gotAttrs)
	assert.Same(t, l.Image(), mem.Image())
}

func TestClientLayers(t *testing.T) {
	cube := newCube(t)
	mem := canvas.NewMemory()
	client := NewClient(mem)

	img := client.NewImageLayer("cube", cube)
	a := client.NewSubsetLayer(data.NewRangeSubset("a", cube, "flux", 0, 5))
	b := client.NewSubsetLayer(data.NewRangeSubset("b", cube, "flux", 5, 10))
	rgb := client.NewRGBLayer("rgb", cube)

	assert.Equal(t, []Artist{img, a, b, rgb}, client.Layers())
	b.SetZOrder(-1)
	assert.Equal(t, []Artist{b, img, a, rgb}, client.Layers())

	require.NoError(t, client.Update(plane(0), false))
	assert.Equal(t, []string{"layerb", "layera"}, mem.Tags())

	err := client.Update(Selection{Field: "flux"}, false)
	assert.ErrorIs(t, err, view.ErrComposition)
	assert.ErrorContains(t, err, "layer cube")

	client.Remove(a)
	assert.Len(t, client.Layers(), 3)
	assert.False(t, mem.HasTag("layera"))

	assert.Error(t, client.SetCmap("nope"))
	require.NoError(t, client.SetCmap("heat"))
	assert.Equal(t, "heat", mem.Cmap())
	assert.Same(t, mem, client.Canvas())
}

var _ lazyimage.Subset = (*countingSubset)(nil)
