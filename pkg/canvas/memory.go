package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log"
	"math"
	"slices"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/mat"

	"viewglue/pkg/lazyimage"
	"viewglue/pkg/norm"
	"viewglue/pkg/view"
)

// Calls counts the operations a Memory canvas has received.
type Calls struct {
	SetImage int
	Add      int
	Delete   int
	Redraw   int
}

type entry struct {
	tag string
	obj Object
}

// Memory is a canvas that holds its scene in memory. Nothing is computed
// until Render or RenderOverview asks the placed images for pixels.
type Memory struct {
	image   Image
	objects []entry
	cmap    *Colormap
	norm    *norm.Normalizer
	logger  *log.Logger

	// Calls is updated by every Canvas method.
	Calls Calls
	// LastRedraw is the whence of the most recent Redraw.
	LastRedraw Whence
}

// NewMemory returns an empty canvas using the gray colormap and a default
// normalizer for numeric images.
func NewMemory() *Memory {
	return &Memory{
		cmap:   colormaps["gray"],
		norm:   norm.New(),
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sends render diagnostics to l.
func (m *Memory) SetLogger(l *log.Logger) {
	if l != nil {
		m.logger = l
	}
}

// SetImage replaces the primary image.
func (m *Memory) SetImage(img Image) {
	m.Calls.SetImage++
	m.image = img
}

// Image returns the primary image, or nil.
func (m *Memory) Image() Image { return m.image }

// AddObject places obj under tag, replacing any object already carrying it.
func (m *Memory) AddObject(obj Object, tag string, redraw bool) {
	m.Calls.Add++
	m.objects = slices.DeleteFunc(m.objects, func(e entry) bool { return e.tag == tag })
	m.objects = append(m.objects, entry{tag: tag, obj: obj})
	if redraw {
		m.Redraw(RedrawOverlays)
	}
}

// DeleteObjectsByTag removes all objects carrying any of tags.
func (m *Memory) DeleteObjectsByTag(tags []string, redraw bool) error {
	m.Calls.Delete++

	found := false
	if m.image != nil && slices.Contains(tags, ImageTag) {
		m.image = nil
		found = true
	}
	n := len(m.objects)
	m.objects = slices.DeleteFunc(m.objects, func(e entry) bool { return slices.Contains(tags, e.tag) })
	found = found || len(m.objects) != n

	if !found {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, tags)
	}
	if redraw {
		m.Redraw(RedrawOverlays)
	}
	return nil
}

// Redraw records a redraw request.
func (m *Memory) Redraw(whence Whence) {
	m.Calls.Redraw++
	m.LastRedraw = whence
}

// SetCmap selects the colormap used for numeric primary images.
func (m *Memory) SetCmap(name string) error {
	cm, err := LookupColormap(name)
	if err != nil {
		return err
	}
	m.cmap = cm
	m.Redraw(RedrawColor)
	return nil
}

// Cmap returns the current colormap name.
func (m *Memory) Cmap() string { return m.cmap.Name() }

// SetNorm replaces the normalizer used for numeric primary images.
func (m *Memory) SetNorm(n *norm.Normalizer) {
	if n == nil {
		n = norm.New()
	}
	m.norm = n
	m.Redraw(RedrawCuts)
}

// HasTag reports whether an object with tag is placed. ImageTag reports on
// the primary image.
func (m *Memory) HasTag(tag string) bool {
	if tag == ImageTag {
		return m.image != nil
	}
	_, ok := m.Object(tag)
	return ok
}

// Object returns the object placed under tag.
func (m *Memory) Object(tag string) (Object, bool) {
	for _, e := range m.objects {
		if e.tag == tag {
			return e.obj, true
		}
	}
	return Object{}, false
}

// Tags returns the overlay tags in drawing order.
func (m *Memory) Tags() []string {
	tags := make([]string, 0, len(m.objects))
	for _, e := range m.drawOrder() {
		tags = append(tags, e.tag)
	}
	return tags
}

func (m *Memory) drawOrder() []entry {
	sorted := slices.Clone(m.objects)
	slices.SortStableFunc(sorted, func(a, b entry) int { return a.obj.ZOrder - b.obj.ZOrder })
	return sorted
}

// Render draws the primary image and every overlay, lower z-order first, at
// the given zoom factor. An overlay whose pixels cannot be computed is
// logged and left out; a failing primary image fails the render.
func (m *Memory) Render(zoom float64) (*image.NRGBA, error) {
	if zoom <= 0 || math.IsNaN(zoom) {
		return nil, fmt.Errorf("zoom must be positive, got %g", zoom)
	}
	rows, cols, err := m.extent()
	if err != nil {
		return nil, err
	}

	width, height := zoomed(cols, zoom), zoomed(rows, zoom)
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	if m.image != nil {
		base, err := m.renderPrimary(rows, cols, width, height)
		if err != nil {
			return nil, fmt.Errorf("rendering primary image: %w", err)
		}
		draw.Draw(dst, dst.Bounds(), base, base.Bounds().Min, draw.Src)
	}

	for _, e := range m.drawOrder() {
		if err := drawObject(dst, e.obj, zoom); err != nil {
			m.logger.Printf("skipping overlay %s: %v", e.tag, err)
		}
	}
	return dst, nil
}

// RenderOverview draws the primary image from its downsampled preview.
func (m *Memory) RenderOverview() (*image.NRGBA, error) {
	switch img := m.image.(type) {
	case nil:
		return nil, ErrNoImage
	case DataImage:
		preview, err := img.Preview()
		if err != nil {
			return nil, err
		}
		return m.colorize(preview), nil
	case ColorImage:
		shape, err := img.Shape()
		if err != nil {
			return nil, err
		}
		rows, cols := shape[0], shape[1]
		if rows == 0 || cols == 0 {
			return nil, ErrNoImage
		}
		stride := lazyimage.PreviewStride
		s, err := img.ScaledCutout(0, 0, cols-1, rows-1, (cols+stride-1)/stride, (rows+stride-1)/stride)
		if err != nil {
			return nil, err
		}
		return s.Image, nil
	default:
		return nil, fmt.Errorf("unsupported image type %T", img)
	}
}

// extent returns the size of the scene: the primary image, or the bounding
// box of the overlays when there is none.
func (m *Memory) extent() (rows, cols int, err error) {
	if m.image != nil {
		shape, err := m.image.Shape()
		if err != nil {
			return 0, 0, err
		}
		rows, cols = shape[0], shape[1]
	} else {
		for _, e := range m.objects {
			shape, err := e.obj.Image.Shape()
			if err != nil {
				m.logger.Printf("skipping overlay %s: %v", e.tag, err)
				continue
			}
			rows = max(rows, e.obj.Y+shape[0])
			cols = max(cols, e.obj.X+shape[1])
		}
	}
	if rows <= 0 || cols <= 0 {
		return 0, 0, ErrNoImage
	}
	return rows, cols, nil
}

func (m *Memory) renderPrimary(rows, cols, width, height int) (*image.NRGBA, error) {
	switch img := m.image.(type) {
	case DataImage:
		values, err := img.Cutout(view.Cutout(0, rows, 0, cols))
		if err != nil {
			return nil, err
		}
		return resizeTo(m.colorize(values), width, height), nil
	case ColorImage:
		s, err := img.ScaledCutout(0, 0, cols-1, rows-1, width, height)
		if err != nil {
			return nil, err
		}
		return s.Image, nil
	default:
		return nil, fmt.Errorf("unsupported image type %T", img)
	}
}

// colorize normalizes values and maps them through the colormap.
func (m *Memory) colorize(values *mat.Dense) *image.NRGBA {
	rows, cols := values.Dims()
	scaled := m.norm.ApplyDense(values)

	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.SetNRGBA(x, y, m.cmap.At(scaled.At(y, x)))
		}
	}
	return img
}

func drawObject(dst *image.NRGBA, obj Object, zoom float64) error {
	shape, err := obj.Image.Shape()
	if err != nil {
		return err
	}
	rows, cols := shape[0], shape[1]
	if rows == 0 || cols == 0 {
		return nil
	}

	s, err := obj.Image.ScaledCutout(0, 0, cols-1, rows-1, zoomed(cols, zoom), zoomed(rows, zoom))
	if err != nil {
		return err
	}

	at := image.Pt(int(math.Round(float64(obj.X)*zoom)), int(math.Round(float64(obj.Y)*zoom)))
	r := image.Rectangle{Min: at, Max: at.Add(s.Image.Bounds().Size())}
	alpha := math.Max(0, math.Min(1, obj.Alpha))
	mask := image.NewUniform(color.Alpha{A: uint8(alpha * 255)})
	draw.DrawMask(dst, r, s.Image, s.Image.Bounds().Min, mask, image.Point{}, draw.Over)
	return nil
}

func zoomed(n int, zoom float64) int {
	return max(1, int(math.Round(float64(n)*zoom)))
}

func resizeTo(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	out := resize.Resize(uint(width), uint(height), img, resize.NearestNeighbor)
	if n, ok := out.(*image.NRGBA); ok {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), out, out.Bounds().Min, draw.Src)
	return dst
}
