package lazyimage

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/nfnt/resize"

	"viewglue/pkg/view"
)

type rgbaCutter func(view.Request) (*image.NRGBA, error)

// scaledCutout is the generic scaled read: cut the clamped region at full
// resolution, then resize it to width x height.
func scaledCutout(rows, cols int, cut rgbaCutter, x1, y1, x2, y2, width, height int) (Scaled, error) {
	if rows == 0 || cols == 0 {
		return Scaled{}, fmt.Errorf("%w: image is %dx%d", ErrEmptyCutout, rows, cols)
	}
	x1, x2 = clampInt(x1, 0, cols-1), clampInt(x2, 0, cols-1)
	y1, y2 = clampInt(y1, 0, rows-1), clampInt(y2, 0, rows-1)

	src, err := cut(view.Cutout(y1, y2+1, x1, x2+1))
	if err != nil {
		return Scaled{}, err
	}
	return Scaled{
		Image:  resizeNearest(src, width, height),
		ScaleX: float64(width) / float64(x2-x1+1),
		ScaleY: float64(height) / float64(y2-y1+1),
	}, nil
}

// resizeNearest resizes img with nearest-neighbour sampling.
func resizeNearest(img *image.NRGBA, width, height int) *image.NRGBA {
	out := resize.Resize(uint(width), uint(height), img, resize.NearestNeighbor)
	if n, ok := out.(*image.NRGBA); ok {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), out, out.Bounds().Min, draw.Src)
	return dst
}

// resampleNearest enlarges src to width x height by index lookup, each output
// row and column picking the source index given by evenly spaced samples
// over [0, n].
func resampleNearest(src *image.NRGBA, width, height int) *image.NRGBA {
	b := src.Bounds()
	yi := spacedIndices(b.Dy(), height)
	xi := spacedIndices(b.Dx(), width)

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y, sy := range yi {
		srow := src.Pix[sy*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x, sx := range xi {
			copy(drow[x*4:x*4+4], srow[sx*4:sx*4+4])
		}
	}
	return dst
}

// spacedIndices returns count integer indices spread evenly from 0 to n
// inclusive, truncated and clamped to [0, n-1].
func spacedIndices(n, count int) []int {
	out := make([]int, count)
	if count == 1 {
		return out
	}
	for i := range out {
		out[i] = clampInt(int(float64(i)*float64(n)/float64(count-1)), 0, n-1)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
