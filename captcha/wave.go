package captcha

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Axis is the direction pixels are displaced in.
type Axis int

const (
	// Horizontal shifts each row sideways by an amount that depends on the row.
	Horizontal Axis = iota
	// Vertical shifts each column up or down by an amount that depends on the column.
	Vertical
)

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Wave parameterises a sine distortion.
type Wave struct {
	Axis      Axis
	Amplitude float64
	Phase     float64
}

func (w Wave) validate() error {
	if w.Axis != Horizontal && w.Axis != Vertical {
		return configErrorf("axis", "unknown axis %v", w.Axis)
	}
	if !(w.Amplitude > 0) || math.IsInf(w.Amplitude, 0) {
		return configErrorf("amplitude", "must be positive and finite, got %v", w.Amplitude)
	}
	if !(w.Phase >= 0 && w.Phase < 2*math.Pi) {
		return configErrorf("phase", "must be in [0, 2π), got %v", w.Phase)
	}
	return nil
}

// offset is the integer displacement of every pixel on line k of a buffer
// whose base axis has the given length.
func (w Wave) offset(k, base int) int {
	theta := math.Pi*float64(k)/float64(base) + w.Phase
	return int(math.Sin(theta) * w.Amplitude)
}

// minParallelPixels is the buffer size below which Distort stays on the calling goroutine.
const minParallelPixels = 1 << 16

// bandLines is how many lines one worker remaps between cancellation checks.
const bandLines = 32

// Distort forward-maps every pixel of src along a sine wave into a new
// white buffer of the same size. Pixels landing outside the buffer are
// dropped and destinations nothing lands on stay white.
func Distort(src *image.RGBA, wave Wave) (*image.RGBA, error) {
	return DistortContext(context.Background(), src, wave)
}

// DistortContext is Distort with cancellation. Large images are remapped by
// a bounded pool of workers, each checking ctx before its next band of lines.
func DistortContext(ctx context.Context, src *image.RGBA, wave Wave) (*image.RGBA, error) {
	if err := wave.validate(); err != nil {
		return nil, err
	}
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i+0] = Background.R
		dst.Pix[i+1] = Background.G
		dst.Pix[i+2] = Background.B
		dst.Pix[i+3] = Background.A
	}
	if width == 0 || height == 0 {
		return dst, nil
	}

	// Every line along the displacement axis maps into itself, so lines
	// can be remapped independently without changing the result.
	lines := height
	if wave.Axis == Vertical {
		lines = width
	}
	remap := func(lo, hi int) {
		for k := lo; k < hi; k++ {
			if wave.Axis == Horizontal {
				remapRow(dst, src, b.Min, k, wave.offset(k, height))
			} else {
				remapColumn(dst, src, b.Min, k, wave.offset(k, width))
			}
		}
	}

	if width*height < minParallelPixels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remap(0, lines)
		return dst, nil
	}
	workers := runtime.GOMAXPROCS(0)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < lines; lo += bandLines {
		lo, hi := lo, min(lo+bandLines, lines)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			remap(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

func remapRow(dst, src *image.RGBA, origin image.Point, j, dx int) {
	width := dst.Rect.Dx()
	for i := 0; i < width; i++ {
		x := i + dx
		if x < 0 || x >= width {
			continue
		}
		dst.SetRGBA(x, j, src.RGBAAt(origin.X+i, origin.Y+j))
	}
}

func remapColumn(dst, src *image.RGBA, origin image.Point, i, dy int) {
	height := dst.Rect.Dy()
	for j := 0; j < height; j++ {
		y := j + dy
		if y < 0 || y >= height {
			continue
		}
		dst.SetRGBA(i, y, src.RGBAAt(origin.X+i, origin.Y+j))
	}
}
