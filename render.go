package comicprep

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/gift"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyImage is returned when a page has no pixels.
var ErrEmptyImage = errors.New("comicprep: empty image")

// Renderer turns pages into palette-quantized grayscale images that fit a
// target box.
type Renderer struct {
	Width, Height int
	Options       Options
	palette       color.Palette
}

func NewRenderer(width, height int, opt Options) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", ErrInvalidOptions, width, height)
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{
		Width:   width,
		Height:  height,
		Options: opt,
		palette: GrayPalette(opt.Levels),
	}, nil
}

// Palette returns the output gray levels.
func (r *Renderer) Palette() color.Palette {
	return r.palette
}

// RenderPage splits a landscape page and renders every resulting half.
func (r *Renderer) RenderPage(img image.Image, order SplitOrder) ([]*image.RGBA, error) {
	parts := Split(img, order)
	out := make([]*image.RGBA, 0, len(parts))
	for _, p := range parts {
		rendered, err := r.Render(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// Render runs the grayscale pipeline on a single page: intensity plane,
// fit-within-box resize, gamma stretch, then palette quantization.
func (r *Renderer) Render(img image.Image) (*image.RGBA, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	plane := grayPlane(img)
	w, h := FitSize(b.Dx(), b.Dy(), r.Width, r.Height)
	plane = resizePlane(plane, w, h)
	GammaStretch(plane, r.Options.Gamma)
	q := Quantize(planeToGray(plane), r.palette, r.Options.Dither)
	out := image.NewRGBA(q.Bounds())
	draw.Draw(out, out.Bounds(), q, q.Bounds().Min, draw.Src)
	return out, nil
}

// FitSize scales (w, h) uniformly so it fits inside (tw, th). Results are
// floored, and never smaller than one pixel.
func FitSize(w, h, tw, th int) (int, int) {
	ratio := min(float64(tw)/float64(w), float64(th)/float64(h))
	nw := int(float64(w) * ratio)
	nh := int(float64(h) * ratio)
	return max(nw, 1), max(nh, 1)
}

// GammaStretch applies the tone curve in place: values are normalized to
// [0,1], clipped, raised to gamma, then min-max stretched back to [0,255].
// A flat plane is scaled by 255 instead of stretched.
func GammaStretch(m *mat.Dense, gamma float64) {
	m.Apply(func(_, _ int, v float64) float64 {
		return math.Pow(min(1, max(0, v/255)), gamma)
	}, m)
	lo, hi := mat.Min(m), mat.Max(m)
	if hi != lo {
		scale := 255 / (hi - lo)
		m.Apply(func(_, _ int, v float64) float64 {
			return (v - lo) * scale
		}, m)
		return
	}
	m.Scale(255, m)
}

// grayPlane converts img to floating point intensities in [0,255] using the
// ITU-R 601-2 luma transform. Rows of the matrix are image rows.
func grayPlane(img image.Image) *mat.Dense {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float64, w*h)
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			data[y*w+x] = 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		}
	}
	return mat.NewDense(h, w, data)
}

// resizePlane resamples the plane with a Lanczos filter. The plane is carried
// through a 16-bit image so little precision is lost before the tone curve.
func resizePlane(m *mat.Dense, w, h int) *mat.Dense {
	rows, cols := m.Dims()
	if rows == h && cols == w {
		return m
	}
	src := image.NewGray16(image.Rect(0, 0, cols, rows))
	for y := range rows {
		for x := range cols {
			v := min(255, max(0, m.At(y, x)))
			src.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v * 257))})
		}
	}
	g := gift.New(gift.Resize(w, h, gift.LanczosResampling))
	dst := image.NewGray16(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	db := dst.Bounds()
	out := mat.NewDense(db.Dy(), db.Dx(), nil)
	for y := range db.Dy() {
		for x := range db.Dx() {
			out.Set(y, x, float64(dst.Gray16At(db.Min.X+x, db.Min.Y+y).Y)/257)
		}
	}
	return out
}

func planeToGray(m *mat.Dense) *image.Gray {
	rows, cols := m.Dims()
	g := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := range rows {
		for x := range cols {
			v := m.At(y, x)
			if math.IsNaN(v) {
				v = 0
			}
			g.Pix[y*g.Stride+x] = uint8(math.Round(min(255, max(0, v))))
		}
	}
	return g
}
