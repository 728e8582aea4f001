package comicprep

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/makeworld-the-better-one/dither/v2"
)

// DitherMethod selects the error-diffusion matrix used for quantization.
type DitherMethod int

const (
	FloydSteinberg DitherMethod = iota
	Atkinson
	Stucki
	Burkes
)

var ditherMatrices = map[DitherMethod]dither.ErrorDiffusionMatrix{
	FloydSteinberg: dither.FloydSteinberg,
	Atkinson:       dither.Atkinson,
	Stucki:         dither.Stucki,
	Burkes:         dither.Burkes,
}

var ditherNames = map[string]DitherMethod{
	"floyd-steinberg": FloydSteinberg,
	"atkinson":        Atkinson,
	"stucki":          Stucki,
	"burkes":          Burkes,
}

func (m DitherMethod) String() string {
	for name, v := range ditherNames {
		if v == m {
			return name
		}
	}
	return fmt.Sprintf("DitherMethod(%d)", int(m))
}

// ParseDitherMethod accepts the lower-case matrix names, e.g. "floyd-steinberg".
func ParseDitherMethod(s string) (DitherMethod, error) {
	if m, ok := ditherNames[s]; ok {
		return m, nil
	}
	return FloydSteinberg, fmt.Errorf("%w: unknown dither method %q", ErrInvalidOptions, s)
}

// Palette is the default 16-level e-ink palette: 0, 17, 34, ... 255.
var Palette = GrayPalette(16)

// GrayPalette returns n evenly spaced gray levels from black to white.
func GrayPalette(n int) color.Palette {
	if n < 2 {
		n = 2
	}
	p := make(color.Palette, n)
	for i := range n {
		v := math.Round(float64(i) * 255 / float64(n-1))
		p[i] = color.Gray{Y: uint8(min(255, v))}
	}
	return p
}

// Quantize maps img onto pal with error-diffusion dithering. Every pixel of
// the result is an exact palette entry.
func Quantize(img image.Image, pal color.Palette, method DitherMethod) *image.Paletted {
	d := dither.NewDitherer(pal)
	d.Matrix = ditherMatrices[method]
	if d.Matrix == nil {
		d.Matrix = dither.FloydSteinberg
	}
	return d.DitherPaletted(img)
}

// Nearest returns the palette level closest to the 8-bit gray value v.
func Nearest(pal color.Palette, v uint8) uint8 {
	g := color.GrayModel.Convert(pal.Convert(color.Gray{Y: v})).(color.Gray)
	return g.Y
}
