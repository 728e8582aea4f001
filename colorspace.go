package comicprep

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Rec.709 luminance weights over linear-light channels.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

var linearLUT [256]float64

func init() {
	for i := range linearLUT {
		r, _, _ := colorful.Color{R: float64(i) / 255}.LinearRgb()
		linearLUT[i] = r
	}
}

// Linearize maps an 8-bit sRGB channel value to linear light in [0,1].
func Linearize(c uint8) float64 {
	return linearLUT[c]
}

// Luminance returns the Rec.709 luminance of linear-light channels.
func Luminance(r, g, b float64) float64 {
	return lumR*r + lumG*g + lumB*b
}

// LinearLuminance converts c to 8-bit RGB, ignoring alpha, and returns its
// linear-light luminance.
func LinearLuminance(c color.Color) float64 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Luminance(Linearize(n.R), Linearize(n.G), Linearize(n.B))
}
