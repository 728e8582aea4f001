package utils

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type ToneMethod int

const (
	ToneMethodDominantColor ToneMethod = iota
	ToneMethodKMeans
)

func (m ToneMethod) String() string {
	switch m {
	case ToneMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParseToneMethod maps "kmeans" to ToneMethodKMeans and anything else to
// ToneMethodDominantColor.
func ParseToneMethod(s string) ToneMethod {
	if s == "kmeans" {
		return ToneMethodKMeans
	}
	return ToneMethodDominantColor
}

// Tone is a principal color of a page with its share of the sampled pixels.
type Tone struct {
	Color  colorful.Color
	Weight float64
	// Level is the palette gray level the tone lands on after rendering.
	Level uint8
}

// Luminance is the Rec.709 luminance of the tone in linear light.
func (t Tone) Luminance() float64 {
	r, g, b := t.Color.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// SortTonesByBrightness orders tones from darkest to brightest.
func SortTonesByBrightness(tones []Tone) {
	slices.SortFunc(tones, func(a, b Tone) int {
		ya, yb := a.Luminance(), b.Luminance()
		if ya < yb {
			return -1
		}
		if ya > yb {
			return 1
		}
		return 0
	})
}

// ExtractTones finds up to k principal tones of img and snaps each one to
// the nearest entry of pal.
func ExtractTones(img image.Image, k int, method ToneMethod, pal color.Palette) []Tone {
	var weighted []weightedColor
	switch method {
	case ToneMethodKMeans:
		weighted = kmeansCandidates(img, k)
		if len(weighted) == 0 {
			slog.Warn("tone extraction: kmeans returned no clusters, falling back to dominantcolor")
			weighted = dominantCandidates(img, k)
		}
	default:
		weighted = dominantCandidates(img, k)
	}
	selected := selectDiverse(weighted, k)
	out := make([]Tone, 0, len(selected))
	for _, wc := range selected {
		t := Tone{Color: wc.Col, Weight: wc.Weight}
		if len(pal) > 0 {
			r, g, b := wc.Col.RGB255()
			gray := color.GrayModel.Convert(pal.Convert(color.RGBA{R: r, G: g, B: b, A: 255})).(color.Gray)
			t.Level = gray.Y
		}
		out = append(out, t)
	}
	SortTonesByBrightness(out)
	return out
}

func dominantCandidates(img image.Image, k int) []weightedColor {
	if k <= 0 {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	if len(candidates) == 0 {
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}
	out := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, weightedColor{Col: col.Clamped(), Weight: max(c.Weight, 1e-6)})
	}
	return out
}

func kmeansCandidates(img image.Image, k int) []weightedColor {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if k <= 0 || width == 0 || height == 0 {
		return nil
	}

	// Scanned pages are large; a sparse grid keeps the partition fast.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(max(k*4, k+2), len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	total := float64(len(dataset))
	out := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		out = append(out, weightedColor{Col: col, Weight: float64(len(c.Observations)) / total})
	}
	return out
}

// selectDiverse greedily picks k candidates that are far apart in Lab while
// favouring heavy ones.
func selectDiverse(cands []weightedColor, k int) []weightedColor {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	labs := make([][3]float64, len(cands))
	maxW := 0.0
	best := 0
	for i, c := range cands {
		l, a, b := c.Col.Lab()
		labs[i] = [3]float64{l, a, b}
		if c.Weight > maxW {
			maxW = c.Weight
			best = i
		}
	}
	if maxW <= 0 {
		maxW = 1.0
	}

	picked := []int{best}
	taken := make([]bool, len(cands))
	taken[best] = true
	for len(picked) < k {
		bestIdx, bestScore := -1, -1.0
		for i := range cands {
			if taken[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range picked {
				d0 := labs[i][0] - labs[s][0]
				d1 := labs[i][1] - labs[s][1]
				d2 := labs[i][2] - labs[s][2]
				minD2 = min(minD2, d0*d0+d1*d1+d2*d2)
			}
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(cands[i].Weight/maxW))
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
		if bestIdx < 0 {
			break
		}
		taken[bestIdx] = true
		picked = append(picked, bestIdx)
	}

	out := make([]weightedColor, 0, len(picked))
	for _, i := range picked {
		out = append(out, cands[i])
	}
	return out
}
