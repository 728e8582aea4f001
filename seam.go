package comicprep

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Direction is the reading order of a page sequence.
type Direction int

const (
	Forward Direction = iota // left to right
	Reverse                  // right to left
)

func (d Direction) String() string {
	if d == Reverse {
		return "rtl"
	}
	return "ltr"
}

// ParseDirection accepts "ltr" and "rtl".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "ltr":
		return Forward, nil
	case "rtl":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("%w: unknown direction %q", ErrInvalidOptions, s)
}

// SeamScore describes how continuous the artwork is across two touching
// page edges. The zero value means there was no usable signal.
type SeamScore struct {
	// Fraction of the seam rows that carry non-background content.
	Coverage float64
	// RMS luminance difference over those rows.
	Contrast float64
}

func (s SeamScore) String() string {
	return fmt.Sprintf("%2.0f%%  %.2f", s.Coverage*100, s.Contrast)
}

// Edges holds the linear luminance of the first and last pixel column of a
// page. It is all the seam analysis needs, so a whole page does not have to
// stay decoded while its neighbours are scored.
type Edges struct {
	Height int
	Left   []float64
	Right  []float64
}

// EdgesOf samples the outer columns of img.
func EdgesOf(img image.Image) Edges {
	b := img.Bounds()
	h := b.Dy()
	e := Edges{Height: h}
	if b.Empty() {
		return e
	}
	e.Left = make([]float64, h)
	e.Right = make([]float64, h)
	for y := range h {
		e.Left[y] = LinearLuminance(img.At(b.Min.X, b.Min.Y+y))
		e.Right[y] = LinearLuminance(img.At(b.Max.X-1, b.Min.Y+y))
	}
	return e
}

// Score compares the touching edges of a and b with the default cutoffs.
// In Forward order the right edge of a meets the left edge of b; in Reverse
// order the left edge of a meets the right edge of b.
func Score(dir Direction, a, b image.Image) SeamScore {
	return DefaultOptions().ScoreEdges(dir, EdgesOf(a), EdgesOf(b))
}

// ScoreEdges computes the seam score of two pages from their sampled edges.
func (o Options) ScoreEdges(dir Direction, a, b Edges) SeamScore {
	if a.Height != b.Height || a.Height == 0 {
		return SeamScore{}
	}
	col0, col1 := a.Right, b.Left
	if dir == Reverse {
		col0, col1 = a.Left, b.Right
	}

	var notWhite, notBlack []float64
	for y := range a.Height {
		y0, y1 := col0[y], col1[y]
		d := math.Abs(y0 - y1)
		if y0 < o.WhiteCutoff && y1 < o.WhiteCutoff {
			notWhite = append(notWhite, d)
		}
		if y0 > o.BlackCutoff && y1 > o.BlackCutoff {
			notBlack = append(notBlack, d)
		}
	}
	if len(notWhite) == 0 || len(notBlack) == 0 {
		return SeamScore{}
	}

	// The smaller collection isolates content against the dominant background.
	chosen := notBlack
	if len(notWhite) < len(notBlack) {
		chosen = notWhite
	}
	return SeamScore{
		Coverage: float64(len(chosen)) / float64(a.Height),
		Contrast: rms(chosen),
	}
}

// rms must not be called with an empty slice.
func rms(xs []float64) float64 {
	return floats.Norm(xs, 2) / math.Sqrt(float64(len(xs)))
}
