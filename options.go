package comicprep

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("comicprep: invalid options")

// SplitOrder decides which half of a landscape spread is emitted first.
type SplitOrder int

const (
	// RightFirst emits the right half before the left half (right-to-left reading).
	RightFirst SplitOrder = iota
	// LeftFirst emits the left half before the right half.
	LeftFirst
	// Auto follows the page direction reported by the source, RightFirst when unknown.
	Auto
)

func (o SplitOrder) String() string {
	switch o {
	case LeftFirst:
		return "ltr"
	case Auto:
		return "auto"
	default:
		return "rtl"
	}
}

// ParseSplitOrder accepts "rtl", "ltr" and "auto".
func ParseSplitOrder(s string) (SplitOrder, error) {
	switch s {
	case "rtl", "":
		return RightFirst, nil
	case "ltr":
		return LeftFirst, nil
	case "auto":
		return Auto, nil
	}
	return RightFirst, fmt.Errorf("%w: unknown split order %q", ErrInvalidOptions, s)
}

// Resolve turns Auto into a concrete order using the source direction.
func (o SplitOrder) Resolve(rtl, known bool) SplitOrder {
	if o != Auto {
		return o
	}
	if known && !rtl {
		return LeftFirst
	}
	return RightFirst
}

type Options struct {
	// Minimum fraction of the seam height that must carry content for a merge.
	// Lower values merge pages whose seam is mostly background.
	CoverageThreshold float64
	// Maximum RMS luminance difference across the seam for a merge.
	// Higher values accept rougher seams and produce more false spreads.
	ContrastThreshold float64
	// Linear luminance above which a seam pixel counts as white background.
	WhiteCutoff float64
	// Linear luminance below which a seam pixel counts as black background.
	BlackCutoff float64
	// Exponent of the tone curve applied before min-max normalization.
	// Values above 1 darken mid-tones, which e-ink panels wash out.
	Gamma float64
	// Number of evenly spaced gray levels in the output palette (2..256).
	Levels int
	// Error-diffusion matrix used for palette quantization.
	Dither DitherMethod
	// Order of the halves produced by splitting a landscape page.
	SplitOrder SplitOrder
}

func DefaultOptions() Options {
	return Options{
		CoverageThreshold: 0.15,
		ContrastThreshold: 0.25,
		WhiteCutoff:       0.95,
		BlackCutoff:       0.05,
		Gamma:             1.8,
		Levels:            16,
		Dither:            FloydSteinberg,
		SplitOrder:        RightFirst,
	}
}

func (o Options) Validate() error {
	switch {
	case o.Gamma <= 0:
		return fmt.Errorf("%w: gamma must be positive, got %g", ErrInvalidOptions, o.Gamma)
	case o.Levels < 2 || o.Levels > 256:
		return fmt.Errorf("%w: levels must be in [2,256], got %d", ErrInvalidOptions, o.Levels)
	case !unit(o.CoverageThreshold) || !unit(o.ContrastThreshold):
		return fmt.Errorf("%w: merge thresholds must be in [0,1]", ErrInvalidOptions)
	case !unit(o.WhiteCutoff) || !unit(o.BlackCutoff) || o.BlackCutoff >= o.WhiteCutoff:
		return fmt.Errorf("%w: background cutoffs must satisfy 0 <= black < white <= 1", ErrInvalidOptions)
	}
	if _, ok := ditherMatrices[o.Dither]; !ok {
		return fmt.Errorf("%w: unknown dither method %d", ErrInvalidOptions, o.Dither)
	}
	return nil
}

// Merges reports whether a seam score passes the merge thresholds.
func (o Options) Merges(s SeamScore) bool {
	return s.Coverage > o.CoverageThreshold && s.Contrast < o.ContrastThreshold
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
