package comicprep

import (
	"errors"
	"image"
	"image/draw"
	"path/filepath"
	"strings"
)

// ErrHeightMismatch is returned when two pages of different height are joined.
var ErrHeightMismatch = errors.New("comicprep: page heights differ")

// Decision is the verdict for one step of the spread scan.
type Decision int

const (
	PassThrough Decision = iota
	Merge
)

func (d Decision) String() string {
	if d == Merge {
		return "merge"
	}
	return "pass"
}

// Step is one emitted output of the spread scan. First and Second index the
// input sequence; Second is -1 for a pass-through page.
type Step struct {
	Decision Decision
	First    int
	Second   int
	Score    SeamScore
}

// scanState tracks whether the current page was already consumed as the
// second half of a merge.
type scanState int

const (
	fresh scanState = iota
	consumed
)

// PlanSpreads resolves the merge decisions for n pages, given the scores of
// every adjacent pair (scores[i] belongs to pages i and i+1). The scores can
// be computed independently; this pass is sequential because a merged page
// is never reconsidered against its successor.
func (o Options) PlanSpreads(n int, scores []SeamScore) []Step {
	if n == 0 {
		return nil
	}
	steps := make([]Step, 0, n)
	state := fresh
	for i := 1; i < n; i++ {
		if state == consumed {
			state = fresh
			continue
		}
		s := scores[i-1]
		if o.Merges(s) {
			steps = append(steps, Step{Decision: Merge, First: i - 1, Second: i, Score: s})
			state = consumed
		} else {
			steps = append(steps, Step{Decision: PassThrough, First: i - 1, Second: -1, Score: s})
		}
	}
	if state == fresh {
		steps = append(steps, Step{Decision: PassThrough, First: n - 1, Second: -1})
	}
	return steps
}

// JoinSpread places prev and cur side by side in reading order: prev on the
// left for Forward, cur on the left for Reverse.
func JoinSpread(dir Direction, prev, cur image.Image) (*image.RGBA, error) {
	pb, cb := prev.Bounds(), cur.Bounds()
	if pb.Dy() != cb.Dy() {
		return nil, ErrHeightMismatch
	}
	left, right := prev, cur
	if dir == Reverse {
		left, right = cur, prev
	}
	lw := left.Bounds().Dx()
	dst := image.NewRGBA(image.Rect(0, 0, pb.Dx()+cb.Dx(), pb.Dy()))
	draw.Draw(dst, image.Rect(0, 0, lw, pb.Dy()), left, left.Bounds().Min, draw.Src)
	draw.Draw(dst, image.Rect(lw, 0, dst.Bounds().Dx(), pb.Dy()), right, right.Bounds().Min, draw.Src)
	return dst, nil
}

// SpreadName derives the file name of a merged spread from its two sources,
// keeping the extension of the first one: "003.jpg", "004.jpg" -> "003-004.jpg".
func SpreadName(prev, cur string) string {
	prev, cur = filepath.Base(prev), filepath.Base(cur)
	ext := filepath.Ext(prev)
	return strings.TrimSuffix(prev, ext) + "-" + strings.TrimSuffix(cur, filepath.Ext(cur)) + ext
}
