package comicprep

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mergeable = SeamScore{Coverage: 0.4, Contrast: 0.1}
	blankSeam = SeamScore{}
)

func TestPlanSpreads(t *testing.T) {
	opt := DefaultOptions()
	tests := []struct {
		name   string
		n      int
		scores []SeamScore
		want   []Step
	}{
		{name: "empty", n: 0},
		{
			name: "single page",
			n:    1,
			want: []Step{{Decision: PassThrough, First: 0, Second: -1}},
		},
		{
			name:   "merge then pass",
			n:      3,
			scores: []SeamScore{mergeable, {Coverage: 0.05, Contrast: 0.01}},
			want: []Step{
				{Decision: Merge, First: 0, Second: 1, Score: mergeable},
				{Decision: PassThrough, First: 2, Second: -1},
			},
		},
		{
			// Page 1 is consumed by the first merge and never scored against page 2.
			name:   "merged page is skipped",
			n:      3,
			scores: []SeamScore{mergeable, mergeable},
			want: []Step{
				{Decision: Merge, First: 0, Second: 1, Score: mergeable},
				{Decision: PassThrough, First: 2, Second: -1},
			},
		},
		{
			name:   "two spreads",
			n:      4,
			scores: []SeamScore{mergeable, mergeable, mergeable},
			want: []Step{
				{Decision: Merge, First: 0, Second: 1, Score: mergeable},
				{Decision: Merge, First: 2, Second: 3, Score: mergeable},
			},
		},
		{
			name:   "pass then merge",
			n:      3,
			scores: []SeamScore{blankSeam, mergeable},
			want: []Step{
				{Decision: PassThrough, First: 0, Second: -1, Score: blankSeam},
				{Decision: Merge, First: 1, Second: 2, Score: mergeable},
			},
		},
		{
			name:   "contrast too high",
			n:      2,
			scores: []SeamScore{{Coverage: 0.9, Contrast: 0.3}},
			want: []Step{
				{Decision: PassThrough, First: 0, Second: -1, Score: SeamScore{Coverage: 0.9, Contrast: 0.3}},
				{Decision: PassThrough, First: 1, Second: -1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opt.PlanSpreads(tt.n, tt.scores))
		})
	}
}

func TestPlanSpreadsConservesPages(t *testing.T) {
	opt := DefaultOptions()
	r := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		n := r.IntN(30)
		scores := make([]SeamScore, max(0, n-1))
		for i := range scores {
			if r.IntN(2) == 0 {
				scores[i] = mergeable
			}
		}
		steps := opt.PlanSpreads(n, scores)

		merges, seen := 0, make([]bool, n)
		for _, s := range steps {
			require.False(t, seen[s.First])
			seen[s.First] = true
			if s.Decision == Merge {
				merges++
				require.Equal(t, s.First+1, s.Second)
				require.False(t, seen[s.Second])
				seen[s.Second] = true
			}
		}
		assert.Equal(t, n, len(steps)+merges)
		for i, ok := range seen {
			assert.True(t, ok, "page %d not emitted", i)
		}
	}
}

func solid(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestJoinSpread(t *testing.T) {
	prev := solid(3, 4, 10)
	cur := solid(5, 4, 200)

	fwd, err := JoinSpread(Forward, prev, cur)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), fwd.Bounds())
	assert.Equal(t, color.RGBA{10, 10, 10, 255}, fwd.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, fwd.RGBAAt(3, 3))

	rev, err := JoinSpread(Reverse, prev, cur)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, rev.RGBAAt(4, 0))
	assert.Equal(t, color.RGBA{10, 10, 10, 255}, rev.RGBAAt(5, 3))

	_, err = JoinSpread(Forward, prev, solid(5, 3, 0))
	assert.ErrorIs(t, err, ErrHeightMismatch)
}

func TestSpreadName(t *testing.T) {
	assert.Equal(t, "003-004.jpg", SpreadName("003.jpg", "004.jpg"))
	assert.Equal(t, "a-b.png", SpreadName("/in/a.png", "/in/b.jpeg"))
	assert.Equal(t, "x-y", SpreadName("x", "y"))
}
