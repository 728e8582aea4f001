package comicprep

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	return img
}

func TestSplitPortrait(t *testing.T) {
	img := pattern(100, 150)
	parts := Split(img, RightFirst)
	require.Len(t, parts, 1)
	assert.Same(t, img, parts[0])
}

func TestSplitLandscape(t *testing.T) {
	img := pattern(200, 150)
	parts := Split(img, RightFirst)
	require.Len(t, parts, 2)
	right, left := parts[0], parts[1]
	assert.Equal(t, image.Rect(100, 0, 200, 150), right.Bounds())
	assert.Equal(t, image.Rect(0, 0, 100, 150), left.Bounds())

	joined, err := JoinSpread(Forward, left, right)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, joined.Pix)
}

func TestSplitSquareIsLandscape(t *testing.T) {
	assert.Len(t, Split(pattern(50, 50), RightFirst), 2)
}

func TestSplitOddWidth(t *testing.T) {
	img := pattern(7, 5)
	parts := Split(img, LeftFirst)
	require.Len(t, parts, 2)
	assert.Equal(t, 3, parts[0].Bounds().Dx())
	assert.Equal(t, 4, parts[1].Bounds().Dx())
	assert.Equal(t, img.At(3, 0), parts[1].At(parts[1].Bounds().Min.X, 0))
}

// noSub hides SubImage so Split has to copy.
type noSub struct{ image.Image }

func TestSplitCopiesWithoutSubImage(t *testing.T) {
	img := pattern(8, 4)
	parts := Split(noSub{img}, RightFirst)
	require.Len(t, parts, 2)
	right := parts[0]
	assert.Equal(t, image.Rect(0, 0, 4, 4), right.Bounds())
	assert.Equal(t, img.At(4, 2), right.At(0, 2))
}

func TestSplitSuffix(t *testing.T) {
	assert.Equal(t, "", SplitSuffix(0, 1))
	assert.Equal(t, "-0", SplitSuffix(0, 2))
	assert.Equal(t, "-1", SplitSuffix(1, 2))
}
