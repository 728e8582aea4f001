package comicprep

import (
	"image"
	"image/draw"
	"strconv"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Split divides a landscape page into its two halves. Portrait pages are
// returned unchanged. The right half starts exactly at width/2, so for an
// odd width the extra column belongs to it.
func Split(img image.Image, order SplitOrder) []image.Image {
	b := img.Bounds()
	if b.Dx() < b.Dy() {
		return []image.Image{img}
	}
	mid := b.Min.X + b.Dx()/2
	left := crop(img, image.Rect(b.Min.X, b.Min.Y, mid, b.Max.Y))
	right := crop(img, image.Rect(mid, b.Min.Y, b.Max.X, b.Max.Y))
	if order == LeftFirst {
		return []image.Image{left, right}
	}
	return []image.Image{right, left}
}

// SplitSuffix is the file name suffix of crop i out of n.
func SplitSuffix(i, n int) string {
	if n < 2 {
		return ""
	}
	return "-" + strconv.Itoa(i)
}

func crop(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
