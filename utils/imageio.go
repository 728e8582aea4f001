package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotDir is returned when an output path exists but is not a directory.
var ErrNotDir = errors.New("not a directory")

// DefaultJPEGQuality matches what e-reader comic tooling usually ships.
const DefaultJPEGQuality = 85

// ReadImage decodes the image file at path.
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image such as an archive entry.
func DecodeBytes(name string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}

// Encode writes img in the format implied by the extension of name.
// Unknown extensions are written as JPEG.
func Encode(w io.Writer, name string, img image.Image, quality int) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Encode(w, img)
	case ".gif":
		return gif.Encode(w, img, nil)
	default:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
}

// SaveImage writes img to filename, choosing the encoder by extension.
func SaveImage(img image.Image, filename string, quality int) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Encode(f, filename, img, quality); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return f.Close()
}

// CopyFile copies src to dst and carries over the modification time.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// EnsureDir creates dir when missing and fails when the path exists but is
// not a directory.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s: %w", dir, ErrNotDir)
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return os.MkdirAll(dir, 0o755)
	default:
		return err
	}
}

// PageFileName is the output name of page index (0-based) with an optional
// split suffix: 0, "" -> "00001.jpg"; 4, "-1" -> "00005-1.jpg".
func PageFileName(index int, suffix string) string {
	return fmt.Sprintf("%05d%s.jpg", index+1, suffix)
}
