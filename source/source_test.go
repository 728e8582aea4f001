package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(0, 0, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFiles(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
}

func writeZip(t *testing.T, p string, files map[string][]byte, dirs ...string) {
	t.Helper()
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, d := range dirs {
		_, err := zw.Create(d)
		require.NoError(t, err)
	}
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func names(src Source) []string {
	var out []string
	for p := range src.Pages() {
		out = append(out, p.Name)
	}
	return out
}

func TestOpenDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string][]byte{
		"b.png":     pngBytes(t, 4, 6),
		"a.jpg":     pngBytes(t, 4, 6),
		"sub/c.GIF": []byte("gif"),
		"notes.txt": []byte("skip"),
	})

	src, err := Open(root)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, Directory, src.Kind())
	assert.Equal(t, 3, src.Len())
	assert.Nil(t, src.TOC())
	_, known := src.Direction()
	assert.False(t, known)

	var pages []Page
	for p := range src.Pages() {
		pages = append(pages, p)
	}
	require.Len(t, pages, 3)
	assert.Equal(t, filepath.Join(root, "a.jpg"), pages[0].Name)
	assert.Equal(t, filepath.Join(root, "b.png"), pages[1].Name)
	assert.Equal(t, filepath.Join(root, "sub", "c.GIF"), pages[2].Name)
	for i, p := range pages {
		assert.Equal(t, i, p.Index)
	}

	img, err := pages[1].Decode()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 6), img.Bounds())
	_, err = pages[2].Decode()
	assert.Error(t, err)
}

func TestPagesIsSinglePass(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string][]byte{"1.png": nil, "2.png": nil})
	src, err := OpenDirectory(root)
	require.NoError(t, err)

	assert.Len(t, names(src), 2)
	assert.Empty(t, names(src))
}

func TestPagesStopsEarly(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string][]byte{"1.png": nil, "2.png": nil, "3.png": nil})
	src, err := OpenDirectory(root)
	require.NoError(t, err)
	n := 0
	for range src.Pages() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	_, err = Open(empty)
	assert.ErrorIs(t, err, ErrEmpty)

	writeFiles(t, dir, map[string][]byte{"book.azw3": []byte("x"), "book.pdf": []byte("x")})
	_, err = Open(filepath.Join(dir, "book.azw3"))
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = Open(filepath.Join(dir, "book.pdf"))
	assert.ErrorIs(t, err, ErrUnsupported)

	noImages := filepath.Join(dir, "text.cbz")
	writeZip(t, noImages, map[string][]byte{"readme.txt": []byte("x")})
	_, err = Open(noImages)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestOpenArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "book.cbz")
	writeZip(t, p, map[string][]byte{
		"02.png":    pngBytes(t, 3, 5),
		"01.jpg":    pngBytes(t, 3, 5),
		"03.JPEG":   pngBytes(t, 3, 5),
		"cover.gif": []byte("gif"),
	}, "extras/")

	src, err := Open(p)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, Archive, src.Kind())
	assert.Equal(t, 3, src.Len())

	var pages []Page
	for pg := range src.Pages() {
		pages = append(pages, pg)
	}
	require.Len(t, pages, 3)
	assert.Equal(t, []string{"01.jpg", "02.png", "03.JPEG"}, []string{pages[0].Name, pages[1].Name, pages[2].Name})
	img, err := pages[2].Decode()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 5), img.Bounds())
}
