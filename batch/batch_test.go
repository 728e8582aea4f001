package batch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setanarut/comicprep/utils"
)

func whitePage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// paintColumn sets rows [0, rows) of column x to v.
func paintColumn(img *image.Gray, x, rows int, v uint8) {
	for y := range rows {
		img.SetGray(x, y, color.Gray{Y: v})
	}
}

func save(t *testing.T, img image.Image, path string) {
	t.Helper()
	require.NoError(t, utils.SaveImage(img, path, 0))
}

func TestReportErr(t *testing.T) {
	assert.NoError(t, Report{}.Err())

	boom := errors.New("boom")
	r := Report{Failed: []*PageError{
		{Index: 0, Name: "a.png", Err: boom},
		{Index: 4, Name: "e.png", Err: errors.New("other")},
	}}
	err := r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var pe *PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "page 1 (a.png): boom", pe.Error())
	assert.Contains(t, err.Error(), "page 5 (e.png): other")
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 2, workerCount(4, 2))
	assert.Equal(t, 3, workerCount(3, 10))
	assert.Equal(t, 1, workerCount(8, 0))
	assert.GreaterOrEqual(t, workerCount(0, 100), 1)
}

func TestProgress(t *testing.T) {
	var nilProgress *Progress
	assert.Nil(t, NewProgress(nil, 3))
	assert.NotPanics(t, func() {
		nilProgress.Start()
		nilProgress.Step()
		nilProgress.Finish()
	})

	var buf bytes.Buffer
	p := NewProgress(&buf, 2)
	p.Start()
	assert.Equal(t, 1, p.Step())
	assert.Equal(t, 2, p.Step())
	p.Finish()
	out := buf.String()
	assert.Contains(t, out, "\rProcessing images...     1/2")
	assert.Contains(t, out, "\rProcessing images...     2/2")
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, " \n"), "Done!"))
}

func TestListPages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "c.jpeg", "d.gif", "e.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	files, err := ListPages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.jpeg"),
	}, files)

	_, err = ListPages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	_, err = ListPages(empty)
	assert.Error(t, err)
}
