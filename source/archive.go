package source

import (
	"fmt"
	"image"
	"io"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/setanarut/comicprep/utils"
)

// ArchiveExts are the entry extensions read from zip and cbz files.
var ArchiveExts = []string{"jpg", "jpeg", "png"}

type archiveSource struct {
	pageList
	zr *zip.ReadCloser
}

// OpenArchive lists the image entries of a zip or cbz file sorted by name.
func OpenArchive(path string) (Source, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	var entries []*zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && hasExt(f.Name, ArchiveExts) {
			entries = append(entries, f)
		}
	}
	if len(entries) == 0 {
		zr.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	slices.SortFunc(entries, func(a, b *zip.File) int {
		return strings.Compare(a.Name, b.Name)
	})

	s := &archiveSource{zr: zr}
	s.pages = make([]Page, len(entries))
	for i, f := range entries {
		s.pages[i] = Page{
			Index:  i,
			Name:   f.Name,
			decode: func() (image.Image, error) { return decodeZipEntry(f) },
		}
	}
	return s, nil
}

func decodeZipEntry(f *zip.File) (image.Image, error) {
	data, err := readZipEntry(f)
	if err != nil {
		return nil, err
	}
	return utils.DecodeBytes(f.Name, data)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *archiveSource) Kind() Kind                   { return Archive }
func (s *archiveSource) TOC() []TOCEntry              { return nil }
func (s *archiveSource) Direction() (rtl, known bool) { return false, false }
func (s *archiveSource) Close() error                 { return s.zr.Close() }
