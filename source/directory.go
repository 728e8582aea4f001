package source

import (
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/setanarut/comicprep/utils"
)

// DirectoryExts are the image extensions picked up when walking a directory.
var DirectoryExts = []string{"jpg", "jpeg", "png", "gif"}

type dirSource struct {
	pageList
}

// OpenDirectory lists every image below root, recursively, sorted by path.
func OpenDirectory(root string) (Source, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasExt(p, DirectoryExts) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrEmpty)
	}
	slices.Sort(files)

	s := &dirSource{}
	s.pages = make([]Page, len(files))
	for i, f := range files {
		s.pages[i] = Page{
			Index:  i,
			Name:   f,
			decode: func() (image.Image, error) { return utils.ReadImage(f) },
		}
	}
	return s, nil
}

func (s *dirSource) Kind() Kind                   { return Directory }
func (s *dirSource) TOC() []TOCEntry              { return nil }
func (s *dirSource) Direction() (rtl, known bool) { return false, false }
func (s *dirSource) Close() error                 { return nil }
