// Package source lists the pages of a comic in reading order. A source is
// chosen once from the input path: a directory of images, a zip/cbz archive,
// or an e-book container (OPF package) that also carries a table of contents
// and a page direction.
package source

import (
	"errors"
	"fmt"
	"image"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

var (
	ErrNotFound    = errors.New("source: input does not exist")
	ErrUnsupported = errors.New("source: unsupported input type")
	ErrEmpty       = errors.New("source: no images found")
)

// Kind tags the variant of a Source.
type Kind int

const (
	Directory Kind = iota
	Archive
	Container
)

func (k Kind) String() string {
	switch k {
	case Archive:
		return "archive"
	case Container:
		return "container"
	default:
		return "directory"
	}
}

// Page is one image of a source. Decoding is deferred so workers can decode
// pages in parallel.
type Page struct {
	Index  int
	Name   string
	decode func() (image.Image, error)
}

func (p Page) Decode() (image.Image, error) {
	if p.decode == nil {
		return nil, fmt.Errorf("page %d: %w", p.Index, ErrEmpty)
	}
	return p.decode()
}

// TOCEntry maps a 1-based page number to a chapter title.
type TOCEntry struct {
	Page  int
	Title string
}

// Source is an ordered, single-pass sequence of pages.
type Source interface {
	Kind() Kind
	// Len is the number of pages, known before iteration starts.
	Len() int
	// Pages yields every page once, in reading order. A second call yields nothing.
	Pages() iter.Seq[Page]
	// TOC is the flattened table of contents; nil when the source has none.
	TOC() []TOCEntry
	// Direction reports a right-to-left page progression; known is false
	// when the source does not say.
	Direction() (rtl, known bool)
	Close() error
}

// Open selects the source variant for path.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	if info.IsDir() {
		if root, ok := unpackedContainerRoot(path); ok {
			return openContainerDir(root)
		}
		return OpenDirectory(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".cbz":
		return OpenArchive(path)
	case ".epub", ".kepub":
		return openContainerZip(path)
	case ".azw3", ".azw", ".mobi":
		return nil, fmt.Errorf("%s: %w: unpack the book first and pass the unpacked directory", path, ErrUnsupported)
	}
	return nil, fmt.Errorf("%s: %w (supported: directory, zip, cbz, epub, unpacked kf8)", path, ErrUnsupported)
}

// pageList is the shared single-pass iterator behind every variant.
type pageList struct {
	pages []Page
	used  atomic.Bool
}

func (l *pageList) Len() int {
	return len(l.pages)
}

func (l *pageList) Pages() iter.Seq[Page] {
	return func(yield func(Page) bool) {
		if l.used.Swap(true) {
			return
		}
		for _, p := range l.pages {
			if !yield(p) {
				return
			}
		}
	}
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
