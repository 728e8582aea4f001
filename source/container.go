package source

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/setanarut/comicprep/utils"
)

// Container errors.
var (
	ErrNoPackage      = errors.New("source: container has no package document")
	ErrInvalidPackage = errors.New("source: invalid package document")
)

// fileSet reads container members by their slash-separated path.
type fileSet interface {
	read(name string) ([]byte, error)
	close() error
}

type zipFiles struct {
	zr     *zip.ReadCloser
	byName map[string]*zip.File
}

func (z *zipFiles) read(name string) ([]byte, error) {
	f, ok := z.byName[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return readZipEntry(f)
}

func (z *zipFiles) close() error { return z.zr.Close() }

type dirFiles struct {
	root string
}

func (d dirFiles) read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
}

func (d dirFiles) close() error { return nil }

type containerSource struct {
	pageList
	files fileSet
	title string
	toc   []TOCEntry
	rtl   bool
	known bool
}

func (s *containerSource) Kind() Kind                   { return Container }
func (s *containerSource) TOC() []TOCEntry              { return s.toc }
func (s *containerSource) Direction() (rtl, known bool) { return s.rtl, s.known }
func (s *containerSource) Close() error                 { return s.files.close() }

// Title is the book title from the package metadata.
func (s *containerSource) Title() string { return s.title }

// unpackedContainerRoot detects an unpacked book: either a directory with
// META-INF/container.xml, or the output tree of a KF8 unpacker with a mobi8
// subdirectory.
func unpackedContainerRoot(dir string) (string, bool) {
	mobi8 := filepath.Join(dir, "mobi8")
	if exists(mobi8, "META-INF/container.xml") || exists(mobi8, "OEBPS/content.opf") {
		return mobi8, true
	}
	if exists(dir, "META-INF/container.xml") {
		return dir, true
	}
	return "", false
}

func exists(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(name)))
	return err == nil
}

func openContainerDir(root string) (Source, error) {
	return openContainer(dirFiles{root: root}, root)
}

func openContainerZip(p string) (Source, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", p, err)
	}
	files := &zipFiles{zr: zr, byName: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		files.byName[f.Name] = f
	}
	s, err := openContainer(files, p)
	if err != nil {
		zr.Close()
		return nil, err
	}
	return s, nil
}

func openContainer(files fileSet, name string) (Source, error) {
	opfPath, err := findPackage(files)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	pkg, err := readPackage(files, opfPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	images := pkg.pageImages(files)
	if len(images) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}

	s := &containerSource{files: files, title: pkg.title}
	switch pkg.direction {
	case "rtl":
		s.rtl, s.known = true, true
	case "ltr":
		s.known = true
	}
	s.toc = flattenTOC(images, pkg.navigation(files))
	s.pages = make([]Page, len(images))
	for i, img := range images {
		src := img.src
		s.pages[i] = Page{
			Index: i,
			Name:  src,
			decode: func() (image.Image, error) {
				data, err := files.read(src)
				if err != nil {
					return nil, err
				}
				return utils.DecodeBytes(src, data)
			},
		}
	}
	return s, nil
}

type containerXML struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// findPackage locates the OPF document through META-INF/container.xml,
// falling back to the conventional OEBPS/content.opf.
func findPackage(files fileSet) (string, error) {
	if data, err := files.read("META-INF/container.xml"); err == nil {
		var c containerXML
		if err := xml.Unmarshal(data, &c); err == nil {
			for _, rf := range c.Rootfiles {
				if rf.FullPath != "" && (rf.MediaType == "" || rf.MediaType == "application/oebps-package+xml") {
					return rf.FullPath, nil
				}
			}
		}
	}
	if _, err := files.read("OEBPS/content.opf"); err == nil {
		return "OEBPS/content.opf", nil
	}
	return "", ErrNoPackage
}

type opfDocument struct {
	Title    []string `xml:"metadata>title"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine struct {
		Toc       string `xml:"toc,attr"`
		Direction string `xml:"page-progression-direction,attr"`
		ItemRefs  []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type bookPackage struct {
	dir       string
	title     string
	direction string
	spine     []string          // content document paths, container-relative
	manifest  map[string]string // id -> container-relative path
	ncx       string
}

type pageImage struct {
	page string
	src  string
}

func readPackage(files fileSet, opfPath string) (*bookPackage, error) {
	data, err := files.read(opfPath)
	if err != nil {
		return nil, ErrNoPackage
	}
	var doc opfDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, ErrInvalidPackage
	}

	pkg := &bookPackage{
		dir:       path.Dir(opfPath),
		direction: strings.TrimSpace(doc.Spine.Direction),
		manifest:  make(map[string]string, len(doc.Manifest)),
	}
	if len(doc.Title) > 0 {
		pkg.title = norm.NFC.String(strings.TrimSpace(doc.Title[0]))
	}
	for _, item := range doc.Manifest {
		full := resolveHref(pkg.dir, item.Href)
		pkg.manifest[item.ID] = full
		if item.MediaType == "application/x-dtbncx+xml" || (doc.Spine.Toc != "" && item.ID == doc.Spine.Toc) {
			pkg.ncx = full
		}
	}
	for _, ref := range doc.Spine.ItemRefs {
		if href, ok := pkg.manifest[ref.IDRef]; ok {
			pkg.spine = append(pkg.spine, href)
		}
	}
	if pkg.ncx == "" {
		pkg.ncx = resolveHref(pkg.dir, "toc.ncx")
	}
	return pkg, nil
}

// pageImages returns the images referenced by each spine document, in
// spine order. SVG image references win over img elements on a page.
func (p *bookPackage) pageImages(files fileSet) []pageImage {
	var out []pageImage
	for _, page := range p.spine {
		data, err := files.read(page)
		if err != nil {
			continue
		}
		doc, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			continue
		}
		svg, img := collectImageRefs(doc)
		refs := svg
		if len(refs) == 0 {
			refs = img
		}
		for _, ref := range refs {
			out = append(out, pageImage{page: page, src: resolveHref(path.Dir(page), ref)})
		}
	}
	return out
}

func collectImageRefs(n *html.Node) (svg, img []string) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "image" && n.Namespace == "svg":
				if v := attr(n, "href"); v != "" {
					svg = append(svg, v)
				}
			case n.Data == "img":
				if v := attr(n, "src"); v != "" {
					img = append(img, v)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return svg, img
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

type ncxDocument struct {
	NavPoints []struct {
		PlayOrder string `xml:"playOrder,attr"`
		Label     string `xml:"navLabel>text"`
		Content   struct {
			Src string `xml:"src,attr"`
		} `xml:"content"`
	} `xml:"navMap>navPoint"`
}

type navPoint struct {
	title string
	href  string
	order int
}

// navigation reads the top-level NCX entries sorted by play order. A missing
// or broken NCX yields no entries.
func (p *bookPackage) navigation(files fileSet) []navPoint {
	data, err := files.read(p.ncx)
	if err != nil {
		return nil
	}
	var doc ncxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	base := path.Dir(p.ncx)
	points := make([]navPoint, 0, len(doc.NavPoints))
	for _, np := range doc.NavPoints {
		order, _ := strconv.Atoi(strings.TrimSpace(np.PlayOrder))
		href, _, _ := strings.Cut(np.Content.Src, "#")
		points = append(points, navPoint{
			title: norm.NFC.String(strings.TrimSpace(np.Label)),
			href:  resolveHref(base, href),
			order: order,
		})
	}
	slices.SortStableFunc(points, func(a, b navPoint) int { return a.order - b.order })
	return points
}

// flattenTOC assigns each navigation entry to the first image at or after
// the previous entry whose page document it points at. Entries pointing
// at pages without images are dropped.
func flattenTOC(images []pageImage, points []navPoint) []TOCEntry {
	var toc []TOCEntry
	start := 0
	for _, np := range points {
		for i := start; i < len(images); i++ {
			if images[i].page == np.href {
				toc = append(toc, TOCEntry{Page: i + 1, Title: np.title})
				start = i
				break
			}
		}
	}
	return toc
}

func resolveHref(base, href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if base == "." || base == "" {
		return path.Clean(href)
	}
	return path.Join(base, href)
}
