package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/setanarut/comicprep"
	"github.com/setanarut/comicprep/source"
	"github.com/setanarut/comicprep/utils"
)

type RenderOptions struct {
	// Target box in pixels; pages are scaled to fit inside it.
	Width, Height int
	Options       comicprep.Options
	// Parallel page workers, 0 means one per CPU.
	Workers int
	// JPEG quality of the written pages.
	Quality int
	Logger  *slog.Logger
	// Progress receives the counter line; nil keeps it quiet.
	Progress io.Writer
}

func DefaultRenderOptions(width, height int) RenderOptions {
	return RenderOptions{
		Width:   width,
		Height:  height,
		Options: comicprep.DefaultOptions(),
		Quality: utils.DefaultJPEGQuality,
	}
}

// Render writes every page of src to outDir as 00001.jpg, 00002.jpg, ...
// Landscape pages are split and written as 00007-0.jpg and 00007-1.jpg.
// Pages are processed in parallel and complete in any order; a failing page
// is logged and reported without stopping the others.
func Render(ctx context.Context, src source.Source, outDir string, opt RenderOptions) (Report, error) {
	report := Report{Pages: src.Len()}
	if err := utils.EnsureDir(outDir); err != nil {
		if errors.Is(err, utils.ErrNotDir) {
			return report, fmt.Errorf("%s: %w", outDir, ErrOutputNotDir)
		}
		return report, err
	}
	renderer, err := comicprep.NewRenderer(opt.Width, opt.Height, opt.Options)
	if err != nil {
		return report, err
	}
	order := opt.Options.SplitOrder.Resolve(src.Direction())
	log := loggerOr(opt.Logger)
	log.Info("rendering", "source", src.Kind(), "pages", src.Len(),
		"size", fmt.Sprintf("%dx%d", opt.Width, opt.Height), "split", order)

	progress := NewProgress(opt.Progress, src.Len())
	progress.Start()

	var files atomic.Int64
	fails := &failures{log: log}
	var g errgroup.Group
	g.SetLimit(workerCount(opt.Workers, src.Len()))
	for page := range src.Pages() {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer progress.Step()
			n, err := renderPage(renderer, page, order, outDir, opt.Quality)
			files.Add(int64(n))
			if err != nil {
				fails.add(page.Index, page.Name, err)
			}
			return nil
		})
	}
	g.Wait()
	progress.Finish()

	report.Files = int(files.Load())
	report.Failed = fails.sorted()
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, report.Err()
}

// renderPage decodes, renders and writes one source page. It returns the
// number of files written.
func renderPage(r *comicprep.Renderer, page source.Page, order comicprep.SplitOrder, outDir string, quality int) (int, error) {
	img, err := page.Decode()
	if err != nil {
		return 0, err
	}
	outs, err := r.RenderPage(img, order)
	if err != nil {
		return 0, err
	}
	written := 0
	for i, out := range outs {
		name := filepath.Join(outDir, utils.PageFileName(page.Index, comicprep.SplitSuffix(i, len(outs))))
		if err := utils.SaveImage(out, name, quality); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
