package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/setanarut/comicprep"
	"github.com/setanarut/comicprep/source"
	"github.com/setanarut/comicprep/utils"
)

// MergeExts are the page extensions considered by MergeSpreads.
var MergeExts = []string{".jpg", ".jpeg", ".png"}

type MergeOptions struct {
	Direction comicprep.Direction
	Options   comicprep.Options
	Workers   int
	// JPEG quality of re-encoded spreads; pass-through pages are copied as is.
	Quality int
	Logger  *slog.Logger
	// Decisions receives one line per merged pair; nil keeps it quiet.
	Decisions io.Writer
}

func DefaultMergeOptions(dir comicprep.Direction) MergeOptions {
	return MergeOptions{
		Direction: dir,
		Options:   comicprep.DefaultOptions(),
		Quality:   utils.DefaultJPEGQuality,
	}
}

// ListPages returns the page files directly inside dir, sorted by path.
func ListPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", dir, source.ErrNotFound)
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(MergeExts, filepath.Ext(e.Name())) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, source.ErrEmpty)
	}
	slices.Sort(files)
	return files, nil
}

// ScorePairs computes the seam score of every adjacent pair of files.
// Pages are decoded in parallel and only their edge columns are kept. A page
// that cannot be decoded scores zero against both neighbours and is
// reported in the returned failures.
func ScorePairs(ctx context.Context, files []string, opt MergeOptions) ([]comicprep.SeamScore, []*PageError) {
	log := loggerOr(opt.Logger)
	edges := make([]comicprep.Edges, len(files))
	fails := &failures{log: log}

	var g errgroup.Group
	g.SetLimit(workerCount(opt.Workers, len(files)))
	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			img, err := utils.ReadImage(f)
			if err != nil {
				fails.add(i, f, err)
				return nil
			}
			edges[i] = comicprep.EdgesOf(img)
			return nil
		})
	}
	g.Wait()

	scores := make([]comicprep.SeamScore, max(0, len(files)-1))
	for i := range scores {
		scores[i] = opt.Options.ScoreEdges(opt.Direction, edges[i], edges[i+1])
		log.Debug("seam", "prev", files[i], "cur", files[i+1],
			"coverage", scores[i].Coverage, "contrast", scores[i].Contrast)
	}
	return scores, fails.sorted()
}

// MergeSpreads re-joins double-page spreads found among the pages of inDir
// and writes the result to outDir. Merged pairs are written under a
// combined name; every other page is copied unchanged.
func MergeSpreads(ctx context.Context, inDir, outDir string, opt MergeOptions) (Report, []comicprep.Step, error) {
	files, err := ListPages(inDir)
	if err != nil {
		return Report{}, nil, err
	}
	if err := utils.EnsureDir(outDir); err != nil {
		if errors.Is(err, utils.ErrNotDir) {
			return Report{}, nil, fmt.Errorf("%s: %w", outDir, ErrOutputNotDir)
		}
		return Report{}, nil, err
	}
	if err := opt.Options.Validate(); err != nil {
		return Report{}, nil, err
	}
	log := loggerOr(opt.Logger)
	report := Report{Pages: len(files)}

	scores, failed := ScorePairs(ctx, files, opt)
	steps := opt.Options.PlanSpreads(len(files), scores)
	for _, s := range steps {
		if s.Decision == comicprep.Merge && opt.Decisions != nil {
			fmt.Fprintf(opt.Decisions, "%s %s %s\n", files[s.First], files[s.Second], s.Score)
		}
	}

	fails := &failures{log: log, list: failed}
	var written atomic.Int64
	var g errgroup.Group
	g.SetLimit(workerCount(opt.Workers, len(steps)))
	for _, s := range steps {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := emitStep(s, files, outDir, opt); err != nil {
				fails.add(s.First, files[s.First], err)
				return nil
			}
			written.Add(1)
			return nil
		})
	}
	g.Wait()

	for _, s := range steps {
		if s.Decision == comicprep.Merge {
			report.Spreads++
		}
	}
	report.Files = int(written.Load())
	report.Failed = fails.sorted()
	if err := ctx.Err(); err != nil {
		return report, steps, err
	}
	return report, steps, report.Err()
}

func emitStep(s comicprep.Step, files []string, outDir string, opt MergeOptions) error {
	first := files[s.First]
	if s.Decision == comicprep.PassThrough {
		return utils.CopyFile(first, filepath.Join(outDir, filepath.Base(first)))
	}
	second := files[s.Second]
	prev, err := utils.ReadImage(first)
	if err != nil {
		return err
	}
	cur, err := utils.ReadImage(second)
	if err != nil {
		return err
	}
	spread, err := comicprep.JoinSpread(opt.Direction, prev, cur)
	if err != nil {
		return err
	}
	return utils.SaveImage(spread, filepath.Join(outDir, comicprep.SpreadName(first, second)), opt.Quality)
}
