package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/setanarut/comicprep"
	"github.com/setanarut/comicprep/batch"
	"github.com/setanarut/comicprep/source"
	"github.com/setanarut/comicprep/utils"
)

type toneFlags struct {
	gamma  float64
	levels int
	dither string
}

func (t *toneFlags) register(cmd *cobra.Command) {
	def := comicprep.DefaultOptions()
	cmd.Flags().Float64Var(&t.gamma, "gamma", def.Gamma, "tone curve exponent applied before stretching")
	cmd.Flags().IntVar(&t.levels, "levels", def.Levels, "number of gray levels in the output palette")
	cmd.Flags().StringVar(&t.dither, "dither", def.Dither.String(), "error diffusion: floyd-steinberg, atkinson, stucki, burkes")
}

func (t *toneFlags) apply(opt *comicprep.Options) error {
	m, err := comicprep.ParseDitherMethod(t.dither)
	if err != nil {
		return err
	}
	opt.Gamma = t.gamma
	opt.Levels = t.levels
	opt.Dither = m
	return opt.Validate()
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	var (
		tones      toneFlags
		quality    int
		splitOrder string
	)
	cmd := &cobra.Command{
		Use:   "render <width> <height> <input> <output-dir>",
		Short: "Render a directory, zip/cbz archive or e-book into e-ink ready pages",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("width: %w", err)
			}
			height, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("height: %w", err)
			}
			opt := batch.DefaultRenderOptions(width, height)
			if err := tones.apply(&opt.Options); err != nil {
				return err
			}
			if opt.Options.SplitOrder, err = comicprep.ParseSplitOrder(splitOrder); err != nil {
				return err
			}
			opt.Workers = g.workers
			opt.Quality = quality
			opt.Logger = g.logger()
			opt.Progress = cmd.OutOrStdout()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "comicprep: comic preparation for e-ink readers")
			fmt.Fprintf(out, "  size: %dx%d\n\n", width, height)

			src, err := source.Open(args[2])
			if err != nil {
				return err
			}
			defer src.Close()

			if toc := src.TOC(); len(toc) > 0 {
				fmt.Fprintln(out, "Table of Contents:")
				for _, e := range toc {
					fmt.Fprintf(out, "  %5d: %s\n", e.Page, e.Title)
				}
				fmt.Fprintln(out)
			}

			report, err := batch.Render(cmd.Context(), src, args[3], opt)
			opt.Logger.Info("render finished", "pages", report.Pages, "files", report.Files, "failed", len(report.Failed))
			return err
		},
	}
	tones.register(cmd)
	cmd.Flags().IntVarP(&quality, "quality", "q", utils.DefaultJPEGQuality, "JPEG quality of the output pages")
	cmd.Flags().StringVar(&splitOrder, "split-order", comicprep.RightFirst.String(),
		"order of split spread halves: rtl (right half first), ltr, or auto (from the book's page direction)")
	return cmd
}
