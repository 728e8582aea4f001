package main

import (
	"github.com/spf13/cobra"

	"github.com/setanarut/comicprep"
	"github.com/setanarut/comicprep/batch"
	"github.com/setanarut/comicprep/utils"
)

func newMergeCmd(g *globalFlags) *cobra.Command {
	def := comicprep.DefaultOptions()
	var (
		coverage float64
		contrast float64
		quality  int
	)
	cmd := &cobra.Command{
		Use:   "merge <ltr|rtl> <input-dir> <output-dir>",
		Short: "Detect adjacent pages that form a double-page spread and join them",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := comicprep.ParseDirection(args[0])
			if err != nil {
				return err
			}
			opt := batch.DefaultMergeOptions(dir)
			opt.Options.CoverageThreshold = coverage
			opt.Options.ContrastThreshold = contrast
			opt.Workers = g.workers
			opt.Quality = quality
			opt.Logger = g.logger()
			opt.Decisions = cmd.OutOrStdout()

			report, _, err := batch.MergeSpreads(cmd.Context(), args[1], args[2], opt)
			opt.Logger.Info("merge finished", "pages", report.Pages, "files", report.Files,
				"spreads", report.Spreads, "failed", len(report.Failed))
			return err
		},
	}
	cmd.Flags().Float64Var(&coverage, "coverage", def.CoverageThreshold, "minimum share of seam rows carrying content")
	cmd.Flags().Float64Var(&contrast, "contrast", def.ContrastThreshold, "maximum RMS luminance difference across the seam")
	cmd.Flags().IntVarP(&quality, "quality", "q", utils.DefaultJPEGQuality, "JPEG quality of joined spreads")
	return cmd
}
