// Command comicprep prepares comic pages for e-ink readers.
//
//	comicprep render <width> <height> <input> <output>
//	comicprep merge <ltr|rtl> <input-dir> <output-dir>
//	comicprep inspect <input>
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	verbose bool
	workers int
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "comicprep",
		Short:         "Comic preparation tool for e-ink readers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log debug details such as every seam score")
	root.PersistentFlags().IntVarP(&g.workers, "workers", "j", 0, "parallel workers (0 = one per CPU)")

	root.AddCommand(newRenderCmd(g), newMergeCmd(g), newInspectCmd(g))
	return root
}

func (g *globalFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
