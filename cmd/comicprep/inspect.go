package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/setanarut/comicprep"
	"github.com/setanarut/comicprep/source"
	"github.com/setanarut/comicprep/utils"
)

func newInspectCmd(g *globalFlags) *cobra.Command {
	var (
		direction string
		colors    int
		method    string
		levels    int
	)
	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Print per-page size, split and seam verdicts, and dominant tones without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := comicprep.ParseDirection(direction)
			if err != nil {
				return err
			}
			opt := comicprep.DefaultOptions()
			opt.Levels = levels
			if err := opt.Validate(); err != nil {
				return err
			}
			src, err := source.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			return inspect(cmd.OutOrStdout(), g, src, dir, opt, colors, utils.ParseToneMethod(method))
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "ltr", "reading direction used for seam scores: ltr or rtl")
	cmd.Flags().IntVarP(&colors, "colors", "k", 4, "number of dominant tones to report per page")
	cmd.Flags().StringVar(&method, "method", utils.ToneMethodDominantColor.String(), "tone extraction: dominantcolor or kmeans")
	cmd.Flags().IntVar(&levels, "levels", comicprep.DefaultOptions().Levels, "palette size the tones are snapped to")
	return cmd
}

func inspect(w io.Writer, g *globalFlags, src source.Source, dir comicprep.Direction, opt comicprep.Options, colors int, method utils.ToneMethod) error {
	log := g.logger()
	pal := comicprep.GrayPalette(opt.Levels)
	rtl, known := src.Direction()
	fmt.Fprintf(w, "source: %s, %d pages", src.Kind(), src.Len())
	if known {
		fmt.Fprintf(w, ", page direction %s", map[bool]string{true: "rtl", false: "ltr"}[rtl])
	}
	fmt.Fprintln(w)

	var (
		prev     comicprep.Edges
		prevName string
		havePrev bool
	)
	for page := range src.Pages() {
		img, err := page.Decode()
		if err != nil {
			log.Warn("page failed", "page", page.Index+1, "name", page.Name, "err", err)
			havePrev = false
			continue
		}
		b := img.Bounds()
		edges := comicprep.EdgesOf(img)
		if havePrev {
			s := opt.ScoreEdges(dir, prev, edges)
			verdict := comicprep.PassThrough
			if opt.Merges(s) {
				verdict = comicprep.Merge
			}
			fmt.Fprintf(w, "        seam %s | %s: %s -> %s\n", prevName, page.Name, s, verdict)
		}

		tones := utils.ExtractTones(img, colors, method, pal)
		parts := make([]string, len(tones))
		for i, t := range tones {
			parts[i] = fmt.Sprintf("%s@%.0f%%->%d", t.Color.Hex(), t.Weight*100, t.Level)
		}
		split := len(comicprep.Split(img, comicprep.RightFirst)) == 2
		fmt.Fprintf(w, "%5d  %s  %dx%d  split=%t  tones=[%s]\n",
			page.Index+1, page.Name, b.Dx(), b.Dy(), split, strings.Join(parts, " "))

		prev, prevName, havePrev = edges, page.Name, true
	}
	return nil
}
