package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dixieflatline76/courtside/pkg/timeline"
	"github.com/dixieflatline76/courtside/util/log"
)

func runTimeline(args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	in := fs.String("in", "", "track file (.yaml, .yml or .json)")
	out := fs.String("out", "", "SVG output, - for stdout")
	width := fs.Float64("width", 0, "viewport width (overrides the file)")
	showAll := fs.Bool("all", false, "draw hidden tracks too")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		fs.Usage()
		return errUsage
	}

	f, err := timeline.LoadTrackFile(*in)
	if err != nil {
		return err
	}
	opts := timeline.DefaultOptions()
	if f.Options != nil {
		opts = *f.Options
	}
	if *width > 0 {
		opts.Viewport.Width = *width
	}
	if *showAll {
		for i := range f.Tracks {
			f.Tracks[i].Hidden = false
		}
	}

	var w io.Writer = os.Stdout
	if *out != "-" {
		fh, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer fh.Close()
		w = fh
	}
	if err := timeline.RenderSVG(w, f.Tracks, opts); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if *out != "-" {
		log.Printf("Timeline: %d tracks -> %s", len(f.Tracks), *out)
	}
	return nil
}
