package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/dixieflatline76/courtside/config"
	"github.com/dixieflatline76/courtside/pkg/crop"
	"github.com/dixieflatline76/courtside/util/log"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type cropJob struct {
	typ       crop.Type
	aspect    float64
	steps     crop.Steps
	suggester *crop.Suggester
	limit     int64
}

func runCrop(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("crop", flag.ContinueOnError)
	var inputs stringList
	fs.Var(&inputs, "in", "source image (repeat for a batch)")
	out := fs.String("out", "", "output JPEG, or a directory when cropping several images")
	typeName := fs.String("type", string(crop.Avatar), "output preset: avatar or cover")
	aspect := fs.Float64("aspect", 0, "crop aspect ratio (default 1 for avatars, 3 for covers)")
	zoom := fs.Int("zoom", 0, "zoom steps, negative to zoom out")
	rotate := fs.Int("rotate", 0, "quarter turns clockwise")
	offset := fs.String("offset", "", "image offset as x,y in viewport pixels")
	box := fs.String("box", "", "crop box top-left corner as x,y in viewport pixels")
	suggest := fs.Bool("suggest", false, "start from a suggested crop instead of the centered box")
	faceModel := fs.String("face-model", cfg.FaceModelPath, "pigo cascade used by -suggest for avatars")
	preview := fs.String("preview", "", "also write the on-screen preview as PNG (a directory in batch mode)")
	jobs := fs.Int("jobs", 4, "images cropped in parallel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(inputs) == 0 || *out == "" {
		fs.Usage()
		return errUsage
	}

	typ, err := crop.ParseType(*typeName)
	if err != nil {
		return err
	}
	job := cropJob{typ: typ, aspect: *aspect, limit: cfg.MaxUploadBytes}
	if !(job.aspect > 0) {
		job.aspect = crop.DefaultAspect(typ)
	}
	job.steps = crop.Steps{Zoom: *zoom, Rotate: *rotate}
	if job.steps.Offset, err = crop.ParsePoint(*offset); err != nil {
		return err
	}
	if job.steps.Box, err = crop.ParsePoint(*box); err != nil {
		return err
	}
	if *suggest {
		model, err := crop.LoadFaceModel(*faceModel)
		if err != nil {
			return err
		}
		if job.suggester, err = crop.NewSuggester(crop.DefaultTuning(), model); err != nil {
			return err
		}
	}

	if len(inputs) == 1 {
		return job.run(ctx, inputs[0], *out, *preview)
	}

	// Batch mode: out and preview are directories.
	for _, dir := range []string{*out, *preview} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *jobs))
	for _, in := range inputs {
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		dst := filepath.Join(*out, fmt.Sprintf("%s-%s.jpg", base, typ))
		var pv string
		if *preview != "" {
			pv = filepath.Join(*preview, base+"-preview.png")
		}
		g.Go(func() error {
			if err := job.run(ctx, in, dst, pv); err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// run crops one file. Each call owns its session.
func (j cropJob) run(ctx context.Context, in, out, preview string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := loadSource(in, j.limit)
	if err != nil {
		return err
	}

	session := crop.NewSession(src, j.typ, j.aspect)
	if !session.Initialize(crop.DefaultViewport(j.typ)) {
		return crop.ErrViewportUnmeasured
	}
	if j.suggester != nil {
		region, err := j.suggester.Suggest(ctx, src.Image, j.typ, j.aspect)
		if err != nil {
			log.Printf("Crop: no suggestion for %s, keeping the centered box: %v", in, err)
		} else {
			session.ApplySuggestion(region)
		}
	}
	session.Play(j.steps)

	if preview != "" {
		img, err := crop.Preview(session)
		if err != nil {
			return fmt.Errorf("rendering preview: %w", err)
		}
		if err := imaging.Save(img, preview); err != nil {
			return fmt.Errorf("writing preview: %w", err)
		}
	}

	res := session.Apply()
	if res.Fallback {
		return fmt.Errorf("crop failed, nothing written: %w", res.Err)
	}
	_, data, err := crop.ParseDataURI(res.DataURI)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	b := res.Image.Bounds()
	log.Printf("Crop: %s -> %s (%dx%d)", in, out, b.Dx(), b.Dy())
	return nil
}

// loadSource opens a file the way an upload arrives: a MIME type, a size and a body.
func loadSource(path string, limit int64) (crop.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return crop.Source{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return crop.Source{}, fmt.Errorf("opening image: %w", err)
	}
	return crop.LoadUpload(f, fileMIME(f, path), info.Size(), limit)
}

// fileMIME guesses the type from the extension, sniffing the content when that fails.
func fileMIME(f *os.File, path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return ""
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ""
	}
	return http.DetectContentType(head[:n])
}
