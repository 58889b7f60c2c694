package crop

import (
	"fmt"
	"image"

	"github.com/dixieflatline76/courtside/util/log"
)

// Result is the outcome of Apply. On fallback DataURI and Image are the
// unmodified source and Err records why cropping did not happen.
type Result struct {
	DataURI  string
	Image    image.Image
	Fallback bool
	Err      error
}

// Apply renders the crop into the fixed output raster for the session's type and
// encodes it as a JPEG data URI. It never fails: any problem yields the original
// source instead. The session is closed afterwards.
func (s *Session) Apply() (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = s.fallback(fmt.Errorf("rasterizing crop: %v", r))
		}
		s.dragging = false
		s.closed = true
	}()

	if s.closed {
		return s.fallback(ErrSessionClosed)
	}
	if s.Source.Image == nil {
		return s.fallback(ErrNoSource)
	}
	if s.Canvas == nil {
		return s.fallback(ErrNoCanvas)
	}

	out := OutputSize(s.Type, s.Aspect)
	plan, err := ComputeOutputRaster(s.Source.NaturalSize(), s.Viewport, s.Box, s.Offset, out)
	if err != nil {
		return s.fallback(fmt.Errorf("computing source region: %w", err))
	}

	img, err := s.Canvas.Rasterize(s.Source.Image, plan)
	if err != nil {
		return s.fallback(fmt.Errorf("drawing crop: %w", err))
	}

	data, err := Encode(img, s.Tuning.JPEGQuality)
	if err != nil {
		return s.fallback(err)
	}

	log.Debugf("crop %s: applied %s crop, source region %.1fx%.1f at (%.1f,%.1f) -> %dx%d",
		s.ID, s.Type, plan.Src.Width, plan.Src.Height, plan.Src.X, plan.Src.Y, out.X, out.Y)
	return Result{DataURI: DataURI(JPEGMime, data), Image: img}
}

func (s *Session) fallback(err error) Result {
	log.Printf("Error during cropping, keeping original image: %v", err)
	return Result{
		DataURI:  s.Source.DataURI,
		Image:    s.Source.Image,
		Fallback: true,
		Err:      err,
	}
}
