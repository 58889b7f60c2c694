package crop

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"sort"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/muesli/smartcrop"

	"github.com/dixieflatline76/courtside/util/log"
)

// Suggester proposes where the crop box should start: on a detected face for avatars
// when a face model is loaded, otherwise on the most salient region.
type Suggester struct {
	tuning    Tuning
	resampler imaging.ResampleFilter
	faces     *pigo.Pigo
}

// NewSuggester creates a suggester. An empty faceModel disables face detection.
func NewSuggester(tuning Tuning, faceModel []byte) (*Suggester, error) {
	sg := &Suggester{tuning: tuning, resampler: imaging.Lanczos}
	if len(faceModel) == 0 {
		return sg, nil
	}
	p := pigo.NewPigo()
	classifier, err := p.Unpack(faceModel)
	if err != nil {
		return nil, fmt.Errorf("unpacking face detection model: %w", err)
	}
	sg.faces = classifier
	return sg, nil
}

// LoadFaceModel reads a pigo cascade file. An empty path yields no model.
func LoadFaceModel(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading face detection model: %w", err)
	}
	return data, nil
}

// FaceDetection reports whether a face model is loaded.
func (sg *Suggester) FaceDetection() bool {
	return sg.faces != nil
}

// Suggest returns a region of img, in image coordinates, with the given aspect ratio.
func (sg *Suggester) Suggest(ctx context.Context, img image.Image, typ Type, aspect float64) (image.Rectangle, error) {
	if img == nil {
		return image.Rectangle{}, ErrNoSource
	}
	if !(aspect > 0) {
		return image.Rectangle{}, ErrInvalidAspect
	}
	if err := checkContext(ctx); err != nil {
		return image.Rectangle{}, err
	}

	if typ == Avatar && sg.faces != nil {
		if r, ok := sg.faceCrop(img, aspect); ok {
			log.Debugf("Suggester: face crop %v", r)
			return r, nil
		}
		log.Debugf("Suggester: no face found, falling back to saliency")
	}
	return sg.smartCrop(ctx, img, aspect)
}

// smartCrop runs smartcrop in a goroutine so the caller's context can cancel the wait.
func (sg *Suggester) smartCrop(ctx context.Context, img image.Image, aspect float64) (image.Rectangle, error) {
	w, h := aspectBox(img.Bounds(), aspect)
	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: sg.resampler})

	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		topCrop, err := analyzer.FindBestCrop(img, w, h)
		resultChan <- cropResult{crop: topCrop, err: err}
	}()

	select {
	case <-ctx.Done():
		return image.Rectangle{}, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return image.Rectangle{}, fmt.Errorf("finding best crop: %w", result.err)
		}
		return result.crop, nil
	}
}

// faceCrop centers an aspect-correct region on the most confident face.
func (sg *Suggester) faceCrop(img image.Image, aspect float64) (image.Rectangle, bool) {
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	minDim := math.Min(float64(cols), float64(rows))

	minSize := int(minDim * float64(sg.tuning.FaceMinSizePct) / 100)
	if minSize < 20 {
		minSize = 20
	}
	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     int(minDim),
		ShiftFactor: sg.tuning.FaceShiftFactor,
		ScaleFactor: sg.tuning.FaceScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := sg.faces.RunCascade(params, 0.0)
	dets = sg.faces.ClusterDetections(dets, sg.tuning.FaceIoUThreshold)

	var faces []pigo.Detection
	for _, d := range dets {
		if d.Q >= sg.tuning.FaceDetectConfidence {
			faces = append(faces, d)
		}
	}
	if len(faces) == 0 {
		return image.Rectangle{}, false
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].Q > faces[j].Q })
	face := faces[0]

	side := float64(face.Scale) * sg.tuning.FacePadding
	w, h := side, side
	if aspect >= 1 {
		w = side * aspect
	} else {
		h = side / aspect
	}
	// Never larger than the image while keeping the aspect ratio.
	if k := math.Min(float64(cols)/w, float64(rows)/h); k < 1 {
		w *= k
		h *= k
	}

	x := clamp(float64(face.Col)-w/2, 0, float64(cols)-w)
	y := clamp(float64(face.Row)-h/2, 0, float64(rows)-h)
	r := image.Rect(int(x), int(y), int(x+w), int(y+h)).Add(b.Min)
	return r, true
}

// aspectBox returns the largest width/height with the given aspect that fits in b.
func aspectBox(b image.Rectangle, aspect float64) (int, int) {
	w := float64(b.Dx())
	h := w / aspect
	if h > float64(b.Dy()) {
		h = float64(b.Dy())
		w = h * aspect
	}
	return int(math.Max(1, math.Round(w))), int(math.Max(1, math.Round(h)))
}

// resizer implements the smartcrop.Resizer interface with imaging.
type resizer struct {
	resampler imaging.ResampleFilter
}

// Resize doesn't take a context; smartcrop.Resizer does not support one.
func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
