package crop

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

var (
	previewBackground = color.NRGBA{R: 243, G: 244, B: 246, A: 255}
	previewShade      = color.NRGBA{A: 128}
)

// Preview renders what the user sees in the crop container: the source fitted with
// object-contain, then scaled, rotated clockwise and translated about its center,
// with the area outside the crop box shaded.
func Preview(s *Session) (*image.NRGBA, error) {
	if s.Source.Image == nil {
		return nil, ErrNoSource
	}
	if s.Viewport.Empty() {
		return nil, ErrViewportUnmeasured
	}
	vw := int(math.Round(s.Viewport.Width))
	vh := int(math.Round(s.Viewport.Height))

	fitW, fitH := containSize(s.Source.NaturalSize(), s.Viewport)
	w := int(math.Round(fitW * s.Scale))
	h := int(math.Round(fitH * s.Scale))
	if w < 1 || h < 1 {
		return nil, ErrEmptyOutput
	}
	img := imaging.Resize(s.Source.Image, w, h, imaging.Linear)

	// imaging rotates counter-clockwise; CSS rotate() turns clockwise.
	switch s.Rotation {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}

	// translate() is applied inside the scaled, rotated frame.
	d := rotateCW(Point{X: s.Offset.X * s.Scale, Y: s.Offset.Y * s.Scale}, s.Rotation)
	b := img.Bounds()
	pos := image.Pt(
		int(math.Round((float64(vw)-float64(b.Dx()))/2+d.X)),
		int(math.Round((float64(vh)-float64(b.Dy()))/2+d.Y)),
	)

	canvas := imaging.New(vw, vh, previewBackground)
	canvas = imaging.Paste(canvas, img, pos)
	shadeOutside(canvas, s.Box)
	return canvas, nil
}

// containSize fits natural into view preserving aspect ratio.
func containSize(natural, view Size) (float64, float64) {
	if natural.Empty() {
		return 0, 0
	}
	k := math.Min(view.Width/natural.Width, view.Height/natural.Height)
	return natural.Width * k, natural.Height * k
}

// rotateCW rotates p clockwise on screen (y grows downwards) by deg degrees.
func rotateCW(p Point, deg int) Point {
	switch deg {
	case 90:
		return Point{X: -p.Y, Y: p.X}
	case 180:
		return Point{X: -p.X, Y: -p.Y}
	case 270:
		return Point{X: p.Y, Y: -p.X}
	default:
		return p
	}
}

func shadeOutside(dst *image.NRGBA, box Rect) {
	if !(box.Width > 0) || !(box.Height > 0) {
		return
	}
	b := dst.Bounds()
	inner := image.Rect(
		int(math.Round(box.X)), int(math.Round(box.Y)),
		int(math.Round(box.X+box.Width)), int(math.Round(box.Y+box.Height)),
	).Intersect(b)
	shade := image.NewUniform(previewShade)
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, inner.Min.Y),
		image.Rect(b.Min.X, inner.Max.Y, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),
		image.Rect(inner.Max.X, inner.Min.Y, b.Max.X, inner.Max.Y),
	} {
		if !r.Empty() {
			draw.Draw(dst, r, shade, image.Point{}, draw.Over)
		}
	}
}
