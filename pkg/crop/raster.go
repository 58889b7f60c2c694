package crop

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// RasterPlan describes one draw call: the region of the source image to sample,
// in natural pixels relative to the image origin, and the destination raster.
type RasterPlan struct {
	Src Rect
	Dst image.Rectangle
}

// ComputeOutputRaster maps a crop box on screen back to the source image.
//
// The ratio between natural and displayed size is taken per axis from the viewport.
// The image offset is subtracted from the box origin. Scale and rotation are applied
// to the preview only and do not take part in this mapping.
func ComputeOutputRaster(natural, viewport Size, box Rect, offset Point, out image.Point) (RasterPlan, error) {
	if out.X <= 0 || out.Y <= 0 {
		return RasterPlan{}, ErrEmptyOutput
	}
	if viewport.Empty() {
		return RasterPlan{}, ErrViewportUnmeasured
	}
	if natural.Empty() {
		return RasterPlan{}, ErrNoSource
	}

	scaleX := natural.Width / viewport.Width
	scaleY := natural.Height / viewport.Height

	src := Rect{
		X:      (box.X - offset.X) * scaleX,
		Y:      (box.Y - offset.Y) * scaleY,
		Width:  box.Width * scaleX,
		Height: box.Height * scaleY,
	}
	if !finite(src.X, src.Y, src.Width, src.Height) {
		return RasterPlan{}, fmt.Errorf("source region is not finite: %+v", src)
	}
	return RasterPlan{Src: src, Dst: image.Rect(0, 0, out.X, out.Y)}, nil
}

// Rasterizer draws a plan into a new raster. It stands in for the drawing surface.
type Rasterizer interface {
	Rasterize(img image.Image, plan RasterPlan) (image.Image, error)
}

// DrawRasterizer rasterizes with golang.org/x/image/draw.
type DrawRasterizer struct {
	Interpolator xdraw.Interpolator
}

// NewDrawRasterizer returns a rasterizer using Catmull-Rom resampling.
func NewDrawRasterizer() *DrawRasterizer {
	return &DrawRasterizer{Interpolator: xdraw.CatmullRom}
}

// Rasterize draws the plan with the rasterizer's interpolator.
func (d *DrawRasterizer) Rasterize(img image.Image, plan RasterPlan) (image.Image, error) {
	out, err := render(d.Interpolator, img, plan)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// render behaves like a canvas drawImage call on a freshly cleared canvas: the source
// region is clipped to the image bounds and the clipped part lands in the matching
// share of the destination. Anything outside the image stays transparent.
func render(interp xdraw.Interpolator, img image.Image, plan RasterPlan) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNoSource
	}
	if plan.Dst.Empty() {
		return nil, ErrEmptyOutput
	}
	dst := image.NewRGBA(plan.Dst)

	src := plan.Src
	if !(src.Width > 0) || !(src.Height > 0) {
		return dst, nil
	}

	b := img.Bounds()
	x0 := math.Max(src.X, 0)
	y0 := math.Max(src.Y, 0)
	x1 := math.Min(src.X+src.Width, float64(b.Dx()))
	y1 := math.Min(src.Y+src.Height, float64(b.Dy()))
	if x1 <= x0 || y1 <= y0 {
		return dst, nil
	}

	kx := float64(plan.Dst.Dx()) / src.Width
	ky := float64(plan.Dst.Dy()) / src.Height
	dr := image.Rect(
		plan.Dst.Min.X+int(math.Round((x0-src.X)*kx)),
		plan.Dst.Min.Y+int(math.Round((y0-src.Y)*ky)),
		plan.Dst.Min.X+int(math.Round((x1-src.X)*kx)),
		plan.Dst.Min.Y+int(math.Round((y1-src.Y)*ky)),
	).Intersect(plan.Dst)
	sr := image.Rect(
		b.Min.X+int(math.Floor(x0)),
		b.Min.Y+int(math.Floor(y0)),
		b.Min.X+int(math.Ceil(x1)),
		b.Min.Y+int(math.Ceil(y1)),
	).Intersect(b)
	if dr.Empty() || sr.Empty() {
		return dst, nil
	}

	if interp == nil {
		interp = xdraw.CatmullRom
	}
	interp.Scale(dst, dr, img, sr, xdraw.Src, nil)
	return dst, nil
}
