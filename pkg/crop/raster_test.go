package crop

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeOutputRaster(t *testing.T) {
	tests := []struct {
		name     string
		natural  Size
		viewport Size
		box      Rect
		offset   Point
		out      image.Point
		wantSrc  Rect
	}{
		{
			name:     "avatar without offset",
			natural:  Size{Width: 2000, Height: 2000},
			viewport: AvatarViewport,
			box:      Rect{X: 40, Y: 40, Width: 320, Height: 320},
			out:      image.Pt(256, 256),
			wantSrc:  Rect{X: 200, Y: 200, Width: 1600, Height: 1600},
		},
		{
			name:     "offset is subtracted from the box origin",
			natural:  Size{Width: 2000, Height: 2000},
			viewport: AvatarViewport,
			box:      Rect{X: 40, Y: 40, Width: 320, Height: 320},
			offset:   Point{X: 20, Y: -10},
			out:      image.Pt(256, 256),
			wantSrc:  Rect{X: 100, Y: 250, Width: 1600, Height: 1600},
		},
		{
			name:     "per axis ratio",
			natural:  Size{Width: 1200, Height: 300},
			viewport: CoverViewport,
			box:      Rect{X: 60, Y: 70, Width: 480, Height: 160},
			out:      image.Pt(1200, 400),
			wantSrc:  Rect{X: 120, Y: 70, Width: 960, Height: 160},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ComputeOutputRaster(tt.natural, tt.viewport, tt.box, tt.offset, tt.out)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantSrc.X, plan.Src.X, 1e-9)
			assert.InDelta(t, tt.wantSrc.Y, plan.Src.Y, 1e-9)
			assert.InDelta(t, tt.wantSrc.Width, plan.Src.Width, 1e-9)
			assert.InDelta(t, tt.wantSrc.Height, plan.Src.Height, 1e-9)
			assert.Equal(t, image.Rect(0, 0, tt.out.X, tt.out.Y), plan.Dst)
		})
	}
}

func TestComputeOutputRaster_Errors(t *testing.T) {
	natural := Size{Width: 100, Height: 100}
	box := Rect{Width: 10, Height: 10}

	_, err := ComputeOutputRaster(natural, AvatarViewport, box, Point{}, image.Point{})
	assert.ErrorIs(t, err, ErrEmptyOutput)

	_, err = ComputeOutputRaster(natural, Size{}, box, Point{}, image.Pt(256, 256))
	assert.ErrorIs(t, err, ErrViewportUnmeasured)

	_, err = ComputeOutputRaster(Size{}, AvatarViewport, box, Point{}, image.Pt(256, 256))
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = ComputeOutputRaster(natural, AvatarViewport, Rect{X: math.Inf(1), Width: 10, Height: 10}, Point{}, image.Pt(256, 256))
	assert.Error(t, err)
}

func TestOutputSize(t *testing.T) {
	assert.Equal(t, image.Pt(256, 256), OutputSize(Avatar, 3))
	assert.Equal(t, image.Pt(1200, 400), OutputSize(Cover, 3))
	assert.Equal(t, image.Pt(1200, 675), OutputSize(Cover, 16.0/9.0))
	assert.Equal(t, image.Point{}, OutputSize(Cover, 0))
}

func TestDrawRasterizer_FullImage(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	img := imaging.New(100, 100, red)

	out, err := NewDrawRasterizer().Rasterize(img, RasterPlan{
		Src: Rect{Width: 100, Height: 100},
		Dst: image.Rect(0, 0, 50, 50),
	})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())

	r, g, _, a := out.At(25, 25).RGBA()
	assert.InDelta(t, 0xffff, r, 0x101)
	assert.InDelta(t, 0, g, 0x101)
	assert.InDelta(t, 0xffff, a, 0x101)
}

func TestDrawRasterizer_OutsideImageStaysTransparent(t *testing.T) {
	img := imaging.New(100, 100, color.NRGBA{G: 255, A: 255})

	// Left half of the source region lies outside the image.
	out, err := NewDrawRasterizer().Rasterize(img, RasterPlan{
		Src: Rect{X: -50, Y: 0, Width: 100, Height: 100},
		Dst: image.Rect(0, 0, 100, 100),
	})
	require.NoError(t, err)

	_, _, _, a := out.At(20, 50).RGBA()
	assert.Equal(t, uint32(0), a)

	_, g, _, a := out.At(80, 50).RGBA()
	assert.InDelta(t, 0xffff, g, 0x101)
	assert.InDelta(t, 0xffff, a, 0x101)
}

func TestDrawRasterizer_EmptyRegion(t *testing.T) {
	img := imaging.New(10, 10, color.White)

	out, err := NewDrawRasterizer().Rasterize(img, RasterPlan{Dst: image.Rect(0, 0, 8, 8)})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), out.Bounds())
	_, _, _, a := out.At(4, 4).RGBA()
	assert.Equal(t, uint32(0), a)

	_, err = NewDrawRasterizer().Rasterize(nil, RasterPlan{Dst: image.Rect(0, 0, 8, 8)})
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = NewDrawRasterizer().Rasterize(img, RasterPlan{Src: Rect{Width: 1, Height: 1}})
	assert.ErrorIs(t, err, ErrEmptyOutput)
}
