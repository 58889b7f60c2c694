package crop

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
)

// Type selects the fixed output preset of a crop.
type Type string

const (
	// Avatar crops produce a square 256x256 raster.
	Avatar Type = "avatar"
	// Cover crops produce a 1200px wide raster at the requested aspect ratio.
	Cover Type = "cover"
)

const (
	AvatarSize  = 256
	CoverWidth  = 1200
	JPEGMime    = "image/jpeg"
	dataURIHead = "data:"
)

// DefaultCoverAspect is used when a cover crop is requested without an aspect ratio.
const DefaultCoverAspect = 3.0

// Viewport presets of the on-screen crop container, in device pixels.
var (
	AvatarViewport = Size{Width: 400, Height: 400}
	CoverViewport  = Size{Width: 600, Height: 300}
)

// Sentinel errors. Validation errors carry the user-facing message.
var (
	ErrNotImage           = errors.New("please select an image file")
	ErrTooLarge           = errors.New("image size must be less than 5MB")
	ErrDecode             = errors.New("image could not be decoded")
	ErrNoSource           = errors.New("no source image")
	ErrNoCanvas           = errors.New("no raster surface available")
	ErrSessionClosed      = errors.New("crop session is closed")
	ErrEmptyOutput        = errors.New("output raster has no area")
	ErrViewportUnmeasured = errors.New("viewport has not been measured")
	ErrUnknownType        = errors.New("unknown crop type")
	ErrInvalidAspect      = errors.New("aspect ratio must be positive")
)

// ParseType converts a user supplied string to a crop Type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Avatar:
		return Avatar, nil
	case Cover:
		return Cover, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// OutputSize returns the fixed destination raster size for a crop type.
// It is never derived from the crop box. A cover with a non-positive aspect has no area.
func OutputSize(t Type, aspect float64) image.Point {
	if t == Avatar {
		return image.Pt(AvatarSize, AvatarSize)
	}
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		return image.Point{}
	}
	return image.Pt(CoverWidth, int(math.Round(CoverWidth/aspect)))
}

// DefaultAspect returns the aspect ratio used for t when the caller gives none.
func DefaultAspect(t Type) float64 {
	if t == Avatar {
		return 1
	}
	return DefaultCoverAspect
}

// DefaultViewport returns the preview container size used for a crop type.
func DefaultViewport(t Type) Size {
	if t == Avatar {
		return AvatarViewport
	}
	return CoverViewport
}
