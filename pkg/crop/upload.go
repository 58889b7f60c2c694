package crop

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// ValidateUpload checks a selected file before any crop state is created.
// The MIME type must start with "image/" and the size must not exceed limit
// (MaxUploadBytes of the default tuning when limit is not positive).
func ValidateUpload(mime string, size, limit int64) error {
	if limit <= 0 {
		limit = DefaultTuning().MaxUploadBytes
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/") {
		return ErrNotImage
	}
	if size > limit {
		return ErrTooLarge
	}
	return nil
}

// LoadUpload validates and decodes an uploaded file into a crop Source.
// Validation runs before the body is read, so a rejected file leaves nothing behind.
// EXIF orientation is applied while decoding.
func LoadUpload(r io.Reader, mime string, size, limit int64) (Source, error) {
	if limit <= 0 {
		limit = DefaultTuning().MaxUploadBytes
	}
	if err := ValidateUpload(mime, size, limit); err != nil {
		return Source{}, err
	}

	// Declared sizes can lie; never read past the limit.
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Source{}, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > limit {
		return Source{}, ErrTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return Source{Image: img, DataURI: DataURI(mime, data), MIME: mime}, nil
}
