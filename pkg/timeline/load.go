package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dixieflatline76/courtside/util/log"
)

// Format is the encoding of a track file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for unsupported track file encodings.
var ErrUnknownFormat = errors.New("unknown track file format")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// File is the on-disk shape of a track file.
type File struct {
	Options *Options `json:"options,omitempty" yaml:"options,omitempty"`
	Tracks  []Track  `json:"tracks" yaml:"tracks"`
}

// LoadTracks decodes a track file. Tracks and events without ids get generated ones;
// unknown kinds and malformed dates are kept and logged.
func LoadTracks(r io.Reader, format Format) (File, error) {
	var f File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("error parsing track file: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("error parsing track file: %w", err)
		}
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	for i := range f.Tracks {
		t := &f.Tracks[i]
		if t.ID == "" {
			t.ID = newID()
		}
		if t.Color == "" {
			t.Color = DefaultPlayerColor
			if t.IsCurrentUser {
				t.Color = CurrentUserColor
			}
		}
		for j := range t.Events {
			e := &t.Events[j]
			if e.ID == "" {
				e.ID = newID()
			}
			if !e.Kind.Known() {
				log.Debugf("track %s: event %q has unknown kind %q, drawn as %s", t.ID, e.Label, e.Kind, KindEvent)
			}
			if _, ok := e.Time(); !ok {
				log.Printf("track %s: event %q has malformed date %q and will not be placed", t.ID, e.Label, e.Date)
			}
		}
	}
	return f, nil
}

// LoadTrackFile opens and decodes a track file, picking the format from its extension.
func LoadTrackFile(path string) (File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return File{}, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("error reading track file: %w", err)
	}
	defer fh.Close()
	return LoadTracks(fh, format)
}
