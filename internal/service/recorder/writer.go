package recorder

import (
	"errors"
	"facecam/internal/logger"
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// ErrWriterUnavailable is returned when no container/codec pair could be opened.
var ErrWriterUnavailable = errors.New("video writer unavailable")

// Writer is the subset of gocv.VideoWriter used by the recorder.
type Writer interface {
	Write(frame gocv.Mat) error
	IsOpened() bool
	Close() error
}

// Format is a container/codec pair, tried in list order.
type Format struct {
	Ext   string // rozszerzenie pliku, np. ".mp4"
	Codec string // FourCC
}

// DefaultFormats are mp4v in .mp4 first, then the more universal XVID in .avi.
func DefaultFormats() []Format {
	return []Format{
		{Ext: ".mp4", Codec: "mp4v"},
		{Ext: ".avi", Codec: "XVID"},
	}
}

// Opener opens a writer for path. A writer that reports unopened may be
// returned together with an error.
type Opener func(path, codec string, fps float64, width, height int) (Writer, error)

// Strategy opens a writer for a session, downgrading the format on failure.
type Strategy struct {
	open    Opener
	formats []Format
	logger  *logger.Logger
}

// NewStrategy creates a Strategy over an explicit format list.
func NewStrategy(open Opener, formats []Format, logger *logger.Logger) *Strategy {
	return &Strategy{
		open:    open,
		formats: formats,
		logger:  logger,
	}
}

// Open tries each format in order. The first format is opened at path as
// given; later ones at path with the extension swapped. It returns the
// writer and the path actually used.
func (s *Strategy) Open(path string, fps float64, width, height int) (Writer, string, error) {
	for i, format := range s.formats {
		target := path
		if i > 0 {
			target = SwapExt(path, format.Ext)
		}

		w, err := s.open(target, format.Codec, fps, width, height)
		if err == nil && w != nil && w.IsOpened() {
			if i > 0 {
				s.logger.Warning("Writer fell back to %s/%s: %s", format.Codec, format.Ext, target)
			}
			return w, target, nil
		}
		if w != nil {
			w.Close()
		}
		s.logger.Warning("Could not open %s writer at %s: %v", format.Codec, target, err)
	}

	return nil, "", fmt.Errorf("%w: %s", ErrWriterUnavailable, path)
}

// SwapExt replaces the extension of path with ext.
func SwapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
