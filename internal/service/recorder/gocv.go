package recorder

import (
	"gocv.io/x/gocv"
)

// videoWriter adapts *gocv.VideoWriter to Writer.
type videoWriter struct {
	vw *gocv.VideoWriter
}

// OpenVideoWriter opens a color video file with the given FourCC codec.
func OpenVideoWriter(path, codec string, fps float64, width, height int) (Writer, error) {
	vw, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		if vw != nil {
			vw.Close()
		}
		return nil, err
	}
	return &videoWriter{vw: vw}, nil
}

func (w *videoWriter) Write(frame gocv.Mat) error {
	return w.vw.Write(frame)
}

func (w *videoWriter) IsOpened() bool {
	return w.vw.IsOpened()
}

func (w *videoWriter) Close() error {
	return w.vw.Close()
}
