package preview

import (
	"gocv.io/x/gocv"
)

// Title of the preview window.
const Title = "Recording with Overlay (Q=Stop)"

// NoKey is returned by PollKey when nothing was pressed.
const NoKey = -1

const keyEscape = 27

// Preview shows annotated frames and reports key presses.
type Preview interface {
	Show(frame gocv.Mat)
	// PollKey waits at most one millisecond for a key press.
	PollKey() int
	Close() error
}

// Window is a preview backed by a native OpenCV window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a native window titled title.
func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

func (w *Window) Show(frame gocv.Mat) {
	w.window.IMShow(frame)
}

func (w *Window) PollKey() int {
	return w.window.WaitKey(1)
}

func (w *Window) Close() error {
	return w.window.Close()
}

// Headless discards frames; it never reports a key.
type Headless struct{}

func (Headless) Show(gocv.Mat) {}

func (Headless) PollKey() int { return NoKey }

func (Headless) Close() error { return nil }

// IsStopKey reports whether key asks to end the run: q, Q or ESC.
func IsStopKey(key int) bool {
	if key < 0 {
		return false
	}
	switch key & 0xFF {
	case 'q', 'Q', keyEscape:
		return true
	}
	return false
}
