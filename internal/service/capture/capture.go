package capture

import (
	"errors"
	"facecam/internal/logger"
	"fmt"
	"runtime"

	"gocv.io/x/gocv"
)

const (
	// WarmupReads is the default number of discarded reads after opening a device.
	WarmupReads = 8
	// WarmupMinOK is the default number of successful warm-up reads required.
	WarmupMinOK = 4
)

// ErrDeviceUnavailable is returned when no backend candidate passed warm-up.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// Device is the subset of gocv.VideoCapture used by the recorder.
type Device interface {
	IsOpened() bool
	Set(prop gocv.VideoCaptureProperties, value float64)
	Get(prop gocv.VideoCaptureProperties) float64
	Read(frame *gocv.Mat) bool
	Close() error
}

// Backend describes one capture API candidate.
type Backend struct {
	Name string
	API  gocv.VideoCaptureAPI
}

// Opener opens source with the given backend. A device that reports
// unopened may be returned together with an error.
type Opener func(source string, backend Backend) (Device, error)

// Params holds the requested capture configuration.
type Params struct {
	Source      string
	Width       int
	Height      int
	FPS         float64
	WarmupReads int
	WarmupMinOK int
}

// Handle is an opened device together with its negotiated properties.
type Handle struct {
	Device  Device
	Backend Backend
	Width   int
	Height  int
	FPS     float64
}

// Read grabs the next frame into frame.
func (h *Handle) Read(frame *gocv.Mat) bool {
	return h.Device.Read(frame)
}

// Close releases the device.
func (h *Handle) Close() error {
	return h.Device.Close()
}

// DefaultBackends returns the ordered candidate list for the current platform:
// the platform-preferred API, a generic fallback and "any available".
func DefaultBackends() []Backend {
	switch runtime.GOOS {
	case "windows":
		return []Backend{
			{Name: "DSHOW", API: gocv.VideoCaptureDshow},
			{Name: "MSMF", API: gocv.VideoCaptureMSMF},
			{Name: "ANY", API: gocv.VideoCaptureAny},
		}
	case "darwin":
		return []Backend{
			{Name: "AVFOUNDATION", API: gocv.VideoCaptureAVFoundation},
			{Name: "FFMPEG", API: gocv.VideoCaptureFFmpeg},
			{Name: "ANY", API: gocv.VideoCaptureAny},
		}
	default:
		return []Backend{
			{Name: "V4L2", API: gocv.VideoCaptureV4L2},
			{Name: "GSTREAMER", API: gocv.VideoCaptureGstreamer},
			{Name: "ANY", API: gocv.VideoCaptureAny},
		}
	}
}

// Acquirer walks the backend list until a device passes warm-up.
type Acquirer struct {
	open     Opener
	backends []Backend
	logger   *logger.Logger
}

// NewAcquirer creates an Acquirer over an explicit backend list.
func NewAcquirer(open Opener, backends []Backend, logger *logger.Logger) *Acquirer {
	return &Acquirer{
		open:     open,
		backends: backends,
		logger:   logger,
	}
}

// Acquire returns the first backend whose device opens and delivers at least
// WarmupMinOK of WarmupReads frames. Rejected devices are released.
func (a *Acquirer) Acquire(params Params) (*Handle, error) {
	if params.WarmupReads <= 0 {
		params.WarmupReads = WarmupReads
	}
	if params.WarmupMinOK <= 0 {
		params.WarmupMinOK = WarmupMinOK
	}

	for _, backend := range a.backends {
		device, err := a.open(params.Source, backend)
		if err != nil || device == nil || !device.IsOpened() {
			if device != nil {
				device.Close()
			}
			a.logger.Warning("Backend %s could not open source %s: %v", backend.Name, params.Source, err)
			continue
		}

		configure(device, params)

		ok := warmup(device, params.WarmupReads)
		if ok < params.WarmupMinOK {
			a.logger.Warning("Backend %s delivered %d/%d warm-up frames, need %d", backend.Name, ok, params.WarmupReads, params.WarmupMinOK)
			device.Close()
			continue
		}

		handle := &Handle{
			Device:  device,
			Backend: backend,
			Width:   int(device.Get(gocv.VideoCaptureFrameWidth)),
			Height:  int(device.Get(gocv.VideoCaptureFrameHeight)),
			FPS:     fallbackFPS(device.Get(gocv.VideoCaptureFPS), params.FPS),
		}

		a.logger.Info("✅ Camera opened with backend %s (%dx%d @ %.1f fps, warm-up %d/%d)",
			backend.Name, handle.Width, handle.Height, handle.FPS, ok, params.WarmupReads)
		return handle, nil
	}

	return nil, fmt.Errorf("%w: tried %d backends for source %s", ErrDeviceUnavailable, len(a.backends), params.Source)
}

// configure applies the requested properties; devices may not honor them exactly.
func configure(device Device, params Params) {
	if params.Width > 0 {
		device.Set(gocv.VideoCaptureFrameWidth, float64(params.Width))
	}
	if params.Height > 0 {
		device.Set(gocv.VideoCaptureFrameHeight, float64(params.Height))
	}
	if params.FPS > 0 {
		device.Set(gocv.VideoCaptureFPS, params.FPS)
	}
}

// fallbackFPS replaces the invalid rates (<= 1) some cameras report.
func fallbackFPS(reported, requested float64) float64 {
	if reported <= 1 {
		return requested
	}
	return reported
}

// warmup performs n discarded reads and returns how many succeeded.
func warmup(device Device, n int) int {
	frame := gocv.NewMat()
	defer frame.Close()

	ok := 0
	for i := 0; i < n; i++ {
		if device.Read(&frame) {
			ok++
		}
	}
	return ok
}
