package capture

import (
	"strconv"

	"gocv.io/x/gocv"
)

// videoCapture adapts *gocv.VideoCapture to Device.
type videoCapture struct {
	vc *gocv.VideoCapture
}

// OpenVideoCapture opens a camera index ("0") or a file/stream URL with the
// backend's API preference.
func OpenVideoCapture(source string, backend Backend) (Device, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, convErr := strconv.Atoi(source); convErr == nil {
		vc, err = gocv.VideoCaptureDeviceWithAPI(id, backend.API)
	} else {
		vc, err = gocv.VideoCaptureFileWithAPI(source, backend.API)
	}
	if err != nil {
		if vc != nil {
			vc.Close()
		}
		return nil, err
	}
	return &videoCapture{vc: vc}, nil
}

func (d *videoCapture) IsOpened() bool {
	return d.vc.IsOpened()
}

func (d *videoCapture) Set(prop gocv.VideoCaptureProperties, value float64) {
	d.vc.Set(prop, value)
}

func (d *videoCapture) Get(prop gocv.VideoCaptureProperties) float64 {
	return d.vc.Get(prop)
}

func (d *videoCapture) Read(frame *gocv.Mat) bool {
	return d.vc.Read(frame)
}

func (d *videoCapture) Close() error {
	return d.vc.Close()
}
