package websocket

import (
	"encoding/base64"
	"facecam/internal/logger"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/hybridgroup/mjpeg"
	"gocv.io/x/gocv"
)

// LiveView publishes annotated frames to websocket viewers and to an MJPEG
// stream. Frames are only encoded while somebody is watching.
type LiveView struct {
	hub     *HubService
	stream  *mjpeg.Stream
	viewers atomic.Int32 // aktywne połączenia MJPEG
	dropped atomic.Int64
	logger  *logger.Logger
}

func NewLiveView(hub *HubService, logger *logger.Logger) *LiveView {
	return &LiveView{
		hub:    hub,
		stream: mjpeg.NewStream(),
		logger: logger,
	}
}

// Publish encodes frame as JPEG and hands it to the viewers without blocking.
func (v *LiveView) Publish(session int, frame gocv.Mat) {
	toSockets := v.hub.GetClientCount() > 0
	toStream := v.viewers.Load() > 0
	if !toSockets && !toStream {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		v.logger.Error("Failed to encode live frame: %v", err)
		return
	}
	defer buf.Close()
	data := append([]byte(nil), buf.GetBytes()...)

	if toStream {
		v.stream.UpdateJPEG(data)
	}
	if toSockets {
		encoded := base64.StdEncoding.EncodeToString(data)
		msg := fmt.Sprintf(`{"session":%d,"image":"%s"}`, session, encoded)
		if !v.hub.Broadcast([]byte(msg)) {
			if n := v.dropped.Add(1); n%100 == 1 {
				v.logger.Warning("⚠️  Live view queue full - dropped %d frame(s) so far", n)
			}
		}
	}
}

// Dropped returns how many frames were skipped because the hub queue was full.
func (v *LiveView) Dropped() int64 {
	return v.dropped.Load()
}

// StreamHandler serves the MJPEG stream and tracks its viewers.
func (v *LiveView) StreamHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.viewers.Add(1)
		defer v.viewers.Add(-1)
		v.stream.ServeHTTP(w, r)
	})
}
