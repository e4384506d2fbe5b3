package session

import (
	"context"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository"
	"facecam/internal/service/ai"
	"facecam/internal/service/capture"
	"facecam/internal/service/dedup"
	"facecam/internal/service/overlay"
	"facecam/internal/service/preview"
	"facecam/internal/service/recorder"
	"facecam/internal/service/storage"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Duration is the default length of one recording session.
const Duration = 180 * time.Minute

// Reason tells why a run ended.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUserStop
	ReasonReadFailure
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonUserStop:
		return "stopped by user"
	case ReasonReadFailure:
		return "frame read failure"
	case ReasonCancelled:
		return "cancelled"
	}
	return "none"
}

// Acquirer opens the capture device.
type Acquirer interface {
	Acquire(params capture.Params) (*capture.Handle, error)
}

// WriterOpener opens the writer of one session.
type WriterOpener interface {
	Open(path string, fps float64, width, height int) (recorder.Writer, string, error)
}

// FaceSaver persists accepted crops and is told which run and session they belong to.
type FaceSaver interface {
	dedup.Saver
	SetRun(runID string)
	SetSession(number int)
}

// Publisher receives annotated frames for live viewers. It must not block.
type Publisher interface {
	Publish(session int, frame gocv.Mat)
}

// Options configures a Manager.
type Options struct {
	Capture      capture.Params
	RecordingDir string
	// Ext is the container extension used to build session paths; the
	// writer strategy may swap it.
	Ext           string
	Duration      time.Duration
	Policy        Policy
	PublishEvery  int
	GridSize      int
	Cooldown      time.Duration
	Padding       int
	CooldownTable dedup.CooldownTable
}

// Deps are the collaborators of a Manager. Sessions, Preview and Publisher
// are optional.
type Deps struct {
	Acquirer  Acquirer
	Writers   WriterOpener
	Detector  ai.Detector
	Faces     FaceSaver
	Sessions  repository.SessionRepository
	Preview   preview.Preview
	Publisher Publisher
	Clock     clock.Clock
}

// Summary holds the totals of a finished run.
type Summary struct {
	RunID      string
	Sessions   int
	FacesSaved int
	Frames     int
	Reason     Reason
}

// Snapshot is the live state of a run, safe to read from other goroutines.
type Snapshot struct {
	RunID      string        `json:"run_id"`
	Session    int           `json:"session"`
	FilePath   string        `json:"filepath"`
	FacesSaved int           `json:"faces_saved"`
	Frames     int           `json:"frames"`
	Detecting  int           `json:"detecting"`
	Tracked    int           `json:"tracked_buckets"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Running    bool          `json:"running"`
}

// Manager drives the frame loop: one device, one writer at a time, sessions
// rotated after a fixed wall-clock duration.
type Manager struct {
	deps   Deps
	opts   Options
	grid   *dedup.Grid
	logger *logger.Logger

	runID        string
	sessionCount int
	faceCount    int
	frameCount   int

	statsMu sync.RWMutex
	stats   Snapshot
}

// NewManager creates a Manager. A nil clock means the wall clock and a nil
// preview means headless operation.
func NewManager(deps Deps, opts Options, logger *logger.Logger) *Manager {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Preview == nil {
		deps.Preview = preview.Headless{}
	}
	if opts.Policy == nil {
		opts.Policy = EndRunOnReadFailure
	}
	if opts.Duration <= 0 {
		opts.Duration = Duration
	}
	if opts.Ext == "" {
		opts.Ext = recorder.DefaultFormats()[0].Ext
	}
	if opts.PublishEvery < 1 {
		opts.PublishEvery = 1
	}
	if opts.CooldownTable == nil {
		opts.CooldownTable = dedup.NewMapTable()
	}

	return &Manager{
		deps:   deps,
		opts:   opts,
		grid:   dedup.NewGrid(opts.CooldownTable, deps.Faces, opts.GridSize, opts.Cooldown, opts.Padding, logger),
		logger: logger,
		runID:  uuid.NewString(),
	}
}

// RunID identifies this run in the database.
func (m *Manager) RunID() string {
	return m.runID
}

// Snapshot returns the latest live state.
func (m *Manager) Snapshot() Snapshot {
	m.statsMu.RLock()
	defer m.statsMu.RUnlock()
	return m.stats
}

// Run acquires the device and records sessions until the run ends. Device
// and writer are released on every path. A non-nil error wraps
// capture.ErrDeviceUnavailable or recorder.ErrWriterUnavailable.
func (m *Manager) Run(ctx context.Context) (Summary, error) {
	m.deps.Faces.SetRun(m.runID)

	handle, err := m.deps.Acquirer.Acquire(m.opts.Capture)
	if err != nil {
		return m.summary(ReasonNone), err
	}
	defer func() {
		if err := handle.Close(); err != nil {
			m.logger.Warning("Failed to release capture device: %v", err)
		}
		m.setRunning(false)
	}()

	m.logger.Info("📷 Capture %dx%d @ %.1f fps via %s", handle.Width, handle.Height, handle.FPS, handle.Backend.Name)
	m.logger.Info("%s", strings.Repeat("=", 50))
	m.logger.Info("Recording %s sessions (with overlay)", m.opts.Duration)
	m.logger.Info("%s", strings.Repeat("=", 50))
	m.setRunning(true)

	for {
		reason, frames, err := m.runSession(ctx, handle)
		if err != nil {
			return m.summary(ReasonNone), err
		}

		switch reason {
		case ReasonNone:
			// rotation; the stop key is polled once more between sessions
			if preview.IsStopKey(m.deps.Preview.PollKey()) {
				m.logger.Info("⏹ Stopped by user.")
				return m.summary(ReasonUserStop), nil
			}
		case ReasonReadFailure:
			if !m.opts.Policy.ContinueAfterReadFailure(frames) {
				return m.summary(reason), nil
			}
			m.logger.Warning("⚠️ Read failure policy %s: starting next session", m.opts.Policy.Name())
		default:
			return m.summary(reason), nil
		}
	}
}

// runSession records one session. It returns ReasonNone on rotation.
func (m *Manager) runSession(ctx context.Context, handle *capture.Handle) (Reason, int, error) {
	m.sessionCount++
	number := m.sessionCount
	startedAt := m.deps.Clock.Now()

	path := filepath.Join(m.opts.RecordingDir, storage.SessionFilename(number, startedAt, m.opts.Ext))
	writer, finalPath, err := m.deps.Writers.Open(path, handle.FPS, handle.Width, handle.Height)
	if err != nil {
		return ReasonNone, 0, fmt.Errorf("session %d: %w", number, err)
	}

	m.deps.Faces.SetSession(number)
	record := &model.Session{RunID: m.runID, Number: number, StartedAt: startedAt, FilePath: finalPath}
	if m.deps.Sessions != nil {
		if _, err := m.deps.Sessions.Start(record); err != nil {
			m.logger.Error("Error saving session to database: %v", err)
		}
	}

	m.logger.Info("Session %d - Recording → %s", number, finalPath)
	savedBefore := m.faceCount

	reason, frames := m.loop(ctx, handle, writer, number, finalPath, startedAt)

	if err := writer.Close(); err != nil {
		m.logger.Error("Failed to close writer for %s: %v", finalPath, err)
	}

	switch reason {
	case ReasonNone:
		m.logger.Info("⏱ Session %d complete (%s), starting next session.", number, m.opts.Duration)
	case ReasonReadFailure:
		m.logger.Warning("⚠️ Frame grab failed in session %d after %d frames", number, frames)
	case ReasonUserStop:
		m.logger.Info("⏹ Stopped by user.")
	case ReasonCancelled:
		m.logger.Info("⏹ Run cancelled.")
	}
	m.logger.Info("✅ Session %d saved: %s", number, finalPath)

	if m.deps.Sessions != nil {
		record.EndedAt = m.deps.Clock.Now()
		record.Frames = frames
		record.FacesSaved = m.faceCount - savedBefore
		if err := m.deps.Sessions.Finish(record); err != nil {
			m.logger.Error("Error updating session in database: %v", err)
		}
	}

	return reason, frames, nil
}

// loop processes frames until the session ends and returns why it ended
// together with the number of frames written.
func (m *Manager) loop(ctx context.Context, handle *capture.Handle, writer recorder.Writer, number int, path string, startedAt time.Time) (Reason, int) {
	frame := gocv.NewMat()
	defer frame.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	frames := 0
	for {
		if ctx.Err() != nil {
			return ReasonCancelled, frames
		}

		if !handle.Read(&frame) || frame.Empty() {
			return ReasonReadFailure, frames
		}
		now := m.deps.Clock.Now()

		var detections []image.Rectangle
		if err := ai.ToGray(frame, &gray); err != nil {
			m.logger.Error("Skipping detection: %v", err)
		} else {
			detections = m.deps.Detector.Detect(gray)
		}

		decisions := m.grid.Classify(frame, detections, now, &m.faceCount)
		elapsed := now.Sub(startedAt)

		err := overlay.Render(&frame, decisions, overlay.Stats{
			TotalSaved: m.faceCount,
			Detecting:  len(detections),
			Elapsed:    elapsed,
		})
		if err != nil {
			m.logger.Warning("Overlay failed: %v", err)
		}

		if err := writer.Write(frame); err != nil {
			m.logger.Error("Failed to write frame to %s: %v", path, err)
		}
		frames++
		m.frameCount++

		m.deps.Preview.Show(frame)
		if m.deps.Publisher != nil && frames%m.opts.PublishEvery == 0 {
			m.deps.Publisher.Publish(number, frame)
		}
		m.updateStats(number, path, len(detections), elapsed)

		if preview.IsStopKey(m.deps.Preview.PollKey()) {
			return ReasonUserStop, frames
		}
		if m.deps.Clock.Since(startedAt) >= m.opts.Duration {
			return ReasonNone, frames
		}
	}
}

func (m *Manager) updateStats(number int, path string, detecting int, elapsed time.Duration) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	m.stats = Snapshot{
		RunID:      m.runID,
		Session:    number,
		FilePath:   path,
		FacesSaved: m.faceCount,
		Frames:     m.frameCount,
		Detecting:  detecting,
		Tracked:    m.grid.Tracked(),
		Elapsed:    elapsed,
		Running:    true,
	}
}

func (m *Manager) setRunning(running bool) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	m.stats.RunID = m.runID
	m.stats.Running = running
}

func (m *Manager) summary(reason Reason) Summary {
	return Summary{
		RunID:      m.runID,
		Sessions:   m.sessionCount,
		FacesSaved: m.faceCount,
		Frames:     m.frameCount,
		Reason:     reason,
	}
}
