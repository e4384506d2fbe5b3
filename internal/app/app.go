package app

import (
	"context"
	"errors"
	"facecam/internal/config"
	"facecam/internal/logger"
	"facecam/internal/repository/sqlite"
	"facecam/internal/route"
	"facecam/internal/service/ai"
	"facecam/internal/service/capture"
	"facecam/internal/service/dedup"
	"facecam/internal/service/preview"
	"facecam/internal/service/recorder"
	"facecam/internal/service/session"
	"facecam/internal/service/storage"
	"facecam/internal/service/websocket"
	"fmt"
	"net/http"
	"path/filepath"
	"time"
)

// App wires the recorder together with its storage and optional live view.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	detector *ai.CascadeDetector
	preview  preview.Preview
	manager  *session.Manager
	hub      *websocket.HubService
	view     *websocket.LiveView
	server   *http.Server
}

// NewApp prepares directories, the database, the detector and the session
// manager. Nothing is opened on the capture device yet.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := storage.EnsureDirs(cfg.RecordingDirectory, cfg.FaceDirectory, filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	faceRepo := sqlite.NewFaceRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	detector, err := ai.NewCascadeDetector(cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	policy, err := session.PolicyByName(cfg.ReadFailurePolicy)
	if err != nil {
		detector.Close()
		db.Close()
		return nil, err
	}

	var table dedup.CooldownTable = dedup.NewMapTable()
	if cfg.CooldownRetention > 0 {
		table = dedup.NewExpiringTable(cfg.CooldownRetention)
	}

	a := &App{
		config:   cfg,
		logger:   log,
		db:       db,
		detector: detector,
		preview:  preview.Headless{},
	}
	if cfg.PreviewWindow {
		a.preview = preview.NewWindow(preview.Title)
	}

	deps := session.Deps{
		Acquirer: capture.NewAcquirer(capture.OpenVideoCapture, capture.DefaultBackends(), log),
		Writers:  recorder.NewStrategy(recorder.OpenVideoWriter, recorder.DefaultFormats(), log),
		Detector: detector,
		Faces:    storage.NewFaceStore(cfg, log, faceRepo),
		Sessions: sessionRepo,
		Preview:  a.preview,
	}

	if cfg.LiveViewPort > 0 {
		a.hub = websocket.NewHubService(log)
		a.view = websocket.NewLiveView(a.hub, log)
		deps.Publisher = a.view
	}

	a.manager = session.NewManager(deps, session.Options{
		Capture: capture.Params{
			Source:      cfg.CaptureSource,
			Width:       cfg.CaptureWidth,
			Height:      cfg.CaptureHeight,
			FPS:         cfg.CaptureFPS,
			WarmupReads: cfg.WarmupReads,
			WarmupMinOK: cfg.WarmupMinOK,
		},
		RecordingDir:  cfg.RecordingDirectory,
		Duration:      cfg.SessionDuration,
		Policy:        policy,
		PublishEvery:  cfg.LiveViewInterval,
		GridSize:      cfg.GridSize,
		Cooldown:      cfg.Cooldown,
		Padding:       cfg.CropPadding,
		CooldownTable: table,
	}, log)

	if a.hub != nil {
		stores := route.Stores{Faces: faceRepo, Sessions: sessionRepo, FacesDir: cfg.FaceDirectory}
		router := route.SetupRoutes(a.hub, a.view, a.manager, stores, cfg.LiveViewPassword, log)
		a.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.LiveViewPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return a, nil
}

// Run records until the run ends and shuts the live view down afterwards.
func (a *App) Run(ctx context.Context) (session.Summary, error) {
	if a.server != nil {
		hubCtx, stopHub := context.WithCancel(context.Background())
		defer stopHub()
		go a.hub.Run(hubCtx)

		go func() {
			a.logger.Info("🌐 Live view on http://localhost%s (stream: /stream.mjpeg)", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Live view server failed: %v", err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Warning("Live view shutdown: %v", err)
			}
		}()
	}

	a.logger.Info("🚀 Face recorder")
	a.logger.Info("📁 Recordings: %s", a.config.RecordingDirectory)
	a.logger.Info("📁 Faces: %s", a.config.FaceDirectory)
	a.logger.Info("🤖 Cascade: %s", a.config.CascadePath)

	return a.manager.Run(ctx)
}

// Close releases the preview window, detector and database.
func (a *App) Close() error {
	var errs []error
	if err := a.preview.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.detector.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
