package main

import (
	"context"
	"facecam/internal/app"
	"facecam/internal/config"
	"facecam/internal/logger"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record sessions until stopped",
	Long: `Record opens the camera, then records sessions of SESSION_MINUTES each until
q/ESC is pressed in the preview window, the process receives SIGINT/SIGTERM,
or a frame read fails.

Examples:
  # Default camera, 3-hour sessions, preview window
  facecam record

  # Headless with a live view on :8080
  facecam record --headless --live-port 8080

  # Keep recording after a dropped frame
  facecam record --policy next-session`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().String("source", "", "Camera index or video path/URL (CAPTURE_SOURCE)")
	recordCmd.Flags().Int("width", 0, "Requested frame width (CAPTURE_WIDTH)")
	recordCmd.Flags().Int("height", 0, "Requested frame height (CAPTURE_HEIGHT)")
	recordCmd.Flags().Float64("fps", 0, "Requested frame rate (CAPTURE_FPS)")
	recordCmd.Flags().Int("session-minutes", 0, "Session length in minutes (SESSION_MINUTES)")
	recordCmd.Flags().String("cascade", "", "Haar cascade XML (CASCADE_PATH)")
	recordCmd.Flags().String("recordings", "", "Session video directory (RECORDING_DIR)")
	recordCmd.Flags().String("faces", "", "Face crop directory (FACE_DIR)")
	recordCmd.Flags().String("policy", "", "Read failure policy: end-run or next-session (READ_FAILURE_POLICY)")
	recordCmd.Flags().Bool("headless", false, "Disable the preview window (PREVIEW_WINDOW=false)")
	recordCmd.Flags().Int("live-port", 0, "Serve the live view on this port (LIVE_VIEW_PORT)")
}

// applyRecordFlags overrides cfg with the flags given on the command line.
func applyRecordFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("source") {
		cfg.CaptureSource = mustGetString(cmd, "source")
	}
	if changed("width") {
		cfg.CaptureWidth = mustGetInt(cmd, "width")
	}
	if changed("height") {
		cfg.CaptureHeight = mustGetInt(cmd, "height")
	}
	if changed("fps") {
		cfg.CaptureFPS = mustGetFloat64(cmd, "fps")
	}
	if changed("session-minutes") {
		cfg.SessionDuration = time.Duration(mustGetInt(cmd, "session-minutes")) * time.Minute
	}
	if changed("cascade") {
		cfg.CascadePath = mustGetString(cmd, "cascade")
	}
	if changed("recordings") {
		cfg.RecordingDirectory = mustGetString(cmd, "recordings")
	}
	if changed("faces") {
		cfg.FaceDirectory = mustGetString(cmd, "faces")
	}
	if changed("policy") {
		cfg.ReadFailurePolicy = mustGetString(cmd, "policy")
	}
	if changed("headless") {
		cfg.PreviewWindow = !mustGetBool(cmd, "headless")
	}
	if changed("live-port") {
		cfg.LiveViewPort = mustGetInt(cmd, "live-port")
	}
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyRecordFlags(cmd, cfg)

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("Startup failed: %v", err)
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := application.Run(ctx)
	if err != nil {
		log.Error("❌ %v", err)
		return err
	}

	line := strings.Repeat("=", 50)
	fmt.Printf("\n%s\n", line)
	fmt.Printf("✅ Total sessions recorded: %d\n", summary.Sessions)
	fmt.Printf("✅ Total faces saved: %d\n", summary.FacesSaved)
	fmt.Printf("✅ Faces saved in: %s\n", cfg.FaceDirectory)
	fmt.Printf("   Run %s ended: %s\n", summary.RunID, summary.Reason)
	fmt.Printf("%s\n", line)
	return nil
}
