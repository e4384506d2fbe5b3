package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// ReadFailureEndRun stops the whole run on the first failed frame read.
	ReadFailureEndRun = "end-run"
	// ReadFailureNextSession closes the session and starts a new one.
	ReadFailureNextSession = "next-session"
)

type Config struct {
	CaptureSource string // Indeks kamery ("0") albo ścieżka/URL
	CaptureWidth  int
	CaptureHeight int
	CaptureFPS    float64
	WarmupReads   int
	WarmupMinOK   int

	CascadePath        string
	DetectScaleFactor  float64
	DetectMinNeighbors int
	DetectMinSize      int

	GridSize          int
	Cooldown          time.Duration
	CropPadding       int
	CooldownRetention time.Duration // 0 = tablica bez wygaszania

	SessionDuration   time.Duration
	ReadFailurePolicy string

	RecordingDirectory string
	FaceDirectory      string
	DatabasePath       string
	LogDirectory       string

	PreviewWindow    bool
	LiveViewPort     int
	LiveViewPassword string
	LiveViewInterval int // Co którą klatkę wysyłać do podglądu
}

// Load builds a Config from environment variables. The CLI loads the
// optional .env file before any command runs.
func Load() *Config {
	return &Config{
		CaptureSource: getEnv("CAPTURE_SOURCE", "0"),
		CaptureWidth:  getEnvAsInt("CAPTURE_WIDTH", 1280),
		CaptureHeight: getEnvAsInt("CAPTURE_HEIGHT", 720),
		CaptureFPS:    getEnvAsFloat("CAPTURE_FPS", 30),
		WarmupReads:   getEnvAsInt("WARMUP_READS", 8),
		WarmupMinOK:   getEnvAsInt("WARMUP_MIN_OK", 4),

		CascadePath:        getEnv("CASCADE_PATH", filepath.Join(".", "haarcascade_frontalface_default.xml")),
		DetectScaleFactor:  getEnvAsFloat("DETECT_SCALE_FACTOR", 1.1),
		DetectMinNeighbors: getEnvAsInt("DETECT_MIN_NEIGHBORS", 4),
		DetectMinSize:      getEnvAsInt("DETECT_MIN_SIZE", 60),

		GridSize:          getEnvAsInt("GRID_SIZE", 80),
		Cooldown:          getEnvAsSeconds("COOLDOWN_SECONDS", 2*time.Second),
		CropPadding:       getEnvAsInt("CROP_PADDING", 15),
		CooldownRetention: getEnvAsSeconds("COOLDOWN_RETENTION_SECONDS", 0),

		SessionDuration:   time.Duration(getEnvAsInt("SESSION_MINUTES", 180)) * time.Minute,
		ReadFailurePolicy: getEnv("READ_FAILURE_POLICY", ReadFailureEndRun),

		RecordingDirectory: getEnv("RECORDING_DIR", filepath.Join(".", "recordings")),
		FaceDirectory:      getEnv("FACE_DIR", filepath.Join(".", "event_faces")),
		DatabasePath:       getEnv("DB_PATH", filepath.Join(".", "data", "facecam.db")),
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),

		PreviewWindow:    getEnvAsBool("PREVIEW_WINDOW", true),
		LiveViewPort:     getEnvAsInt("LIVE_VIEW_PORT", 0),
		LiveViewPassword: getEnv("LIVE_VIEW_PASSWORD", ""),
		LiveViewInterval: getEnvAsInt("LIVE_VIEW_INTERVAL", 3),
	}
}

// Validate rejects settings the recorder cannot run with.
func (c *Config) Validate() error {
	if c.GridSize <= 0 {
		return fmt.Errorf("grid size must be positive, got %d", c.GridSize)
	}
	if c.CropPadding < 0 {
		return fmt.Errorf("crop padding must not be negative, got %d", c.CropPadding)
	}
	if c.WarmupReads <= 0 || c.WarmupMinOK <= 0 || c.WarmupMinOK > c.WarmupReads {
		return fmt.Errorf("invalid warm-up thresholds: %d of %d reads", c.WarmupMinOK, c.WarmupReads)
	}
	if c.CooldownRetention != 0 && c.CooldownRetention <= c.Cooldown {
		return fmt.Errorf("cooldown retention %s must exceed cooldown %s", c.CooldownRetention, c.Cooldown)
	}
	if c.SessionDuration <= 0 {
		return fmt.Errorf("session duration must be positive, got %s", c.SessionDuration)
	}
	if c.CaptureFPS <= 0 {
		return fmt.Errorf("capture fps must be positive, got %v", c.CaptureFPS)
	}
	if c.LiveViewInterval <= 0 {
		c.LiveViewInterval = 1
	}
	switch c.ReadFailurePolicy {
	case ReadFailureEndRun, ReadFailureNextSession:
	default:
		return fmt.Errorf("unknown read failure policy %q", c.ReadFailurePolicy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSeconds accepts fractional seconds ("2", "0.5").
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds >= 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}
