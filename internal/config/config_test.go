package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GRID_SIZE", "")
	t.Setenv("COOLDOWN_SECONDS", "")
	t.Setenv("SESSION_MINUTES", "")

	cfg := Load()

	if cfg.GridSize != 80 {
		t.Errorf("GridSize = %d, expected 80", cfg.GridSize)
	}
	if cfg.Cooldown != 2*time.Second {
		t.Errorf("Cooldown = %s, expected 2s", cfg.Cooldown)
	}
	if cfg.SessionDuration != 180*time.Minute {
		t.Errorf("SessionDuration = %s, expected 3h", cfg.SessionDuration)
	}
	if cfg.WarmupReads != 8 || cfg.WarmupMinOK != 4 {
		t.Errorf("warm-up = %d/%d, expected 4/8", cfg.WarmupMinOK, cfg.WarmupReads)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_IgnoresDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CAPTURE_SOURCE=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("CAPTURE_SOURCE", "")
	os.Unsetenv("CAPTURE_SOURCE")

	if got := Load().CaptureSource; got != "0" {
		t.Errorf("CaptureSource = %q, .env must only be read by the CLI", got)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GRID_SIZE", "40")
	t.Setenv("COOLDOWN_SECONDS", "0.5")
	t.Setenv("PREVIEW_WINDOW", "false")
	t.Setenv("CAPTURE_FPS", "abc")

	cfg := Load()

	if cfg.GridSize != 40 {
		t.Errorf("GridSize = %d, expected 40", cfg.GridSize)
	}
	if cfg.Cooldown != 500*time.Millisecond {
		t.Errorf("Cooldown = %s, expected 500ms", cfg.Cooldown)
	}
	if cfg.PreviewWindow {
		t.Error("PreviewWindow should be false")
	}
	if cfg.CaptureFPS != 30 {
		t.Errorf("invalid CAPTURE_FPS should fall back to 30, got %v", cfg.CaptureFPS)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero grid", func(c *Config) { c.GridSize = 0 }},
		{"negative padding", func(c *Config) { c.CropPadding = -1 }},
		{"threshold above reads", func(c *Config) { c.WarmupMinOK = 9 }},
		{"retention not above cooldown", func(c *Config) { c.CooldownRetention = c.Cooldown }},
		{"zero session", func(c *Config) { c.SessionDuration = 0 }},
		{"unknown policy", func(c *Config) { c.ReadFailurePolicy = "retry-forever" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
