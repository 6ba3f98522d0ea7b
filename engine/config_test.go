package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prism.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
name = "Demo"
frames_in_flight = 2
log_level = "warn"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "Demo" {
		t.Errorf("name = %q, want Demo", cfg.Name)
	}
	if cfg.FramesInFlight != 2 {
		t.Errorf("frames in flight = %d, want 2", cfg.FramesInFlight)
	}
	if cfg.Level() != core.WarnLevel {
		t.Errorf("level = %v, want warn", cfg.Level())
	}
	// Untouched fields keep their defaults.
	if cfg.StartWidth != DefaultConfig().StartWidth {
		t.Errorf("start width = %d, want default", cfg.StartWidth)
	}
	if cfg.ScenePath != DefaultConfig().ScenePath {
		t.Errorf("scene path = %q, want default", cfg.ScenePath)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero ring depth", "frames_in_flight = 0"},
		{"zero window", "start_width = 0"},
		{"unknown level", `log_level = "verbose"`},
		{"malformed toml", "frames_in_flight = ["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := LoadConfig(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConfigLevelFallsBackToInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "bogus"
	if cfg.Level() != core.InfoLevel {
		t.Errorf("level = %v, want info", cfg.Level())
	}
}
