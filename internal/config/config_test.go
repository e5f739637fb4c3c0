package config

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if cfg.Store.InitialCapacity != 64 {
		t.Errorf("expected initial capacity 64, got %d", cfg.Store.InitialCapacity)
	}
	if cfg.Playback.FPS != 30 {
		t.Errorf("expected fps 30, got %d", cfg.Playback.FPS)
	}
	if cfg.Playback.Duration != 0 {
		t.Errorf("expected zero duration, got %v", cfg.Playback.Duration)
	}
	if cfg.Output.Precision != 3 {
		t.Errorf("expected precision 3, got %d", cfg.Output.Precision)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDecodeFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
logging:
  level: "debug"
  log_file: "scenectl.log"
  json: true

store:
  initial_capacity: 256

playback:
  fps: 60
  duration: 2500ms
  loop: true
  clips: [walk, blink]

output:
  precision: 5
  show_joints: true
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := decodeFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "scenectl.log" || !cfg.Logging.JSON {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Store.InitialCapacity != 256 {
		t.Errorf("expected capacity 256, got %d", cfg.Store.InitialCapacity)
	}
	if cfg.Playback.FPS != 60 {
		t.Errorf("expected fps 60, got %d", cfg.Playback.FPS)
	}
	if cfg.Playback.Duration != 2500*time.Millisecond {
		t.Errorf("expected duration 2.5s, got %v", cfg.Playback.Duration)
	}
	if !cfg.Playback.Loop {
		t.Error("expected loop to be true")
	}
	if !reflect.DeepEqual(cfg.Playback.Clips, []string{"walk", "blink"}) {
		t.Errorf("unexpected clips: %v", cfg.Playback.Clips)
	}
	if cfg.Output.Precision != 5 || !cfg.Output.ShowJoints {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}
}

func TestDecodeFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("playback:\n  fps: 24\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := decodeFile(cfg, configPath); err != nil {
		t.Fatal(err)
	}
	if cfg.Playback.FPS != 24 {
		t.Errorf("expected fps 24, got %d", cfg.Playback.FPS)
	}
	if cfg.Store.InitialCapacity != 64 {
		t.Errorf("untouched sections should keep defaults, got capacity %d", cfg.Store.InitialCapacity)
	}
}

func TestDecodeFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := decodeFile(Default(), configPath); err != nil {
		t.Errorf("empty file should load: %v", err)
	}
}

func TestDecodeFileInvalid(t *testing.T) {
	tests := map[string]string{
		"bad syntax":  "playback:\n  fps: not a number\n  invalid syntax here\n",
		"unknown key": "graphics:\n  width: 800\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := decodeFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestDecodeFileMissing(t *testing.T) {
	cfg := Default()
	err := decodeFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Playback.FPS = 0
	cfg.Output.Precision = 12
	cfg.Store.InitialCapacity = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if runtime.GOOS != "windows" && !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "scenectl.yaml")
	if err := os.WriteFile(configPath, []byte("playback:\n  fps: 12\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find scenectl.yaml in current directory")
	}
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name   string
		o      Overrides
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "debug",
			o:    Overrides{Debug: true},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "playback",
			o:    Overrides{FPS: 120, Duration: 3 * time.Second, Loop: true},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Playback.FPS != 120 || cfg.Playback.Duration != 3*time.Second || !cfg.Playback.Loop {
					t.Errorf("unexpected playback config: %+v", cfg.Playback)
				}
			},
		},
		{
			name: "logging sinks",
			o:    Overrides{LogFile: "out.log", JSON: true},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "out.log" || !cfg.Logging.JSON {
					t.Errorf("unexpected logging config: %+v", cfg.Logging)
				}
			},
		},
		{
			name: "zero values keep defaults",
			o:    Overrides{},
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Errorf("config changed: %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.o.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestBindFlags(t *testing.T) {
	var o Overrides
	fs := pflag.NewFlagSet("scenectl", pflag.ContinueOnError)
	o.Bind(fs)

	if err := fs.Parse([]string{"--fps", "48", "--debug", "--duration", "1.5s", "--capacity", "8"}); err != nil {
		t.Fatal(err)
	}
	if o.FPS != 48 || !o.Debug || o.Duration != 1500*time.Millisecond || o.Capacity != 8 {
		t.Errorf("unexpected overrides: %+v", o)
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
playback:
  fps: 24
  loop: true
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Overrides{ConfigPath: configPath, FPS: 60})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// fps from the flag, loop from the file.
	if cfg.Playback.FPS != 60 {
		t.Errorf("expected fps 60 from flag, got %d", cfg.Playback.FPS)
	}
	if !cfg.Playback.Loop {
		t.Error("expected loop from file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("playback:\n  fps: -5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(&Overrides{ConfigPath: configPath}); err == nil {
		t.Error("expected negative fps to be rejected")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Playback.Duration = 4 * time.Second
	cfg.Playback.Clips = []string{"idle"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := decodeFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
	}
}
