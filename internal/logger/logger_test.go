package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "scenectl.log")

	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1, // smallest lumberjack allows
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   false,
	}
	log, err := New(Options{Level: "debug", File: cfg})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	// ~250 bytes per line, enough to pass 1MB at least once.
	payload := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		log.Info("applied clip", zap.Int("frame", i), zap.String("pad", payload))
	}
	_ = log.Sync()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Fatal("main log file does not exist")
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "scenectl.log" || !strings.HasPrefix(name, "scenectl") {
			continue
		}
		rotated++
		// scenectl-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"DEBUG", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := New(Options{Level: tt.level, Console: &buf})
			if err != nil {
				t.Fatalf("failed to build logger: %v", err)
			}

			log.Debug("debug message")
			log.Info("info message")
			log.Warn("warn message")
			log.Error("error message")

			out := buf.String()
			for _, exp := range tt.expected {
				if !strings.Contains(out, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(out, exc) {
					t.Errorf("unexpected %s in log output for level %q", exc, tt.level)
				}
			}
		})
	}
}

func TestUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", JSON: true, Console: &buf})
	if err != nil {
		t.Fatal(err)
	}
	log.Named("scene").Warn("store still holds live objects", zap.String("kind", "mesh"), zap.Int("live", 2))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "warn" || entry["logger"] != "scene" || entry["kind"] != "mesh" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInitReplacesGlobal(t *testing.T) {
	prev, prevSugar := Log, Sugar
	t.Cleanup(func() { Log, Sugar = prev, prevSugar })

	var buf bytes.Buffer
	if err := Init(Options{Level: "info", Console: &buf}); err != nil {
		t.Fatal(err)
	}
	Sugar.Infof("loaded %d clips", 3)
	Sync()

	if !strings.Contains(buf.String(), "loaded 3 clips") {
		t.Errorf("global logger did not write: %q", buf.String())
	}
}

func TestNoSinks(t *testing.T) {
	log, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zap.ErrorLevel) {
		t.Error("logger without sinks should discard everything")
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/scenectl.log")

	if cfg.Path != "/tmp/scenectl.log" {
		t.Errorf("expected path /tmp/scenectl.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 {
		t.Errorf("expected MaxSizeMB 50, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 7 {
		t.Errorf("expected MaxAgeDays 7, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
