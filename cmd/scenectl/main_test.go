package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-scene/internal/config"
	"github.com/Faultbox/midgard-scene/internal/fixture"
	"github.com/Faultbox/midgard-scene/internal/logger"
	"github.com/Faultbox/midgard-scene/pkg/handle"
)

var rigPath = filepath.Join("..", "..", "internal", "fixture", "testdata", "rig.yaml")

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	prev, prevSugar := logger.Log, logger.Sugar
	t.Cleanup(func() { logger.Log, logger.Sugar = prev, prevSugar })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", rigPath)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (5 nodes, 1 skins, 2 clips, 2 channels skipped)")
}

func TestValidateMissingFile(t *testing.T) {
	_, err := run(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", rigPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Scene main (1 roots)")
	assert.Contains(t, out, "hips (0.000, 1.000, 0.000) [1 instances, skinned]")
	assert.Contains(t, out, "rig-camera (0.000, 2.000, 5.000) [camera]")
	assert.Contains(t, out, "body-skin: 2 joints")
	assert.Contains(t, out, "bob")
}

func TestPlaySingleTime(t *testing.T) {
	out, err := run(t, "play", rigPath, "--clip", "bob", "--time", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "bob (2.000s)")
	assert.Contains(t, out, "hips=(0.000, 1.500, 0.000)")
	assert.NotContains(t, out, "blink")
}

func TestPlayTimeline(t *testing.T) {
	out, err := run(t, "play", rigPath, "--clip", "blink", "--fps", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "t=0.000")
	assert.Contains(t, out, "t=0.500")
	assert.Contains(t, out, "hips.weights=[1 0.5]")
}

func TestPlayUnknownClip(t *testing.T) {
	_, err := run(t, "play", rigPath, "--clip", "dance")
	assert.ErrorContains(t, err, `unknown clip "dance"`)
}

func TestBench(t *testing.T) {
	out, err := run(t, "bench", rigPath, "--frames", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "10 frames x 2 clips")

	_, err = run(t, "bench", rigPath, "--profile", "gpu")
	assert.Error(t, err)

	_, err = run(t, "bench", rigPath, "--frames", "0")
	assert.Error(t, err)
}

func TestConfigSaveAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenectl.yaml")
	out, err := run(t, "config", "save", path, "--fps", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "saved "+path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	out, err = run(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "fps: 12")
}

func TestTimeline(t *testing.T) {
	tests := []struct {
		name   string
		length float32
		pb     config.PlaybackConfig
		want   []float32
	}{
		{"clip length", 2, config.PlaybackConfig{FPS: 2}, []float32{0, 0.5, 1, 1.5, 2}},
		{"fixed duration", 2, config.PlaybackConfig{FPS: 1, Duration: time.Second}, []float32{0, 1}},
		{"loop", 2, config.PlaybackConfig{FPS: 2, Duration: 3 * time.Second, Loop: true},
			[]float32{0, 0.5, 1, 1.5, 2, 0.5, 1}},
		{"empty clip", 0, config.PlaybackConfig{FPS: 30}, []float32{0}},
		{"keys before zero", -2, config.PlaybackConfig{FPS: 30}, []float32{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, timeline(tt.length, tt.pb), 1e-5)
		})
	}
}

func TestSelectClips(t *testing.T) {
	idx := &fixture.Index{Clips: map[string]handle.Handle{
		"walk":  handle.Make(0, 1),
		"blink": handle.Make(1, 1),
	}}

	got, err := selectClips(idx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"blink", "walk"}, got)

	got, err = selectClips(idx, nil, []string{"walk"})
	require.NoError(t, err)
	assert.Equal(t, []string{"walk"}, got)

	got, err = selectClips(idx, []string{"blink"}, []string{"walk"})
	require.NoError(t, err)
	assert.Equal(t, []string{"blink"}, got)

	_, err = selectClips(idx, []string{"run"}, nil)
	assert.Error(t, err)
}
