package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIsolatedService(t *testing.T) (*ViperConfigService, string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	return NewViperConfigService(dir).(*ViperConfigService), dir
}

func TestViperConfigService_Defaults(t *testing.T) {
	svc, dir := newIsolatedService(t)

	cfg, err := svc.Load()

	require.NoError(t, err)
	assert.Equal(t, "video-container", cfg.Player.ContainerID)
	assert.Equal(t, 1000, cfg.Player.Width)
	assert.Equal(t, 600, cfg.Player.Height)
	assert.Equal(t, 50.0, cfg.Player.Volume)
	assert.Equal(t, 200*time.Millisecond, cfg.Monitor.Interval)
	assert.Equal(t, "mpv", cfg.Mpv.Binary)
	assert.Contains(t, cfg.Mpv.Regions, "video-container")
	assert.FileExists(t, filepath.Join(dir, "config.yml"), "defaults should be written on first run")
}

func TestViperConfigService_FileAndEnv(t *testing.T) {
	svc, dir := newIsolatedService(t)

	content := []byte(`
logLevel: debug
player:
  containerId: stage
  width: 640
  height: 360
mpv:
  regions:
    stage: 12345
monitor:
  interval: 1s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0644))
	t.Setenv("VIEWPLAY_PLAYER_VOLUME", "80")

	cfg, err := svc.Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "stage", cfg.Player.ContainerID)
	assert.Equal(t, 640, cfg.Player.Width)
	assert.Equal(t, 80.0, cfg.Player.Volume)
	assert.Equal(t, int64(12345), cfg.Mpv.Regions["stage"])
	assert.Equal(t, time.Second, cfg.Monitor.Interval)
}

func TestViperConfigService_Validation(t *testing.T) {
	svc, dir := newIsolatedService(t)

	content := []byte(`
player:
  width: 0
  volume: 140
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0644))

	_, err := svc.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Width")
	assert.Contains(t, err.Error(), "Volume")
}
