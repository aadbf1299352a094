package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

var allEnv = []string{
	EnvConfigPath, EnvDepthScale, EnvFocalLengthX, EnvFocalLengthY,
	EnvPrincipalX, EnvPrincipalY, EnvWindowSize, EnvDenoise,
	EnvWorkers, EnvOutputDir, EnvLogLevel,
}

// clearEnv unsets every variable Load reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnv {
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, depth.DefaultIntrinsics(), cfg.Camera)
	assert.Equal(t, 5, cfg.Roughness.WindowSize)
	assert.True(t, cfg.Preprocess.Denoise)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "depth.yaml", `
camera:
  depth_scale: 0.0001
  focal_length_x: 615.5
  focal_length_y: 614.25
  principal_x: 320
  principal_y: 240
roughness:
  window_size: 7
preprocess:
  denoise: false
analysis:
  workers: 3
output:
  dir: out
log:
  level: debug
`)

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, depth.CameraIntrinsics{
		Fx: 615.5, Fy: 614.25, U0: 320, V0: 240, DepthScale: 0.0001,
	}, cfg.Camera)
	assert.Equal(t, 7, cfg.Roughness.WindowSize)
	assert.False(t, cfg.Preprocess.Denoise)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "depth.yaml", "camera:\n  focal_length_x: 700\n")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 700.0, cfg.Camera.Fx)
	assert.Equal(t, 600.0, cfg.Camera.Fy)
	assert.Equal(t, 0.001, cfg.Camera.DepthScale)
	assert.True(t, cfg.Preprocess.Denoise)
}

func TestLoad_EmptyYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "depth.yaml", "")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "depth.yaml", "roughness:\n  window_size: 9\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Roughness.WindowSize)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "depth.yaml", `
camera:
  focal_length_x: 500
  focal_length_y: 500
roughness:
  window_size: 7
log:
  level: warn
`)
	envFile := writeFile(t, dir, "test.env", "FOCAL_LENGTH_X=550\nROUGHNESS_WINDOW_SIZE=3\nDEPTH_DENOISE=false\n")
	t.Setenv(EnvFocalLengthX, "580")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, 580.0, cfg.Camera.Fx, "environment beats .env and YAML")
	assert.Equal(t, 500.0, cfg.Camera.Fy, "YAML beats defaults")
	assert.Equal(t, 3, cfg.Roughness.WindowSize, ".env beats YAML")
	assert.False(t, cfg.Preprocess.Denoise)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "unknown yaml key",
			yaml:    "camera:\n  focal: 3\n",
			wantMsg: "failed to parse config",
		},
		{
			name:    "malformed yaml",
			yaml:    "camera: [\n",
			wantMsg: "failed to parse config",
		},
		{
			name:    "bad float env",
			env:     map[string]string{EnvDepthScale: "tiny"},
			wantMsg: EnvDepthScale,
		},
		{
			name:    "bad int env",
			env:     map[string]string{EnvWindowSize: "five"},
			wantMsg: EnvWindowSize,
		},
		{
			name:    "bad bool env",
			env:     map[string]string{EnvDenoise: "maybe"},
			wantMsg: EnvDenoise,
		},
		{
			name:    "zero focal length",
			yaml:    "camera:\n  focal_length_x: 0\n",
			wantMsg: "focal length x must be positive",
		},
		{
			name:    "negative depth scale",
			env:     map[string]string{EnvDepthScale: "-0.001"},
			wantMsg: "depth scale must be positive",
		},
		{
			name:    "zero window",
			yaml:    "roughness:\n  window_size: 0\n",
			wantMsg: "window size must be positive",
		},
		{
			name:    "negative workers",
			env:     map[string]string{EnvWorkers: "-2"},
			wantMsg: "workers must not be negative",
		},
		{
			name:    "unknown log level",
			env:     map[string]string{EnvLogLevel: "loud"},
			wantMsg: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, dir, "depth.yaml", tt.yaml)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path, filepath.Join(dir, "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open config")
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Camera.Fx = 0
	cfg.Roughness.WindowSize = -1
	cfg.Output.Dir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "focal length x")
	assert.Contains(t, err.Error(), "window size")
	assert.Contains(t, err.Error(), "output dir")
}
