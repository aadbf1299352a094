// Package config loads the server configuration.
//
// Values are layered, later sources winning: built-in defaults, a YAML file,
// a .env file, then the process environment. Validate is the only place
// where camera and roughness parameters are range-checked; the metric code
// trusts what it is given.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// Environment variables read by Load.
const (
	EnvConfigPath    = "DEPTH_MCP_CONFIG"
	EnvDepthScale    = "DEPTH_SCALE"
	EnvFocalLengthX  = "FOCAL_LENGTH_X"
	EnvFocalLengthY  = "FOCAL_LENGTH_Y"
	EnvPrincipalX    = "PRINCIPAL_X"
	EnvPrincipalY    = "PRINCIPAL_Y"
	EnvWindowSize    = "ROUGHNESS_WINDOW_SIZE"
	EnvDenoise       = "DEPTH_DENOISE"
	EnvWorkers       = "DEPTH_MCP_WORKERS"
	EnvOutputDir     = "DEPTH_MCP_OUTPUT_DIR"
	EnvLogLevel      = "DEPTH_MCP_LOG_LEVEL"
	defaultEnvFile   = ".env"
	defaultOutputDir = "results"
)

// Config is the complete server configuration.
type Config struct {
	Camera     depth.CameraIntrinsics `yaml:"camera"`
	Roughness  RoughnessConfig        `yaml:"roughness"`
	Preprocess PreprocessConfig       `yaml:"preprocess"`
	Analysis   AnalysisConfig         `yaml:"analysis"`
	Output     OutputConfig           `yaml:"output"`
	Log        LogConfig              `yaml:"log"`
}

// RoughnessConfig configures the local-variance roughness estimator.
type RoughnessConfig struct {
	WindowSize int `yaml:"window_size"`
}

// PreprocessConfig holds defaults for depth preprocessing.
type PreprocessConfig struct {
	// Denoise is the default for the per-call "denoise" argument.
	Denoise bool `yaml:"denoise"`
}

// AnalysisConfig tunes the depth_analyze pipeline.
type AnalysisConfig struct {
	// Workers bounds concurrent targets in one analysis; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// OutputConfig controls where renderings are written.
type OutputConfig struct {
	// Dir receives saved renderings.
	Dir string `yaml:"dir"`
}

// LogConfig sets the logger verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Camera:     depth.DefaultIntrinsics(),
		Roughness:  RoughnessConfig{WindowSize: depth.DefaultWindowSize},
		Preprocess: PreprocessConfig{Denoise: true},
		Output:     OutputConfig{Dir: defaultOutputDir},
		Log:        LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $DEPTH_MCP_CONFIG when path is empty), the given .env files (".env" when
// none are given; missing files are skipped) and the environment.
// The result is validated.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{defaultEnvFile}
	}
	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := Default()

	if path == "" {
		path, _ = lookup(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range vals {
			// First file wins, matching godotenv.Load.
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{EnvDepthScale, &c.Camera.DepthScale},
		{EnvFocalLengthX, &c.Camera.Fx},
		{EnvFocalLengthY, &c.Camera.Fy},
		{EnvPrincipalX, &c.Camera.U0},
		{EnvPrincipalY, &c.Camera.V0},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvWindowSize, &c.Roughness.WindowSize},
		{EnvWorkers, &c.Analysis.Workers},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = parsed
	}

	if v, ok := lookup(EnvDenoise); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDenoise, err)
		}
		c.Preprocess.Denoise = parsed
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	errs := []error{c.Camera.Validate()}
	if c.Roughness.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("roughness window size must be positive, got %d", c.Roughness.WindowSize))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis workers must not be negative, got %d", c.Analysis.Workers))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output dir must not be empty"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	return errors.Join(errs...)
}
