package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr   string `json:"addr" yaml:"addr" toml:"addr"`
	Model  string `json:"model" yaml:"model" toml:"model"`
	MMProj string `json:"mmproj" yaml:"mmproj" toml:"mmproj"`
	// ModelsDir is listed by GET /v1/models and resolves model ids.
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`

	NCtx      int32 `json:"n_ctx" yaml:"n_ctx" toml:"n_ctx"`
	Threads   int32 `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers int32 `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	NPredict  int32 `json:"n_predict" yaml:"n_predict" toml:"n_predict"`

	LogLevel        string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat       string `json:"log_format" yaml:"log_format" toml:"log_format"`
	RequestLogLevel string `json:"request_log_level" yaml:"request_log_level" toml:"request_log_level"`

	MaxBodyBytes       int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	GenerateTimeoutSec int64 `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`

	// AcceleratorIDs replaces the backend label substrings counted as accelerators.
	AcceleratorIDs []string `json:"accelerator_ids" yaml:"accelerator_ids" toml:"accelerator_ids"`
	// MaxImageSide bounds images decoded in-process; 0 keeps the original size.
	MaxImageSide int `json:"max_image_side" yaml:"max_image_side" toml:"max_image_side"`
	// MaxImagePixels rejects in-process decodes above width*height; 0 uses the
	// media package default.
	MaxImagePixels int `json:"max_image_pixels" yaml:"max_image_pixels" toml:"max_image_pixels"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Merge overlays every non-zero field of o onto c.
func (c *Config) Merge(o Config) {
	setString(&c.Addr, o.Addr)
	setString(&c.Model, o.Model)
	setString(&c.MMProj, o.MMProj)
	setString(&c.ModelsDir, o.ModelsDir)
	setNum(&c.NCtx, o.NCtx)
	setNum(&c.Threads, o.Threads)
	setNum(&c.GPULayers, o.GPULayers)
	setNum(&c.NPredict, o.NPredict)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	setString(&c.RequestLogLevel, o.RequestLogLevel)
	setNum(&c.MaxBodyBytes, o.MaxBodyBytes)
	setNum(&c.GenerateTimeoutSec, o.GenerateTimeoutSec)
	if o.CORSEnabled {
		c.CORSEnabled = true
	}
	setSlice(&c.CORSAllowedOrigins, o.CORSAllowedOrigins)
	setSlice(&c.CORSAllowedMethods, o.CORSAllowedMethods)
	setSlice(&c.CORSAllowedHeaders, o.CORSAllowedHeaders)
	setSlice(&c.AcceleratorIDs, o.AcceleratorIDs)
	setNum(&c.MaxImageSide, o.MaxImageSide)
	setNum(&c.MaxImagePixels, o.MaxImagePixels)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNum[T int | int32 | int64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}

func setSlice(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = append([]string(nil), v...)
	}
}
