// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the settings of the rota command from a YAML file, a
// .env file and the environment, and builds the configured components.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/clenio77/rota-facil/geocoding"
	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/ocr"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the command.
type Config struct {
	DBPath    string                 `yaml:"db_path"`
	Location  geocoding.Location     `yaml:"location"` // fallback when the manifest header has none
	Parser    manifest.ParserOptions `yaml:"parser"`
	Geocoding GeocodingConfig        `yaml:"geocoding"`
	OCR       OCRConfig              `yaml:"ocr"`
	Routing   RoutingConfig          `yaml:"routing"`
	Server    ServerConfig           `yaml:"server"`
}

// GeocodingConfig selects and configures the geocoding providers.
type GeocodingConfig struct {
	Providers      []string              `yaml:"providers"` // tried in order
	GoogleAPIKey   string                `yaml:"google_api_key"`
	KeyDisplayName string                `yaml:"key_display_name"` // looked up via ADC when GoogleAPIKey is empty
	MapboxToken    string                `yaml:"mapbox_token"`
	NominatimURL   string                `yaml:"nominatim_url"`
	NominatimEmail string                `yaml:"nominatim_email"`
	PhotonURL      string                `yaml:"photon_url"`
	MinConfidence  float64               `yaml:"min_confidence"`
	MaxProcs       int                   `yaml:"max_procs"`
	Timeout        time.Duration         `yaml:"timeout"`
	Retries        int                   `yaml:"retries"`     // of a rate-limited or timed out query
	RetryDelay     time.Duration         `yaml:"retry_delay"` // doubled on every retry
	Redis          geocoding.RedisConfig `yaml:"redis"`       // memory cache when Addr is empty
}

// OCRConfig selects and configures the OCR providers.
type OCRConfig struct {
	Providers    []string `yaml:"providers"` // tried in order
	OCRSpaceKey  string   `yaml:"ocr_space_key"`
	VisionAPIKey string   `yaml:"vision_api_key"` // ADC when empty
	Languages    []string `yaml:"languages"`      // tesseract traineddata
}

// RoutingConfig configures stop grouping and road directions.
type RoutingConfig struct {
	OSRMURL       string  `yaml:"osrm_url"` // empty disables road directions
	Resolution    int     `yaml:"resolution"`
	MergeDistance float64 `yaml:"merge_distance"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:   "rota.duckdb",
		Location: geocoding.DefaultLocation,
		Geocoding: GeocodingConfig{
			Providers:     []string{geocoding.ProviderGoogle, geocoding.ProviderPhoton, geocoding.ProviderNominatim},
			MinConfidence: 0.5,
			MaxProcs:      4,
			Timeout:       10 * time.Second,
			Retries:       2,
			RetryDelay:    time.Second,
		},
		OCR: OCRConfig{
			Providers: []string{ocr.ProviderOCRSpace, ocr.ProviderVision, ocr.ProviderTesseract},
			Languages: []string{"por"},
		},
		Routing: RoutingConfig{
			Resolution:    10,
			MergeDistance: 25,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxUploadSize: ocr.MaxImageSize,
		},
	}
}

// LoadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

// Load returns the defaults overlaid with the YAML file at path, when not
// empty, and then with the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(v string) []string {
	var ret []string

	for s := range strings.SplitSeq(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			ret = append(ret, s)
		}
	}

	return ret
}

func applyEnvOverrides(cfg *Config) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"ROTA_DB", &cfg.DBPath},
		{"ROTA_CITY", &cfg.Location.City},
		{"ROTA_STATE", &cfg.Location.State},
		{"ROTA_ADDR", &cfg.Server.Addr},
		{"ROTA_OSRM_URL", &cfg.Routing.OSRMURL},
		{"ROTA_NOMINATIM_EMAIL", &cfg.Geocoding.NominatimEmail},
		{"GOOGLE_MAPS_API_KEY", &cfg.Geocoding.GoogleAPIKey},
		{"MAPBOX_TOKEN", &cfg.Geocoding.MapboxToken},
		{"OCR_SPACE_API_KEY", &cfg.OCR.OCRSpaceKey},
		{"GOOGLE_VISION_API_KEY", &cfg.OCR.VisionAPIKey},
		{"REDIS_ADDR", &cfg.Geocoding.Redis.Addr},
		{"REDIS_PASSWORD", &cfg.Geocoding.Redis.Password},
	}

	for _, s := range strs {
		if v := os.Getenv(s.name); v != "" {
			*s.dst = v
		}
	}

	if v := os.Getenv("ROTA_GEOCODERS"); v != "" {
		cfg.Geocoding.Providers = splitList(v)
	}

	if v := os.Getenv("ROTA_OCR_PROVIDERS"); v != "" {
		cfg.OCR.Providers = splitList(v)
	}

	if v := os.Getenv("ROTA_MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ROTA_MIN_CONFIDENCE: %w", err)
		}

		cfg.Geocoding.MinConfidence = f
	}

	if v := os.Getenv("ROTA_GEOCODING_PROCS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ROTA_GEOCODING_PROCS: %w", err)
		}

		cfg.Geocoding.MaxProcs = n
	}

	return nil
}

var (
	geocoderNames = []string{
		geocoding.ProviderGoogle, geocoding.ProviderMapbox,
		geocoding.ProviderNominatim, geocoding.ProviderPhoton,
	}
	ocrNames = []string{ocr.ProviderOCRSpace, ocr.ProviderVision, ocr.ProviderTesseract}
)

// Validate checks the configuration and normalizes the fallback state to
// its UF.
func (c *Config) Validate() error {
	var errs []error

	if c.Location.City == "" {
		errs = append(errs, errors.New("location.city is required"))
	}

	if uf, ok := geocoding.NormalizeState(c.Location.State); ok {
		c.Location.State = uf
	} else {
		errs = append(errs, fmt.Errorf("location.state: unknown state %q", c.Location.State))
	}

	for _, p := range c.Geocoding.Providers {
		if !slices.Contains(geocoderNames, p) {
			errs = append(errs, fmt.Errorf("geocoding.providers: unknown provider %q", p))
		}
	}

	for _, p := range c.OCR.Providers {
		if !slices.Contains(ocrNames, p) {
			errs = append(errs, fmt.Errorf("ocr.providers: unknown provider %q", p))
		}
	}

	if c.Geocoding.MinConfidence < 0 || c.Geocoding.MinConfidence > 1 {
		errs = append(errs, errors.New("geocoding.min_confidence must be between 0 and 1"))
	}

	if c.Geocoding.MaxProcs < 1 {
		errs = append(errs, errors.New("geocoding.max_procs must be positive"))
	}

	if c.Geocoding.Retries < 0 || c.Geocoding.RetryDelay < 0 {
		errs = append(errs, errors.New("geocoding.retries and geocoding.retry_delay must not be negative"))
	}

	if c.Routing.Resolution < 0 || c.Routing.Resolution > 15 {
		errs = append(errs, errors.New("routing.resolution must be between 0 and 15"))
	}

	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("server.max_upload_size must be positive"))
	}

	return errors.Join(errs...)
}
