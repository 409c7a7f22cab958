// Package config loads run settings from an optional YAML/Hjson file, a .env
// file and FILINGS_* environment variables, in increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"filing_tables/pkg/core/extract"
	"filing_tables/pkg/core/table"
	"filing_tables/pkg/core/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override (FILINGS_SOURCE, ...).
const EnvPrefix = "FILINGS"

// databaseURLEnv is the conventional variable honoured when
// FILINGS_DATABASE_URL is not set.
const databaseURLEnv = "DATABASE_URL"

// Input formats.
const (
	InputHTML = "html"
	InputJSON = "json"
)

// Config is the complete run configuration.
type Config struct {
	Source   string `yaml:"source" json:"source" split_words:"true" validate:"required"`
	Input    string `yaml:"input" json:"input" split_words:"true" validate:"oneof=html json"`
	Encoding string `yaml:"encoding" json:"encoding" split_words:"true"`

	OutputDir       string `yaml:"output_dir" json:"output_dir" split_words:"true" validate:"required"`
	StagingDir      string `yaml:"staging_dir" json:"staging_dir" split_words:"true"`
	WriteStaging    bool   `yaml:"write_staging" json:"write_staging" split_words:"true"`
	StagingMarkdown bool   `yaml:"staging_markdown" json:"staging_markdown" split_words:"true"`
	ClearStaging    bool   `yaml:"clear_staging" json:"clear_staging" split_words:"true"`

	MinNonEmpty     int      `yaml:"min_non_empty" json:"min_non_empty" split_words:"true" validate:"min=1"`
	CurrencyMarkers []string `yaml:"currency_markers" json:"currency_markers" split_words:"true"`
	PercentMarkers  []string `yaml:"percent_markers" json:"percent_markers" split_words:"true"`

	LabelColumn string               `yaml:"label_column" json:"label_column" split_words:"true"`
	SpanMarkers []string             `yaml:"span_markers" json:"span_markers" split_words:"true"`
	Strategy    string               `yaml:"strategy" json:"strategy" split_words:"true" validate:"omitempty,oneof=auto flat sectioned"`
	Corrections []extract.Correction `yaml:"corrections" json:"corrections" ignored:"true"`

	Workers      int      `yaml:"workers" json:"workers" split_words:"true" validate:"min=1"`
	TableTimeout Duration `yaml:"table_timeout" json:"table_timeout" split_words:"true"`

	// Workbook, when set, also writes every document into one .xlsx file.
	Workbook string `yaml:"workbook" json:"workbook" split_words:"true"`
	// MetricsFile, when set, receives run metrics in Prometheus text format.
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" split_words:"true"`

	// DatabaseURL also falls back to the bare DATABASE_URL variable. No
	// other setting reads unprefixed variables.
	DatabaseURL string `yaml:"database_url" json:"database_url" split_words:"true"`
}

// Default returns the settings the original filing run used.
func Default() *Config {
	return &Config{
		Source:          "./aapl-20231230.html",
		Input:           InputHTML,
		Encoding:        "windows-1252",
		OutputDir:       "./final",
		StagingDir:      "./temp",
		WriteStaging:    true,
		ClearStaging:    true,
		MinNonEmpty:     table.DefaultMinNonEmpty,
		CurrencyMarkers: []string{table.CurrencyMarker},
		PercentMarkers:  []string{table.PercentMarker},
		SpanMarkers:     []string{extract.DefaultSpanMarker},
		Strategy:        extract.StrategyAuto,
		Corrections:     extract.DefaultCorrections(),
		Workers:         4,
		TableTimeout:    Duration{30 * time.Second},
	}
}

// Load builds the configuration: defaults, then the file at path (if any),
// then .env and the process environment.
func Load(path string) (*Config, error) {
	// A missing .env is normal.
	godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if _, ok := os.LookupEnv(EnvPrefix + "_" + databaseURLEnv); !ok {
		if url, ok := os.LookupEnv(databaseURLEnv); ok {
			cfg.DatabaseURL = url
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the keys present in a YAML, JSON or Hjson file.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".json":
		// Hand-edited files often carry trailing commas or comments.
		if err := utils.DecodeLenient(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".hjson":
		converted, err := utils.ParseHJSON(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := json.Unmarshal(converted, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.New(formatFieldError(fieldErrs[0]))
		}
		return err
	}
	if (c.WriteStaging || c.ClearStaging) && c.StagingDir == "" {
		return fmt.Errorf("staging_dir is required when staging is written or cleared")
	}
	if c.TableTimeout.Duration < 0 {
		return fmt.Errorf("table_timeout must not be negative")
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config key.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatFieldError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", err.Field(), err.Param(), err.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s, got %q", err.Field(), strings.ReplaceAll(err.Param(), " ", ", "), err.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag())
	}
}

// ExtractOptions maps the settings onto extractor options.
func (c *Config) ExtractOptions() extract.Options {
	markers := append(append([]string{}, c.CurrencyMarkers...), c.PercentMarkers...)
	return extract.Options{
		Clean: table.CleanOptions{
			MinNonEmpty: c.MinNonEmpty,
			Markers:     markers,
		},
		LabelColumn: c.LabelColumn,
		SpanMarkers: c.SpanMarkers,
		Strategy:    c.Strategy,
		Corrections: c.Corrections,
	}
}

// Duration is a time.Duration readable from YAML, JSON and env strings
// such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.Decode(s)
}

// UnmarshalJSON accepts "30s" or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.Decode(s)
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	d.Duration = parsed
	return nil
}
