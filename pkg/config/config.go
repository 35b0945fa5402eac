package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Extraction ExtractionConfig
	Batch      BatchConfig
	Output     OutputConfig
	Logging    LoggingConfig
}

type ExtractionConfig struct {
	Locale        string // forces a locale; empty means detect
	CatalogueFile string // optional TOML extension
	DetectGaps    bool
	GapStart      string
	GapEnd        string
	Noise         []string
	PDFEngine     string // native or pdftotext
}

type BatchConfig struct {
	Workers         int // 0 means GOMAXPROCS
	DocumentTimeout time.Duration
}

type OutputConfig struct {
	Format      string
	Path        string
	MetricsFile string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables. Files, or ".env" when
// none are given, are loaded first if they exist; variables already set in
// the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Extraction: ExtractionConfig{
			Locale:        getEnv("RECEIPTS_LOCALE", ""),
			CatalogueFile: getEnv("RECEIPTS_CATALOGUE_FILE", ""),
			DetectGaps:    getEnvAsBool("RECEIPTS_DETECT_GAPS", true),
			GapStart:      getEnv("RECEIPTS_GAP_START", "Trip fare"),
			GapEnd:        getEnv("RECEIPTS_GAP_END", "Payments"),
			Noise:         getEnvAsList("RECEIPTS_NOISE", []string{"Subtotal"}),
			PDFEngine:     getEnv("RECEIPTS_PDF_ENGINE", "native"),
		},
		Batch: BatchConfig{
			Workers:         getEnvAsInt("RECEIPTS_WORKERS", 0),
			DocumentTimeout: getEnvAsDuration("RECEIPTS_DOCUMENT_TIMEOUT", 30*time.Second),
		},
		Output: OutputConfig{
			Format:      getEnv("RECEIPTS_OUTPUT_FORMAT", "csv"),
			Path:        getEnv("RECEIPTS_OUTPUT", "receipts.csv"),
			MetricsFile: getEnv("RECEIPTS_METRICS_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	switch c.Output.Format {
	case "csv", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("RECEIPTS_OUTPUT_FORMAT must be csv or xlsx, got %q", c.Output.Format))
	}
	switch c.Extraction.PDFEngine {
	case "native", "pdftotext":
	default:
		errs = append(errs, fmt.Errorf("RECEIPTS_PDF_ENGINE must be native or pdftotext, got %q", c.Extraction.PDFEngine))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, errors.New("RECEIPTS_WORKERS must not be negative"))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger writing to w.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
