package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/service"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/source"
	"github.com/FACorreiaa/ride-receipts/pkg/config"
)

// Dependencies holds everything a command needs
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Catalogue *patterns.Catalogue
	Reader    source.Reader
	Metrics   *service.Metrics
}

// InitDependencies builds the catalogue, document reader and metrics
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initCatalogue(); err != nil {
		return nil, fmt.Errorf("failed to init catalogue: %w", err)
	}

	if loc := cfg.Extraction.Locale; loc != "" {
		cfg.Extraction.Locale = strings.ToUpper(strings.TrimSpace(loc))
		if _, ok := deps.Catalogue.Profile(receipt.Locale(cfg.Extraction.Locale)); !ok {
			return nil, fmt.Errorf("unknown locale %q", loc)
		}
	}

	reader, err := source.New(cfg.Extraction.PDFEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to init reader: %w", err)
	}
	deps.Reader = reader
	deps.Metrics = service.NewMetrics()

	logger.Debug("dependencies initialized",
		slog.String("catalogue", deps.Catalogue.Version()),
		slog.String("pdf_engine", cfg.Extraction.PDFEngine),
	)
	return deps, nil
}

// initCatalogue loads the built-in catalogue and applies the extension file, if any
func (d *Dependencies) initCatalogue() error {
	d.Catalogue = patterns.Default()

	path := d.Config.Extraction.CatalogueFile
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ext, err := patterns.LoadExtension(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	extended, err := d.Catalogue.Extend(ext)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	d.Catalogue = extended

	d.Logger.Info("catalogue extended",
		slog.String("file", path),
		slog.String("version", extended.Version()),
	)
	return nil
}

// NewService builds a batch service with the given ad-hoc rules. Overrides
// replace catalogue rules; fill rules only complete fields left absent.
func (d *Dependencies) NewService(overrides, fill []patterns.Rule) *service.Service {
	ex := d.Config.Extraction
	opts := service.Options{
		Workers:         d.Config.Batch.Workers,
		DocumentTimeout: d.Config.Batch.DocumentTimeout,
		Locale:          receipt.Locale(ex.Locale),
		Overrides:       overrides,
		Fill:            fill,
		Noise:           ex.Noise,
	}
	if ex.DetectGaps {
		opts.GapStart, opts.GapEnd = ex.GapStart, ex.GapEnd
	}
	return service.New(d.Catalogue, d.Reader, d.Logger, d.Metrics, opts)
}
