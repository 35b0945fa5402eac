package main

import (
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ride-receipts/pkg/config"
)

// app carries the root flags and the dependencies built from them.
type app struct {
	envFile       string
	catalogueFile string
	locale        string
	pdfEngine     string
	logLevel      string
	logFormat     string

	deps *Dependencies
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "receipts",
		Short: "Extract structured fields from ride receipts",
		Long: `Reads ride receipts (PDF or text), detects the receipt locale from its
currency markers, extracts the catalogue fields with regular expressions and
writes one row per receipt.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default .env when present)")
	pf.StringVar(&a.catalogueFile, "catalogue", "", "TOML file extending the built-in catalogue")
	pf.StringVar(&a.locale, "locale", "", "force a locale (CA, US) instead of detecting it")
	pf.StringVar(&a.pdfEngine, "pdf-engine", "", "PDF text engine: native or pdftotext")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "text or json")

	root.AddCommand(
		newExtractCmd(a),
		newGapsCmd(a),
		newCatalogueCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds dependencies.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("catalogue") {
		cfg.Extraction.CatalogueFile = a.catalogueFile
	}
	if flags.Changed("locale") {
		cfg.Extraction.Locale = a.locale
	}
	if flags.Changed("pdf-engine") {
		cfg.Extraction.PDFEngine = a.pdfEngine
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Logging.NewLogger(cmd.ErrOrStderr())
	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	a.deps = deps
	return nil
}
