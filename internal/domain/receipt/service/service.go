// Package service runs receipt extraction over batches of documents.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/gaps"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/insights"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/parser"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/sniffer"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/source"
)

const tracerName = "github.com/FACorreiaa/ride-receipts/internal/domain/receipt/service"

var (
	// ErrDuplicateSource rejects a batch naming the same source twice.
	ErrDuplicateSource = errors.New("duplicate source in batch")
	// ErrNoSuccess is returned by Err when no document of a batch succeeded.
	ErrNoSuccess = errors.New("no document extracted")
)

// DocumentError is the failure of one document.
type DocumentError struct {
	Source string
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Document is one unit of work. Text is used as is when set; otherwise the
// reader loads Path.
type Document struct {
	Source string
	Path   string
	Text   string
}

// Outcome is the result for one document: a record or an error.
type Outcome struct {
	Source         string
	Locale         receipt.Locale
	LocaleDetected bool
	Record         receipt.Record
	Gaps           gaps.Report
	Diagnostics    []parser.Diagnostic
	Duration       time.Duration
	Err            error
}

// OK reports whether the document produced a record.
func (o Outcome) OK() bool { return o.Err == nil }

// BatchReport holds one outcome per input document, in input order.
type BatchReport struct {
	ID        uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Outcomes  []Outcome
	Summary   insights.Summary
	Succeeded int
	Failed    int
}

// Records returns the successful records in input order.
func (r *BatchReport) Records() []receipt.Record {
	out := make([]receipt.Record, 0, r.Succeeded)
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o.Record)
		}
	}
	return out
}

// Err returns ErrNoSuccess when the batch was non-empty and nothing succeeded.
func (r *BatchReport) Err() error {
	if len(r.Outcomes) > 0 && r.Succeeded == 0 {
		return ErrNoSuccess
	}
	return nil
}

// Options tune a Service.
type Options struct {
	Workers         int
	DocumentTimeout time.Duration
	Locale          receipt.Locale // forces a locale; empty means detect
	Overrides       []patterns.Rule
	Fill            []patterns.Rule // applied after extraction to absent fields only
	GapStart        string
	GapEnd          string
	Noise           []string
}

// Service extracts records from documents. It is safe for concurrent use.
type Service struct {
	catalogue *patterns.Catalogue
	selector  *sniffer.Selector
	reader    source.Reader
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	opts      Options
}

// New creates a service. metrics may be nil.
func New(cat *patterns.Catalogue, reader source.Reader, logger *slog.Logger, metrics *Metrics, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Noise == nil {
		opts.Noise = gaps.DefaultNoise
	}
	return &Service{
		catalogue: cat,
		selector:  sniffer.ForCatalogue(cat),
		reader:    reader,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
		opts:      opts,
	}
}

// Catalogue returns the catalogue the service extracts with.
func (s *Service) Catalogue() *patterns.Catalogue { return s.catalogue }

// ProcessFiles reads and extracts each path. The source identifier of a
// document is its base name; two paths with the same base name reject the
// whole batch with ErrDuplicateSource.
func (s *Service) ProcessFiles(ctx context.Context, paths []string) (*BatchReport, error) {
	docs := make([]Document, len(paths))
	for i, p := range paths {
		docs[i] = Document{Source: filepath.Base(p), Path: p}
	}
	return s.Process(ctx, docs)
}

// Process extracts every document on a bounded worker pool. Each document
// yields exactly one outcome; failures and panics stay with their document.
// Cancelling ctx marks unprocessed documents with the context error, which is
// also returned.
func (s *Service) Process(ctx context.Context, docs []Document) (*BatchReport, error) {
	if err := checkDuplicates(docs); err != nil {
		return nil, err
	}

	report := &BatchReport{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(docs)),
	}

	ctx, span := s.tracer.Start(ctx, "receipts.batch", trace.WithAttributes(
		attribute.String("batch.id", report.ID.String()),
		attribute.Int("batch.documents", len(docs)),
	))
	defer span.End()

	s.logger.Info("batch started",
		slog.String("batch_id", report.ID.String()),
		slog.Int("documents", len(docs)),
		slog.Int("workers", s.opts.Workers),
		slog.String("catalogue", s.catalogue.Version()),
	)

	done := make([]bool, len(docs))
	for res := range s.run(ctx, docs) {
		report.Outcomes[res.index] = res.outcome
		done[res.index] = true
	}

	for i, ok := range done {
		if !ok {
			report.Outcomes[i] = Outcome{
				Source: docs[i].Source,
				Err:    &DocumentError{Source: docs[i].Source, Err: ctx.Err()},
			}
		}
	}

	records := make([]receipt.Record, 0, len(docs))
	for _, o := range report.Outcomes {
		if o.OK() {
			report.Succeeded++
			records = append(records, o.Record)
		} else {
			report.Failed++
		}
	}
	report.Summary = insights.Aggregate(records, s.catalogue.Roles())
	report.Duration = time.Since(report.StartedAt)

	span.SetAttributes(
		attribute.Int("batch.succeeded", report.Succeeded),
		attribute.Int("batch.failed", report.Failed),
	)

	s.logger.Info("batch finished",
		slog.String("batch_id", report.ID.String()),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	return report, nil
}

type job struct {
	index int
	doc   Document
}

type result struct {
	index   int
	outcome Outcome
}

func (s *Service) run(ctx context.Context, docs []Document) <-chan result {
	workers := s.opts.Workers
	if workers > len(docs) {
		workers = len(docs)
	}

	jobs := make(chan job, workers*4)
	results := make(chan result, workers*4)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				out := s.processOne(ctx, j.doc)
				select {
				case results <- result{index: j.index, outcome: out}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, d := range docs {
			select {
			case jobs <- job{index: i, doc: d}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// processOne handles a single document, converting panics into errors.
func (s *Service) processOne(ctx context.Context, doc Document) (out Outcome) {
	start := time.Now()
	out.Source = doc.Source

	ctx, span := s.tracer.Start(ctx, "receipts.document",
		trace.WithAttributes(attribute.String("document.source", doc.Source)))

	if s.opts.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DocumentTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Source: doc.Source, Locale: out.Locale, Err: fmt.Errorf("panic: %v", r)}
		}
		if out.Err != nil {
			out.Err = &DocumentError{Source: doc.Source, Err: out.Err}
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, out.Err.Error())
			s.logger.Warn("document failed",
				slog.String("source", doc.Source),
				slog.Any("error", out.Err),
			)
		}
		out.Duration = time.Since(start)
		span.SetAttributes(attribute.String("document.locale", string(out.Locale)))
		span.End()
		s.metrics.observe(out)
	}()

	text := doc.Text
	if text == "" && doc.Path != "" {
		if s.reader == nil {
			out.Err = fmt.Errorf("%w: no reader configured", source.ErrDocumentUnreadable)
			return out
		}
		var err error
		if text, err = s.reader.Read(ctx, doc.Path); err != nil {
			out.Err = err
			return out
		}
	}
	// image-only PDFs decode to whitespace
	if strings.TrimSpace(text) == "" {
		out.Err = fmt.Errorf("%w: no text", source.ErrDocumentUnreadable)
		return out
	}

	return s.Extract(doc.Source, text)
}

// Extract runs locale selection, field extraction and gap detection on text
// already in memory. It never fails; problems surface as diagnostics.
func (s *Service) Extract(src, text string) Outcome {
	locale, detected := s.opts.Locale, true
	if locale == "" {
		locale, detected = s.selector.Detect(text)
	}
	if !detected {
		s.logger.Debug("no locale marker, using default",
			slog.String("source", src),
			slog.String("locale", string(locale)),
			slog.Any("error", receipt.ErrLocaleIndeterminate),
		)
	}

	rs := s.catalogue.RuleSet(locale)
	res := parser.Analyze(src, text, rs, s.opts.Overrides...)
	if len(s.opts.Fill) > 0 {
		res = s.fill(res, text)
	}

	for _, d := range res.Diagnostics {
		if errors.Is(d.Err, receipt.ErrDateFormatMismatch) {
			s.logger.Debug("date format mismatch",
				slog.String("source", src),
				slog.String("field", d.Field),
				slog.Any("error", d.Err),
			)
		}
	}

	out := Outcome{
		Source:         src,
		Locale:         rs.Profile.Tag,
		LocaleDetected: detected,
		Record:         res.Record,
		Diagnostics:    res.Diagnostics,
	}
	if s.opts.GapStart != "" && s.opts.GapEnd != "" {
		rules := append(patterns.Merge(rs.Rules, s.opts.Overrides), s.opts.Fill...)
		out.Gaps = gaps.Find(text, rules, s.opts.GapStart, s.opts.GapEnd,
			gaps.WithNoise(s.opts.Noise...),
			gaps.WithFields(res.Record.Fields()...),
		)
	}
	return out
}

// fill retrofits the fill rules and drops absent-field diagnostics for the
// fields they filled.
func (s *Service) fill(res parser.Result, text string) parser.Result {
	rec := res.Record
	for _, r := range s.opts.Fill {
		rec = parser.Retrofit(rec, text, r)
	}

	diags := res.Diagnostics[:0:0]
	for _, d := range res.Diagnostics {
		if errors.Is(d.Err, receipt.ErrFieldAbsent) && rec.Present(d.Field) {
			continue
		}
		diags = append(diags, d)
	}
	for _, r := range s.opts.Fill {
		for _, f := range r.Fields() {
			if !res.Record.Has(f) && !rec.Present(f) {
				diags = append(diags, parser.Diagnostic{Field: f, Err: receipt.ErrFieldAbsent})
			}
		}
	}
	return parser.Result{Record: rec, Diagnostics: diags}
}

func checkDuplicates(docs []Document) error {
	seen := make(map[string]int, len(docs))
	for i, d := range docs {
		if prev, ok := seen[d.Source]; ok {
			return fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateSource, d.Source, prev+1, i+1)
		}
		seen[d.Source] = i
	}
	return nil
}
