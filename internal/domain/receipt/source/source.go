// Package source turns receipt files into linearized text: pages joined
// with newlines, line endings normalized to "\n".
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrDocumentUnreadable is the only per-document failure of a batch.
var ErrDocumentUnreadable = errors.New("document unreadable")

// PDF engines.
const (
	EngineNative    = "native"
	EnginePdftotext = "pdftotext"
)

// Reader extracts the text of one document.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// New returns a reader for .txt and .pdf files using the named PDF engine.
func New(engine string) (Reader, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineNative:
		return NewDispatcher(PDFReader{}), nil
	case EnginePdftotext:
		return NewDispatcher(NewPopplerReader(nil)), nil
	default:
		return nil, fmt.Errorf("unknown pdf engine %q", engine)
	}
}

// Dispatcher picks a reader by file extension.
type Dispatcher struct {
	readers map[string]Reader
}

// NewDispatcher handles .txt files as plain text and .pdf files with pdf.
func NewDispatcher(pdf Reader) *Dispatcher {
	return &Dispatcher{readers: map[string]Reader{
		".txt":  TextReader{},
		".text": TextReader{},
		".pdf":  pdf,
	}}
}

// Register adds or replaces the reader for an extension such as ".md".
func (d *Dispatcher) Register(ext string, r Reader) {
	d.readers[strings.ToLower(ext)] = r
}

// Read implements Reader.
func (d *Dispatcher) Read(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r, ok := d.readers[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s: unsupported extension %q", ErrDocumentUnreadable, path, ext)
	}
	return r.Read(ctx, path)
}

// Supported reports whether path has an extension the dispatcher reads.
func (d *Dispatcher) Supported(path string) bool {
	_, ok := d.readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// TextReader reads files that already hold linearized text.
type TextReader struct{}

// Read implements Reader.
func (TextReader) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}
	return Normalize(string(b)), nil
}

// Normalize converts CRLF, lone CR and form feeds to "\n" and trims
// trailing whitespace from each line.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.NewReplacer("\r", "\n", "\f", "\n").Replace(text)

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t ")
	}
	return strings.Join(lines, "\n")
}
