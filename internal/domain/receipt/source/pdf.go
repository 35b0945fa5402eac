package source

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFReader extracts text in-process, one output line per text row.
type PDFReader struct{}

// Read implements Reader. Malformed files that make the decoder panic are
// reported as ErrDocumentUnreadable.
func (PDFReader) Read(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s: %v", ErrDocumentUnreadable, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrDocumentUnreadable, i, err)
		}

		var b strings.Builder
		for _, row := range rows {
			b.WriteString(joinRow(row.Content))
			b.WriteByte('\n')
		}
		pages = append(pages, b.String())
	}

	return Normalize(strings.Join(pages, "\n")), nil
}

// joinRow concatenates the text runs of a row, inserting a space where the
// horizontal gap between runs is wider than a fifth of the font size.
func joinRow(runs []pdf.Text) string {
	var b strings.Builder
	for i, t := range runs {
		if i > 0 {
			prev := runs[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > prev.FontSize*0.2 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CommandRunner executes an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PopplerReader shells out to poppler's pdftotext.
type PopplerReader struct {
	Binary string
	runner CommandRunner
}

// NewPopplerReader uses runner, or ExecRunner when nil.
func NewPopplerReader(runner CommandRunner) *PopplerReader {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PopplerReader{Binary: "pdftotext", runner: runner}
}

// Read implements Reader.
func (p *PopplerReader) Read(ctx context.Context, path string) (string, error) {
	out, err := p.runner.Run(ctx, p.Binary, "-enc", "UTF-8", path, "-")
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s failed: %w", ErrDocumentUnreadable, p.Binary, err)
	}
	return Normalize(string(out)), nil
}
