// Package gaps reports receipt lines that no extraction rule recognizes.
// The report is advisory: it points catalogue maintainers at line items a
// template change introduced.
package gaps

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

// DefaultNoise lists markers of lines that are never reported.
var DefaultNoise = []string{"Subtotal"}

// Gap is one unrecognized line.
type Gap struct {
	Line       int    // 1-based line number in the document
	Text       string // trimmed line text
	Suggestion string // closest known field name, empty when nothing is close
}

// Report is the ordered list of gaps of one document.
type Report struct {
	Gaps []Gap
}

// Empty reports whether every line of the region was recognized.
func (r Report) Empty() bool { return len(r.Gaps) == 0 }

// Lines returns the gap texts in document order.
func (r Report) Lines() []string {
	out := make([]string, len(r.Gaps))
	for i, g := range r.Gaps {
		out[i] = g.Text
	}
	return out
}

type options struct {
	noise  []string
	fields []string
	minSim int
}

// Option configures Find.
type Option func(*options)

// WithNoise replaces the default noise markers.
func WithNoise(markers ...string) Option {
	return func(o *options) { o.noise = markers }
}

// WithFields sets the field names suggestions are drawn from. Without it the
// fields targeted by the rules are used.
func WithFields(fields ...string) Option {
	return func(o *options) { o.fields = fields }
}

// WithMinSimilarity sets the score (0-100) a field needs to be suggested.
func WithMinSimilarity(score int) Option {
	return func(o *options) { o.minSim = score }
}

// Find scans the text between the first start marker and the first end
// marker after it, line by line, and reports the lines no rule matches.
// A line cut by an anchor is reported by its in-region part but matched, and
// checked for noise, as the whole document line. Blank lines are skipped.
// A missing anchor yields an empty report.
func Find(text string, rules []patterns.Rule, start, end string, opts ...Option) Report {
	o := options{noise: DefaultNoise, minSim: 60}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fields == nil {
		for _, r := range rules {
			o.fields = append(o.fields, r.Fields()...)
		}
	}

	from, to, ok := region(text, start, end)
	if !ok {
		return Report{}
	}

	var report Report
	lineNo := strings.Count(text[:from], "\n") + 1
	for pos := from; pos <= to; lineNo++ {
		fragEnd := to
		if i := strings.IndexByte(text[pos:to], '\n'); i >= 0 {
			fragEnd = pos + i
		}
		fragment := strings.TrimSpace(text[pos:fragEnd])
		if fragment != "" {
			line := enclosingLine(text, pos)
			if !containsAny(line, o.noise) && !matchesAny(fragment, rules) && !matchesAny(line, rules) {
				report.Gaps = append(report.Gaps, Gap{
					Line:       lineNo,
					Text:       fragment,
					Suggestion: suggest(fragment, o.fields, o.minSim),
				})
			}
		}
		pos = fragEnd + 1
	}
	return report
}

// region returns the byte range [from, to) strictly between the first start
// marker and the first end marker after it.
func region(text, start, end string) (int, int, bool) {
	if start == "" || end == "" {
		return 0, 0, false
	}
	si := strings.Index(text, start)
	if si < 0 {
		return 0, 0, false
	}
	from := si + len(start)
	ei := strings.Index(text[from:], end)
	if ei < 0 {
		return 0, 0, false
	}
	return from, from + ei, true
}

// enclosingLine returns the trimmed document line holding offset pos.
func enclosingLine(text string, pos int) string {
	begin := strings.LastIndexByte(text[:pos], '\n') + 1
	finish := len(text)
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		finish = pos + i
	}
	return strings.TrimSpace(text[begin:finish])
}

func containsAny(line string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func matchesAny(line string, rules []patterns.Rule) bool {
	for _, r := range rules {
		if r.Matches(line) {
			return true
		}
	}
	return false
}

// label strips the amount part of a line item: "Airport Fee CA$3.00" -> "Airport Fee".
func label(line string) string {
	cut := strings.IndexFunc(line, func(r rune) bool {
		return unicode.IsDigit(r) || unicode.Is(unicode.Sc, r)
	})
	if cut >= 0 {
		line = line[:cut]
	}
	line = strings.TrimSpace(line)
	// currency prefixes such as "CA" in "CA$"
	if i := strings.LastIndex(line, " "); i >= 0 && isUpper(line[i+1:]) && len(line[i+1:]) <= 3 {
		line = strings.TrimSpace(line[:i])
	}
	return line
}

func isUpper(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// suggest returns the known field most similar to the line's label.
func suggest(line string, fields []string, minSim int) string {
	l := strings.ToLower(label(line))
	if l == "" {
		return ""
	}

	best, bestScore := "", 0
	for _, f := range fields {
		if score := similarity(l, strings.ToLower(f)); score > bestScore {
			best, bestScore = f, score
		}
	}
	if bestScore < minSim {
		return ""
	}
	return best
}

// similarity scores two lowercase strings from 0 to 100 using the better of
// edit distance and subsequence rank.
func similarity(a, b string) int {
	if a == b {
		return 100
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}

	score := 100 * (maxLen - fuzzy.LevenshteinDistance(a, b)) / maxLen

	if rank := fuzzy.RankMatch(a, b); rank >= 0 && len(a) >= 4 {
		// a is a subsequence of b; fewer leftover characters is better
		if sub := 100 - 50*rank/len(b); sub > score {
			score = sub
		}
	}
	return score
}
