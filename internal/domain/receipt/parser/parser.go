// Package parser applies a rule set to linearized receipt text and produces
// one record per document. Recoverable problems (missing fields, malformed
// dates) become sentinel values in the record rather than errors.
package parser

import (
	"strings"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

// Diagnostic describes a field that resolved to a sentinel.
type Diagnostic struct {
	Field string
	Value string // raw capture, empty for absent fields
	Err   error
}

// Result is a record plus the diagnostics collected while building it.
type Result struct {
	Record      receipt.Record
	Diagnostics []Diagnostic
}

// Extract applies rs followed by overrides to text. Overrides replace rules
// with the same ID. The record has every field of rs plus any field only an
// override targets; unmatched fields hold receipt.Absent.
func Extract(text string, rs patterns.RuleSet, overrides ...patterns.Rule) receipt.Record {
	return Analyze("", text, rs, overrides...).Record
}

// ExtractSource is Extract with the record's source identifier set.
func ExtractSource(source, text string, rs patterns.RuleSet, overrides ...patterns.Rule) receipt.Record {
	return Analyze(source, text, rs, overrides...).Record
}

// Analyze extracts a record and reports which fields fell back to a sentinel.
func Analyze(source, text string, rs patterns.RuleSet, overrides ...patterns.Rule) Result {
	rules := patterns.Merge(rs.Rules, overrides)

	values := make(map[string]string, len(rs.Fields))
	// set before the rules so an override can replace it
	if rs.Profile.Country != "" {
		values[receipt.FieldCountry] = rs.Profile.Country
	}
	var diags []Diagnostic
	for _, r := range rules {
		diags = append(diags, apply(r, text, values)...)
	}

	fields := rs.Fields
	for _, r := range overrides {
		for _, f := range r.Fields() {
			if !contains(fields, f) {
				fields = append(fields[:len(fields):len(fields)], f)
			}
		}
	}

	rec := receipt.NewRecord(receipt.Meta{
		Source:   source,
		Locale:   rs.Profile.Tag,
		Currency: rs.Profile.Currency,
	}, fields, values)

	for _, f := range rec.Missing() {
		diags = append(diags, Diagnostic{Field: f, Err: receipt.ErrFieldAbsent})
	}

	return Result{Record: rec, Diagnostics: diags}
}

// Retrofit applies one ad-hoc rule to an already extracted record and returns
// a copy. Only fields currently holding receipt.Absent are filled; a field the
// record does not have yet is added, as Absent if the rule finds nothing.
func Retrofit(rec receipt.Record, text string, rule patterns.Rule) receipt.Record {
	values := make(map[string]string, len(rule.Targets))
	apply(rule, text, values)

	out := rec
	for _, f := range rule.Fields() {
		v, matched := values[f]
		switch {
		case !out.Has(f) && !matched:
			out = out.With(f, receipt.Absent)
		case matched && out.Value(f) == receipt.Absent:
			out = out.With(f, v)
		}
	}
	return out
}

// apply runs one rule against the full text and writes its targets into
// values. Targets fed by the same match are written together or not at all.
func apply(r patterns.Rule, text string, values map[string]string) []Diagnostic {
	if r.Pattern == nil {
		return nil
	}

	var all [][]int
	if r.NeedsAll() {
		all = r.Pattern.FindAllStringSubmatchIndex(text, -1)
	}

	var diags []Diagnostic
	for _, occ := range []patterns.Occurrence{
		patterns.OccurrenceSingle,
		patterns.OccurrenceFirst,
		patterns.OccurrenceLast,
		patterns.OccurrenceAll,
	} {
		targets := targetsFor(r, occ)
		if len(targets) == 0 {
			continue
		}

		switch occ {
		case patterns.OccurrenceSingle:
			diags = append(diags, write(text, r.Pattern.FindStringSubmatchIndex(text), targets, values)...)
		case patterns.OccurrenceFirst:
			if len(all) > 0 {
				diags = append(diags, write(text, all[0], targets, values)...)
			}
		case patterns.OccurrenceLast:
			if len(all) > 0 {
				diags = append(diags, write(text, all[len(all)-1], targets, values)...)
			}
		case patterns.OccurrenceAll:
			diags = append(diags, writeAll(text, all, targets, values)...)
		}
	}
	return diags
}

func write(text string, loc []int, targets []patterns.Target, values map[string]string) []Diagnostic {
	captured, ok := captures(text, loc, targets)
	if !ok {
		return nil
	}

	var diags []Diagnostic
	for i, t := range targets {
		v, err := normalize(t, captured[i])
		if err != nil {
			diags = append(diags, Diagnostic{Field: t.Field, Value: captured[i], Err: err})
		}
		values[t.Field] = v
	}
	return diags
}

func writeAll(text string, all [][]int, targets []patterns.Target, values map[string]string) []Diagnostic {
	joined := make([][]string, len(targets))
	var diags []Diagnostic
	for _, loc := range all {
		captured, ok := captures(text, loc, targets)
		if !ok {
			continue
		}
		for i, t := range targets {
			v, err := normalize(t, captured[i])
			if err != nil {
				diags = append(diags, Diagnostic{Field: t.Field, Value: captured[i], Err: err})
			}
			joined[i] = append(joined[i], v)
		}
	}
	if len(joined[0]) == 0 {
		return diags
	}
	for i, t := range targets {
		values[t.Field] = strings.Join(joined[i], "; ")
	}
	return diags
}

// captures returns the trimmed group values for targets, or false when any
// of them is missing or blank.
func captures(text string, loc []int, targets []patterns.Target) ([]string, bool) {
	if loc == nil {
		return nil, false
	}
	out := make([]string, len(targets))
	for i, t := range targets {
		start, end := 2*t.Group, 2*t.Group+1
		if end >= len(loc) || loc[start] < 0 {
			return nil, false
		}
		v := strings.TrimSpace(text[loc[start]:loc[end]])
		if v == "" {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func normalize(t patterns.Target, v string) (string, error) {
	if t.Layout == "" {
		return v, nil
	}
	return NormalizeDate(v, t.Layout)
}

func targetsFor(r patterns.Rule, occ patterns.Occurrence) []patterns.Target {
	var out []patterns.Target
	for _, t := range r.Targets {
		if t.Occurrence == occ {
			out = append(out, t)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
