// Package patterns provides the extraction rule catalogue: named regular
// expressions whose capture groups populate record fields, partitioned into
// global and locale-specific layers.
package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidRule       = errors.New("invalid rule")
	ErrInvalidOccurrence = errors.New("invalid occurrence policy")
)

// Occurrence selects which match of a rule feeds a target.
type Occurrence string

const (
	// OccurrenceSingle runs one search and uses the first match.
	OccurrenceSingle Occurrence = "single"
	// OccurrenceFirst takes the first entry of the find-all match set.
	OccurrenceFirst Occurrence = "first"
	// OccurrenceLast takes the last entry of the find-all match set.
	OccurrenceLast Occurrence = "last"
	// OccurrenceAll joins every match with "; ".
	OccurrenceAll Occurrence = "all"
)

// ParseOccurrence converts a textual policy. Empty means single.
func ParseOccurrence(s string) (Occurrence, error) {
	switch o := Occurrence(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OccurrenceSingle, nil
	case OccurrenceSingle, OccurrenceFirst, OccurrenceLast, OccurrenceAll:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOccurrence, s)
	}
}

// Target maps one capture group of a rule to a record field.
type Target struct {
	Field      string
	Group      int
	Occurrence Occurrence
	// Layout, when set, marks a date-like value parsed with time.Parse.
	Layout string
}

// Single targets group 1 of the first match.
func Single(field string) Target {
	return Target{Field: field, Group: 1, Occurrence: OccurrenceSingle}
}

// Date targets group 1 of the first match and normalizes it from layout.
func Date(field, layout string) Target {
	return Target{Field: field, Group: 1, Occurrence: OccurrenceSingle, Layout: layout}
}

// Rule is a compiled pattern plus its group mapping.
type Rule struct {
	ID      string
	Pattern *regexp.Regexp
	Targets []Target
}

// NewRule compiles pattern and validates the group mapping.
func NewRule(id, pattern string, targets ...Target) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %s: %w", ErrInvalidRule, id, err)
	}
	return newRule(id, re, targets)
}

// MustRule is NewRule for catalogue literals; it panics on error.
func MustRule(id, pattern string, targets ...Target) Rule {
	r, err := NewRule(id, pattern, targets...)
	if err != nil {
		panic(err)
	}
	return r
}

// Override builds an ad-hoc single-field rule from a (field, pattern) pair.
// The first capture group is used when the pattern has one, otherwise the
// whole match.
func Override(field, pattern string) (Rule, error) {
	field = strings.TrimSpace(field)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %s: %w", ErrInvalidRule, field, err)
	}
	group := 0
	if re.NumSubexp() > 0 {
		group = 1
	}
	return newRule(field, re, []Target{{Field: field, Group: group, Occurrence: OccurrenceSingle}})
}

func newRule(id string, re *regexp.Regexp, targets []Target) (Rule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Rule{}, fmt.Errorf("%w: empty id", ErrInvalidRule)
	}
	if len(targets) == 0 {
		return Rule{}, fmt.Errorf("%w: %s: no targets", ErrInvalidRule, id)
	}

	out := make([]Target, len(targets))
	seen := make(map[string]struct{}, len(targets))
	lastGroup := make(map[Occurrence]int)
	for i, t := range targets {
		t.Field = strings.TrimSpace(t.Field)
		if t.Field == "" {
			return Rule{}, fmt.Errorf("%w: %s: target %d has no field", ErrInvalidRule, id, i)
		}
		if _, dup := seen[t.Field]; dup {
			return Rule{}, fmt.Errorf("%w: %s: field %q mapped twice", ErrInvalidRule, id, t.Field)
		}
		seen[t.Field] = struct{}{}

		occ, err := ParseOccurrence(string(t.Occurrence))
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %s: %w", ErrInvalidRule, id, err)
		}
		t.Occurrence = occ

		if t.Group < 0 || t.Group > re.NumSubexp() {
			return Rule{}, fmt.Errorf("%w: %s: group %d out of range (pattern has %d)",
				ErrInvalidRule, id, t.Group, re.NumSubexp())
		}
		// Fields served by the same match set must follow group order.
		if prev, ok := lastGroup[occ]; ok && t.Group <= prev {
			return Rule{}, fmt.Errorf("%w: %s: groups for %s targets must increase", ErrInvalidRule, id, occ)
		}
		lastGroup[occ] = t.Group
		out[i] = t
	}

	return Rule{ID: id, Pattern: re, Targets: out}, nil
}

// Fields returns the target field names in group order.
func (r Rule) Fields() []string {
	out := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		out[i] = t.Field
	}
	return out
}

// Matches reports whether the rule pattern matches s anywhere.
func (r Rule) Matches(s string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(s)
}

// NeedsAll reports whether any target reads from the find-all match set.
func (r Rule) NeedsAll() bool {
	for _, t := range r.Targets {
		if t.Occurrence != OccurrenceSingle {
			return true
		}
	}
	return false
}

// Merge layers rule lists in order. A rule whose ID was already seen replaces
// the earlier definition in place; new IDs are appended. The result never
// aliases the inputs.
func Merge(layers ...[]Rule) []Rule {
	var out []Rule
	index := make(map[string]int)
	for _, layer := range layers {
		for _, r := range layer {
			if i, ok := index[r.ID]; ok {
				out[i] = r
				continue
			}
			index[r.ID] = len(out)
			out = append(out, r)
		}
	}
	return out
}
