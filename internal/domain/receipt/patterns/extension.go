package patterns

import (
	"fmt"
	"io"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
)

// Extension adds or replaces rules and fields on top of a catalogue.
type Extension struct {
	Version string
	Fields  []FieldSpec
	Global  []Rule
	Locales map[receipt.Locale][]Rule
}

// extensionFile is the TOML layout of an extension:
//
//	version = "2024.1-airport"
//
//	[[fields]]
//	name = "Airport Fee"
//	role = "fee"
//
//	[[rules]]
//	id      = "Airport Fee"
//	locale  = "CA"
//	pattern = 'Airport Fee CA\$([\d,]+\.\d{2})'
//	field   = "Airport Fee"
type extensionFile struct {
	Version string       `toml:"version"`
	Fields  []fieldEntry `toml:"fields"`
	Rules   []ruleEntry  `toml:"rules"`
}

type fieldEntry struct {
	Name string `toml:"name"`
	Role string `toml:"role"`
}

type ruleEntry struct {
	ID      string        `toml:"id"`
	Locale  string        `toml:"locale"`
	Pattern string        `toml:"pattern"`
	Field   string        `toml:"field"`
	Layout  string        `toml:"layout"`
	Targets []targetEntry `toml:"targets"`
}

type targetEntry struct {
	Field      string `toml:"field"`
	Group      int    `toml:"group"`
	Occurrence string `toml:"occurrence"`
	Layout     string `toml:"layout"`
}

// LoadExtension decodes a TOML extension and compiles its rules.
func LoadExtension(r io.Reader) (Extension, error) {
	var file extensionFile
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&file); err != nil {
		return Extension{}, fmt.Errorf("failed to decode catalogue extension: %w", err)
	}

	ext := Extension{
		Version: file.Version,
		Locales: make(map[receipt.Locale][]Rule),
	}
	for _, f := range file.Fields {
		role, err := parseRole(f.Role)
		if err != nil {
			return Extension{}, err
		}
		ext.Fields = append(ext.Fields, FieldSpec{Name: f.Name, Role: role})
	}

	for i, entry := range file.Rules {
		rule, err := entry.compile()
		if err != nil {
			return Extension{}, fmt.Errorf("rule %d: %w", i, err)
		}
		if entry.Locale == "" {
			ext.Global = append(ext.Global, rule)
			continue
		}
		tag := receipt.Locale(entry.Locale)
		ext.Locales[tag] = append(ext.Locales[tag], rule)
	}

	return ext, nil
}

func (e ruleEntry) compile() (Rule, error) {
	id := e.ID
	if id == "" {
		id = e.Field
	}
	if len(e.Targets) == 0 {
		if e.Field == "" {
			return Rule{}, fmt.Errorf("%w: %s: needs field or targets", ErrInvalidRule, id)
		}
		return NewRule(id, e.Pattern, Target{Field: e.Field, Group: 1, Occurrence: OccurrenceSingle, Layout: e.Layout})
	}

	targets := make([]Target, len(e.Targets))
	for i, t := range e.Targets {
		occ, err := ParseOccurrence(t.Occurrence)
		if err != nil {
			return Rule{}, err
		}
		targets[i] = Target{Field: t.Field, Group: t.Group, Occurrence: occ, Layout: t.Layout}
	}
	return NewRule(id, e.Pattern, targets...)
}

func parseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleNone, RoleFee, RoleTax, RoleTip, RoleTotal, RoleDuration:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidCatalogue, s)
	}
}

// Extend returns a new catalogue with ext layered on top. New fields are
// appended to the column order; a field listed again takes the new role.
// Rules merge last-write-wins by ID within their layer. c is not modified.
func (c *Catalogue) Extend(ext Extension) (*Catalogue, error) {
	version := ext.Version
	if version == "" {
		version = c.version + "+ext"
	}

	fields := slices.Clone(c.fields)
	for _, f := range ext.Fields {
		idx := slices.IndexFunc(fields, func(existing FieldSpec) bool { return existing.Name == f.Name })
		if idx >= 0 {
			fields[idx].Role = f.Role
			continue
		}
		fields = append(fields, f)
	}

	spec := Spec{
		Version: version,
		Fields:  fields,
		Global:  Merge(c.global, ext.Global),
		Default: c.def,
	}
	for tag := range ext.Locales {
		if _, ok := c.byLocale[tag]; !ok {
			return nil, fmt.Errorf("%w: extension targets unknown locale %q", ErrInvalidCatalogue, tag)
		}
	}
	for _, p := range c.profiles {
		spec.Locales = append(spec.Locales, LocaleRules{
			Profile: p,
			Rules:   Merge(c.byLocale[p.Tag], ext.Locales[p.Tag]),
		})
	}

	return New(spec)
}
