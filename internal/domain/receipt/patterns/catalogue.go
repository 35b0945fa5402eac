package patterns

import (
	"errors"
	"fmt"
	"slices"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
)

var ErrInvalidCatalogue = errors.New("invalid catalogue")

// Role tags fields that the batch summary aggregates.
type Role string

const (
	RoleNone     Role = ""
	RoleFee      Role = "fee"
	RoleTax      Role = "tax"
	RoleTip      Role = "tip"
	RoleTotal    Role = "total"
	RoleDuration Role = "duration"
)

// FieldSpec is one column of the record shape.
type FieldSpec struct {
	Name string
	Role Role
}

// LocaleProfile describes a receipt template family and how to recognise it.
type LocaleProfile struct {
	Tag      receipt.Locale
	Country  string
	Currency string // ISO-4217
	Markers  []string
}

// LocaleRules pairs a profile with its locale-specific rules.
type LocaleRules struct {
	Profile LocaleProfile
	Rules   []Rule
}

// Spec is the input to New. Locales are listed in marker priority order.
type Spec struct {
	Version string
	Fields  []FieldSpec
	Global  []Rule
	Locales []LocaleRules
	Default receipt.Locale
}

// Roles names the fields the summary reads.
type Roles struct {
	Total    string
	Duration string
	Tax      string
	Tip      string
	Fees     []string
}

// Catalogue is an immutable, versioned set of extraction rules.
// It is safe for concurrent use.
type Catalogue struct {
	version  string
	fields   []FieldSpec
	global   []Rule
	profiles []LocaleProfile
	byLocale map[receipt.Locale][]Rule
	def      receipt.Locale
}

// RuleSet is the effective rule list for one locale: global rules followed by
// the locale's rules, merged last-write-wins by rule ID.
type RuleSet struct {
	Version string
	Profile LocaleProfile
	Fields  []string
	Rules   []Rule
}

// New validates spec and builds a catalogue.
func New(spec Spec) (*Catalogue, error) {
	if spec.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidCatalogue)
	}
	if len(spec.Locales) == 0 {
		return nil, fmt.Errorf("%w: no locales", ErrInvalidCatalogue)
	}

	known := make(map[string]struct{}, len(spec.Fields))
	roleOwner := make(map[Role]string)
	for _, f := range spec.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidCatalogue)
		}
		if _, dup := known[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidCatalogue, f.Name)
		}
		known[f.Name] = struct{}{}
		if f.Role != RoleNone && f.Role != RoleFee {
			if owner, taken := roleOwner[f.Role]; taken {
				return nil, fmt.Errorf("%w: role %s held by %q and %q", ErrInvalidCatalogue, f.Role, owner, f.Name)
			}
			roleOwner[f.Role] = f.Name
		}
	}

	checkRules := func(layer string, rules []Rule) error {
		ids := make(map[string]struct{}, len(rules))
		for _, r := range rules {
			if _, dup := ids[r.ID]; dup {
				return fmt.Errorf("%w: %s: duplicate rule %q", ErrInvalidCatalogue, layer, r.ID)
			}
			ids[r.ID] = struct{}{}
			for _, f := range r.Fields() {
				if _, ok := known[f]; !ok {
					return fmt.Errorf("%w: %s: rule %q targets unknown field %q", ErrInvalidCatalogue, layer, r.ID, f)
				}
			}
		}
		return nil
	}
	if err := checkRules("global", spec.Global); err != nil {
		return nil, err
	}

	c := &Catalogue{
		version:  spec.Version,
		fields:   slices.Clone(spec.Fields),
		global:   slices.Clone(spec.Global),
		byLocale: make(map[receipt.Locale][]Rule, len(spec.Locales)),
		def:      spec.Default,
	}
	for _, lr := range spec.Locales {
		tag := lr.Profile.Tag
		if tag == "" {
			return nil, fmt.Errorf("%w: locale without tag", ErrInvalidCatalogue)
		}
		if _, dup := c.byLocale[tag]; dup {
			return nil, fmt.Errorf("%w: duplicate locale %s", ErrInvalidCatalogue, tag)
		}
		if err := checkRules(string(tag), lr.Rules); err != nil {
			return nil, err
		}
		p := lr.Profile
		p.Markers = slices.Clone(p.Markers)
		c.profiles = append(c.profiles, p)
		c.byLocale[tag] = slices.Clone(lr.Rules)
	}
	if _, ok := c.byLocale[c.def]; !ok {
		return nil, fmt.Errorf("%w: default locale %q not defined", ErrInvalidCatalogue, c.def)
	}

	return c, nil
}

// Version identifies this catalogue revision.
func (c *Catalogue) Version() string { return c.version }

// Default returns the locale used when no marker is found.
func (c *Catalogue) Default() receipt.Locale { return c.def }

// Fields returns every known field name in column order.
func (c *Catalogue) Fields() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.Name
	}
	return out
}

// FieldSpecs returns the field catalogue.
func (c *Catalogue) FieldSpecs() []FieldSpec {
	return slices.Clone(c.fields)
}

// Profiles returns the locale profiles in marker priority order.
func (c *Catalogue) Profiles() []LocaleProfile {
	out := make([]LocaleProfile, len(c.profiles))
	for i, p := range c.profiles {
		p.Markers = slices.Clone(p.Markers)
		out[i] = p
	}
	return out
}

// Profile looks up a locale profile.
func (c *Catalogue) Profile(tag receipt.Locale) (LocaleProfile, bool) {
	for _, p := range c.profiles {
		if p.Tag == tag {
			p.Markers = slices.Clone(p.Markers)
			return p, true
		}
	}
	return LocaleProfile{}, false
}

// Global returns the locale-independent rules.
func (c *Catalogue) Global() []Rule {
	return slices.Clone(c.global)
}

// LocaleRules returns the rules specific to tag.
func (c *Catalogue) LocaleRules(tag receipt.Locale) []Rule {
	return slices.Clone(c.byLocale[tag])
}

// RuleSet resolves the effective rules for tag. Unknown tags resolve to the
// default locale.
func (c *Catalogue) RuleSet(tag receipt.Locale) RuleSet {
	p, ok := c.Profile(tag)
	if !ok {
		p, _ = c.Profile(c.def)
	}
	return RuleSet{
		Version: c.version,
		Profile: p,
		Fields:  c.Fields(),
		Rules:   Merge(c.global, c.byLocale[p.Tag]),
	}
}

// Roles reports which fields feed the batch summary. Fee fields are the union
// over all locales.
func (c *Catalogue) Roles() Roles {
	var r Roles
	for _, f := range c.fields {
		switch f.Role {
		case RoleTotal:
			r.Total = f.Name
		case RoleDuration:
			r.Duration = f.Name
		case RoleTax:
			r.Tax = f.Name
		case RoleTip:
			r.Tip = f.Name
		case RoleFee:
			r.Fees = append(r.Fees, f.Name)
		}
	}
	return r
}
