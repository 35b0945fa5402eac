// Package sniffer detects which receipt locale a document belongs to by
// scanning for currency markers unique to each locale's template.
package sniffer

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

// Selector picks a locale from document text. All markers are matched in a
// single pass; when markers of several locales appear, the locale listed
// first in the catalogue's profile order wins.
// A Selector is immutable and safe for concurrent use.
type Selector struct {
	matcher  *ahocorasick.Matcher
	owners   []int // marker index -> profile index
	profiles []receipt.Locale
	def      receipt.Locale
}

// NewSelector builds a selector from profiles in priority order.
func NewSelector(profiles []patterns.LocaleProfile, def receipt.Locale) *Selector {
	s := &Selector{def: def}

	var markers []string
	for i, p := range profiles {
		s.profiles = append(s.profiles, p.Tag)
		for _, m := range p.Markers {
			if m == "" {
				continue
			}
			markers = append(markers, m)
			s.owners = append(s.owners, i)
		}
	}
	if len(markers) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(markers)
	}
	return s
}

// ForCatalogue builds a selector from a catalogue's profiles and default.
func ForCatalogue(c *patterns.Catalogue) *Selector {
	return NewSelector(c.Profiles(), c.Default())
}

// Detect returns the winning locale and whether any marker was found.
// Without a marker it returns the default locale and false.
func (s *Selector) Detect(text string) (receipt.Locale, bool) {
	if s.matcher == nil || text == "" {
		return s.def, false
	}

	hits := s.matcher.MatchThreadSafe([]byte(text))
	if len(hits) == 0 {
		return s.def, false
	}

	best := len(s.profiles)
	for _, idx := range hits {
		if idx >= 0 && idx < len(s.owners) && s.owners[idx] < best {
			best = s.owners[idx]
		}
	}
	if best == len(s.profiles) {
		return s.def, false
	}
	return s.profiles[best], true
}

// Select returns the locale for text, falling back to the default.
func (s *Selector) Select(text string) receipt.Locale {
	loc, _ := s.Detect(text)
	return loc
}

// Default returns the fallback locale.
func (s *Selector) Default() receipt.Locale {
	return s.def
}
