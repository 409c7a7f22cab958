package extract

import (
	"log"
	"strings"
)

// Correction removes a stray fragment that leaked into period labels.
//
// Seen in the wild: "ASSETS:" copied into the period labels of the balance
// sheet's asset section. This looks like an upstream parsing artifact, so the
// fixes are data, not code.
type Correction struct {
	// Section selects the sections to fix: any section whose name, or one of
	// whose line-item labels, contains this text. Empty means Fragment.
	Section string `yaml:"section" json:"section"`
	// Fragment is removed from every period label in the selected sections.
	Fragment string `yaml:"fragment" json:"fragment"`
}

// DefaultCorrections returns the single known correction.
func DefaultCorrections() []Correction {
	return []Correction{{Section: "ASSETS:", Fragment: "ASSETS:"}}
}

// SectionNameSanitizer applies corrections to a finished document.
type SectionNameSanitizer struct {
	corrections []Correction
}

// NewSectionNameSanitizer creates a sanitizer; nil means no corrections.
func NewSectionNameSanitizer(corrections []Correction) *SectionNameSanitizer {
	return &SectionNameSanitizer{corrections: corrections}
}

// Sanitize rewrites period labels in the matching sections and returns doc.
// Other sections are left untouched. A label that would become empty is kept.
func (s *SectionNameSanitizer) Sanitize(doc *Document) *Document {
	for _, c := range s.corrections {
		if c.Fragment == "" {
			continue
		}
		match := c.Section
		if match == "" {
			match = c.Fragment
		}

		for _, name := range doc.Sections.Keys() {
			items, _ := doc.Sections.Get(name)
			if !sectionMatches(name, items, match) {
				continue
			}
			for _, item := range items.Keys() {
				values, _ := items.Get(item)
				items.Set(item, s.stripLabels(doc.Table, name, values, c.Fragment))
			}
		}
	}
	return doc
}

func sectionMatches(name string, items *LineItems, match string) bool {
	if strings.Contains(name, match) {
		return true
	}
	for _, item := range items.Keys() {
		if strings.Contains(item, match) {
			return true
		}
	}
	return false
}

func (s *SectionNameSanitizer) stripLabels(tableIndex int, section string, values *PeriodValues, fragment string) *PeriodValues {
	out := NewOrderedMap[string]()
	for _, label := range values.Keys() {
		v, _ := values.Get(label)
		fixed := label
		if strings.Contains(label, fragment) {
			if stripped := strings.Join(strings.Fields(strings.ReplaceAll(label, fragment, " ")), " "); stripped != "" {
				fixed = stripped
			}
		}
		if out.Set(fixed, v) {
			log.Printf("[Sanitizer] Table %d: section %q has two values for %q after removing %q",
				tableIndex, section, fixed, fragment)
		}
	}
	return out
}
