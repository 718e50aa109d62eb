package lexicon

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps token variants to a canonical form:
// - Synonyms: different words with same meaning (car ↔ automobile)
// - Variants: inflections/forms (book ↔ booking ↔ booked)
// - Acronyms: abbreviations (nyc ↔ new-york)
//
// The tokenizer component normalizes tokens through it, so every later
// component sees canonical forms only.
type Lexicon struct {
	// canonical -> all variants (including canonical itself)
	synonyms map[string][]string

	// variant -> canonical
	reverseIndex map[string]string
}

// Group is one synonym group in the YAML file
type Group struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

type file struct {
	Synonyms []Group `yaml:"synonyms"`
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		synonyms:     make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// FromGroups builds a lexicon from synonym groups
func FromGroups(groups []Group) *Lexicon {
	lex := New()
	for _, g := range groups {
		lex.AddSynonymGroup(g.Canonical, g.Variants)
	}
	return lex
}

// LoadFromYAML loads synonym mappings from a YAML file.
//
// Expected format:
//
//	synonyms:
//	  - canonical: book
//	    variants: [booking, booked, reserve]
//	  - canonical: nyc
//	    variants: [new-york]
//
// All tokens are lowercased; the canonical form is included in its own
// variant list.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return FromGroups(f.Synonyms), nil
}

// SaveYAML writes the lexicon in the format LoadFromYAML reads
func (l *Lexicon) SaveYAML(path string) error {
	data, err := yaml.Marshal(file{Synonyms: l.Groups()})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Groups returns the synonym groups sorted by canonical form
func (l *Lexicon) Groups() []Group {
	groups := make([]Group, 0, len(l.synonyms))
	for canonical, variants := range l.synonyms {
		groups = append(groups, Group{
			Canonical: canonical,
			Variants:  append([]string(nil), variants[1:]...),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Canonical < groups[j].Canonical
	})
	return groups
}

// AddSynonymGroup adds a synonym group with a canonical form and its variants.
// The canonical form is always included as the first entry in the variants list.
// If the group already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddSynonymGroup(canonical string, variants []string) {
	canonical = strings.ToLower(canonical)

	if oldVariants, exists := l.synonyms[canonical]; exists {
		for _, oldV := range oldVariants {
			delete(l.reverseIndex, oldV)
		}
	}

	normalized := make([]string, 0, len(variants)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, canonical)
	seen[canonical] = true

	for _, v := range variants {
		v = strings.ToLower(v)
		if !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}

	l.synonyms[canonical] = normalized

	for _, v := range normalized {
		l.reverseIndex[v] = canonical
	}
}

// Normalize returns the canonical form of a token.
// If the token is not in the lexicon, returns the token itself.
//
// Examples:
//   - Normalize("booking") -> "book"
//   - Normalize("unknown") -> "unknown"
func (l *Lexicon) Normalize(token string) string {
	token = strings.ToLower(token)
	if canonical, ok := l.reverseIndex[token]; ok {
		return canonical
	}
	return token
}

// Variants returns all known variants of a token (including the canonical form).
// If the token is not in the lexicon, returns a slice containing only the token itself.
func (l *Lexicon) Variants(token string) []string {
	token = strings.ToLower(token)

	if variants, ok := l.synonyms[token]; ok {
		return variants
	}
	if canonical, ok := l.reverseIndex[token]; ok {
		if variants, ok := l.synonyms[canonical]; ok {
			return variants
		}
	}
	return []string{token}
}

// HasSynonyms returns true if the token has synonyms/variants in the lexicon.
func (l *Lexicon) HasSynonyms(token string) bool {
	_, exists := l.reverseIndex[strings.ToLower(token)]
	return exists
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	totalVariants := 0
	for _, variants := range l.synonyms {
		totalVariants += len(variants)
	}
	return Stats{
		SynonymGroups: len(l.synonyms),
		TotalVariants: totalVariants,
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	SynonymGroups int // Number of canonical forms (synonym groups)
	TotalVariants int // Total number of variants across all groups
}
