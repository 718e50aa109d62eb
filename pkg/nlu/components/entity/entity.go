// Package entity extracts entities with a keyword table built from a
// configured gazetteer and from the entity spans annotated in the training
// data.
package entity

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/components/htmlclean"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

// Name is the registry name of the component
const Name = "entity_extractor"

const (
	artifactKey  = "entity_extractor_file"
	artifactFile = "entity_extractor.yaml"
)

// Options configures the extractor
type Options struct {
	// Entities is an inline gazetteer
	Entities      config.Gazetteer `yaml:"entities"`
	GazetteerPath string           `yaml:"gazetteer_path"`
}

// Keyword is one gazetteer row
type Keyword struct {
	Text   string `yaml:"text"`
	Entity string `yaml:"entity"`
	Value  string `yaml:"value"`
}

type state struct {
	Keywords []Keyword `yaml:"keywords"`
	Seed     []Keyword `yaml:"seed,omitempty"`
}

// Extractor is the entity_extractor component
type Extractor struct {
	component.Base
	keywords []Keyword // longest first
	seen     map[string]struct{}
	seed     []Keyword // configured keywords, restored before every Train
}

// New creates an extractor seeded with the configured gazetteer
func New(cfg *config.Config) (*Extractor, error) {
	var opts Options
	if err := cfg.Decode(Name, &opts); err != nil {
		return nil, err
	}

	e := &Extractor{}
	e.addGazetteer(opts.Entities)
	if opts.GazetteerPath != "" {
		g, err := config.LoadGazetteer(opts.GazetteerPath)
		if err != nil {
			return nil, err
		}
		e.addGazetteer(g)
	}
	e.sortKeywords()
	e.seed = e.Keywords()
	return e, nil
}

// Load restores the gazetteer persisted with the model
func Load(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (*Extractor, error) {
	var st state
	if err := component.LoadArtifact(modelDir, md, artifactKey, &st); err != nil {
		return nil, err
	}
	e := &Extractor{seed: st.Seed}
	for _, kw := range st.Keywords {
		e.Add(kw)
	}
	e.sortKeywords()
	return e, nil
}

func (e *Extractor) addGazetteer(entities config.Gazetteer) {
	for _, typ := range sortedKeys(entities) {
		named := entities[typ]
		for _, name := range sortedKeys(named) {
			e.Add(Keyword{Text: name, Entity: typ, Value: name})
			for _, kw := range named[name] {
				e.Add(Keyword{Text: kw, Entity: typ, Value: name})
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Add puts a keyword into the gazetteer. A keyword already present keeps
// its first mapping.
func (e *Extractor) Add(kw Keyword) {
	kw.Text = strings.ToLower(strings.TrimSpace(kw.Text))
	if kw.Text == "" || kw.Entity == "" {
		return
	}
	if e.seen == nil {
		e.seen = make(map[string]struct{})
	}
	if _, ok := e.seen[kw.Text]; ok {
		return
	}
	e.seen[kw.Text] = struct{}{}
	e.keywords = append(e.keywords, kw)
}

func (e *Extractor) sortKeywords() {
	sort.SliceStable(e.keywords, func(i, j int) bool {
		if len(e.keywords[i].Text) != len(e.keywords[j].Text) {
			return len(e.keywords[i].Text) > len(e.keywords[j].Text)
		}
		return e.keywords[i].Text < e.keywords[j].Text
	})
}

func (e *Extractor) Name() string { return Name }

func (e *Extractor) Provides() []string { return []string{message.AttrEntities} }

// Train resets the keyword table to the configured gazetteer and adds every
// annotated entity span of data.
func (e *Extractor) Train(data *trainingdata.TrainingData, cfg *config.Config, shared component.Context) (component.Context, error) {
	e.keywords, e.seen = nil, nil
	for _, kw := range e.seed {
		e.Add(kw)
	}
	for _, ex := range data.EntityExamples() {
		for _, ent := range ex.Entities() {
			text := ent.Value
			if ent.Start >= 0 && ent.End <= len(ex.Text) && ent.Start < ent.End {
				text = ex.Text[ent.Start:ent.End]
			}
			e.Add(Keyword{Text: text, Entity: ent.Entity, Value: ent.Value})
		}
	}
	e.sortKeywords()
	return nil, nil
}

// Process appends the entities found in the message text to the ones
// already present. Offsets index msg.Text, not the cleaned text.
func (e *Extractor) Process(msg *message.Message, shared component.Context) error {
	found := e.Extract(msg.Text)
	if len(found) == 0 {
		return nil
	}
	entities := append(append([]message.Entity(nil), msg.Entities()...), found...)
	msg.Set(message.AttrEntities, entities, true)
	return nil
}

func (e *Extractor) Persist(dir string) (map[string]any, error) {
	return component.SaveArtifact(dir, artifactKey, artifactFile, state{Keywords: e.keywords, Seed: e.seed})
}

// Keywords returns the keyword table, longest keyword first
func (e *Extractor) Keywords() []Keyword {
	return append([]Keyword(nil), e.keywords...)
}

// Extract scans text left to right and returns non-overlapping matches,
// preferring the longest keyword at each position. Matching ignores case
// and only accepts whole words, except for Han keywords. Tags and the
// content of script and style elements never match; offsets still index
// text as given.
func (e *Extractor) Extract(text string) []message.Entity {
	var out []message.Entity
	markup := htmlclean.Markup(text)
	for i := 0; i < len(text); {
		for len(markup) > 0 && markup[0].End <= i {
			markup = markup[1:]
		}
		if len(markup) > 0 && markup[0].Start <= i {
			i = markup[0].End
			continue
		}

		kw, ok := e.matchAt(text, i)
		end := i + len(kw.Text)
		if ok && len(markup) > 0 && end > markup[0].Start {
			ok = false
		}
		if !ok {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		out = append(out, message.Entity{
			Start:      i,
			End:        end,
			Value:      kw.Value,
			Entity:     kw.Entity,
			Extractor:  Name,
			Confidence: 1,
		})
		i = end
	}
	return out
}

func (e *Extractor) matchAt(text string, i int) (Keyword, bool) {
	for _, kw := range e.keywords {
		end := i + len(kw.Text)
		if end > len(text) || !strings.EqualFold(text[i:end], kw.Text) {
			continue
		}
		if !boundaryBefore(text, i, kw.Text) || !boundaryAfter(text, end, kw.Text) {
			continue
		}
		return kw, true
	}
	return Keyword{}, false
}

func boundaryBefore(text string, i int, kw string) bool {
	if i == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(kw)
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.Is(unicode.Han, first) || unicode.Is(unicode.Han, prev) || !isWordRune(prev)
}

func boundaryAfter(text string, end int, kw string) bool {
	if end == len(text) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(kw)
	next, _ := utf8.DecodeRuneInString(text[end:])
	return unicode.Is(unicode.Han, last) || unicode.Is(unicode.Han, next) || !isWordRune(next)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
