package tokenizer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/lexicon"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

// Name is the registry name of the component
const Name = "tokenizer"

// LexiconKey is the context key holding an optional *lexicon.Lexicon
const LexiconKey = "lexicon"

const (
	artifactKey  = "tokenizer_file"
	artifactFile = "tokenizer.yaml"
)

// Options configures the tokenizer
type Options struct {
	Stopwords     []string `yaml:"stopwords"`
	StopwordsPath string   `yaml:"stopwords_path"`
}

type state struct {
	Stopwords []string `yaml:"stopwords"`
}

// Tokenizer splits text into normalized tokens and stores them under
// message.AttrTokens. Markup-free text from html_cleaner is preferred over
// the raw text when present.
type Tokenizer struct {
	component.Base
	stopwords map[string]struct{}
}

// New creates a tokenizer from the tokenizer options in cfg
func New(cfg *config.Config) (*Tokenizer, error) {
	var opts Options
	if err := cfg.Decode(Name, &opts); err != nil {
		return nil, err
	}
	stops := opts.Stopwords
	if opts.StopwordsPath != "" {
		loaded, err := config.LoadStopwords(opts.StopwordsPath)
		if err != nil {
			return nil, err
		}
		stops = append(stops, loaded...)
	}
	return NewWithStopwords(stops), nil
}

// NewWithStopwords creates a tokenizer with the given stopword list
func NewWithStopwords(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Load restores the stopword list persisted with the model
func Load(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (*Tokenizer, error) {
	var st state
	if err := component.LoadArtifact(modelDir, md, artifactKey, &st); err != nil {
		return nil, err
	}
	return NewWithStopwords(st.Stopwords), nil
}

func (t *Tokenizer) Name() string { return Name }

func (t *Tokenizer) Provides() []string { return []string{message.AttrTokens} }

// Train tokenizes every example of the working corpus
func (t *Tokenizer) Train(data *trainingdata.TrainingData, cfg *config.Config, shared component.Context) (component.Context, error) {
	for _, ex := range data.Examples {
		if err := t.Process(ex, shared); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (t *Tokenizer) Process(msg *message.Message, shared component.Context) error {
	text := msg.Text
	if clean, ok := msg.Get(message.AttrCleanText); ok {
		if s, ok := clean.(string); ok {
			text = s
		}
	}
	lex, _ := shared[LexiconKey].(*lexicon.Lexicon)
	msg.Set(message.AttrTokens, t.Tokenize(text, lex), false)
	return nil
}

func (t *Tokenizer) Persist(dir string) (map[string]any, error) {
	stops := make([]string, 0, len(t.stopwords))
	for w := range t.stopwords {
		stops = append(stops, w)
	}
	sort.Strings(stops)
	return component.SaveArtifact(dir, artifactKey, artifactFile, state{Stopwords: stops})
}

// Tokenize splits text into normalized tokens, removing stopwords. Han
// characters become one token each. If lex is non-nil, tokens are
// normalized to their canonical forms.
func (t *Tokenizer) Tokenize(text string, lex *lexicon.Lexicon) []string {
	tokens := []string{}
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			if word := t.processToken(current.String(), lex); word != "" {
				tokens = append(tokens, word)
			}
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			current.WriteRune(r)
			flush()
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-':
			current.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// processToken applies cleaning, lexicon normalization, and stopword filtering.
func (t *Tokenizer) processToken(token string, lex *lexicon.Lexicon) string {
	word := cleanToken(token)
	if word == "" {
		return ""
	}
	// single ASCII letters carry nothing; a single Han character is a word
	if len(word) <= 1 {
		return ""
	}

	// Mixed tokens like "gpt-4", "utf-8", "python3" are kept.
	if isNumericOnly(word) {
		return ""
	}

	if lex != nil {
		word = lex.Normalize(word)
	}

	if t.isStopword(word) {
		return ""
	}

	return word
}

// cleanToken strips leading/trailing hyphens and normalizes consecutive hyphens
func cleanToken(token string) string {
	token = strings.Trim(token, "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}
