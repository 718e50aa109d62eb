package multitoken

import (
	"strings"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

// Name is the registry name of the component
const Name = "multitoken"

const (
	artifactKey  = "multitoken_file"
	artifactFile = "multitoken.yaml"
)

// Options configures the phrase dictionary
type Options struct {
	Phrases     []config.Phrase `yaml:"phrases"`
	PhrasesPath string          `yaml:"phrases_path"`
}

type state struct {
	Phrases []config.Phrase `yaml:"phrases"`
}

// Parser merges multi-word phrases in message.AttrTokens into their
// canonical form, e.g. ["new", "york"] → ["new york"].
type Parser struct {
	component.Base
	phrases []config.Phrase
	dict    map[string]config.Phrase // lowercased surface form → phrase
	maxLen  int
}

// New creates a parser from the multitoken options in cfg
func New(cfg *config.Config) (*Parser, error) {
	var opts Options
	if err := cfg.Decode(Name, &opts); err != nil {
		return nil, err
	}
	phrases := opts.Phrases
	if opts.PhrasesPath != "" {
		loaded, err := config.LoadPhrases(opts.PhrasesPath)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, loaded...)
	}
	return NewParser(phrases), nil
}

// Load restores the dictionary persisted with the model
func Load(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (*Parser, error) {
	var st state
	if err := component.LoadArtifact(modelDir, md, artifactKey, &st); err != nil {
		return nil, err
	}
	return NewParser(st.Phrases), nil
}

// NewParser creates a parser with the given phrases
func NewParser(phrases []config.Phrase) *Parser {
	dict := make(map[string]config.Phrase)
	maxLen := 1
	for _, e := range phrases {
		canonical := strings.ToLower(e.Canonical)
		dict[canonical] = e
		if l := phraseLen(canonical); l > maxLen {
			maxLen = l
		}
		for _, v := range e.Variants {
			variant := strings.ToLower(v)
			dict[variant] = e
			if l := phraseLen(variant); l > maxLen {
				maxLen = l
			}
		}
	}
	return &Parser{phrases: phrases, dict: dict, maxLen: maxLen}
}

func (p *Parser) Name() string { return Name }

func (p *Parser) Provides() []string { return []string{message.AttrTokens} }

func (p *Parser) Requires() []string { return []string{message.AttrTokens} }

// Train rewrites the tokens of every example of the working corpus
func (p *Parser) Train(data *trainingdata.TrainingData, cfg *config.Config, shared component.Context) (component.Context, error) {
	for _, ex := range data.Examples {
		if err := p.Process(ex, shared); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (p *Parser) Process(msg *message.Message, shared component.Context) error {
	tokens, ok := msg.Get(message.AttrTokens)
	if !ok {
		return &component.MissingArgumentError{Component: Name, Argument: message.AttrTokens}
	}
	toks, _ := tokens.([]string)
	msg.Set(message.AttrTokens, p.Parse(toks), false)
	return nil
}

func (p *Parser) Persist(dir string) (map[string]any, error) {
	return component.SaveArtifact(dir, artifactKey, artifactFile, state{Phrases: p.phrases})
}

// Parse applies greedy longest-match to recognize multi-token phrases
func (p *Parser) Parse(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	i := 0

	for i < len(tokens) {
		matched := ""
		matchLen := 1

		maxPhrase := p.maxLen
		if remaining := len(tokens) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := maxPhrase; n >= 2; n-- {
			phraseKey := strings.ToLower(strings.Join(tokens[i:i+n], " "))
			if entry, ok := p.dict[phraseKey]; ok {
				matched = entry.Canonical
				matchLen = n
				break
			}
		}

		if matched != "" {
			result = append(result, matched)
			i += matchLen
			continue
		}

		// single token may still map to a canonical form
		if entry, ok := p.dict[strings.ToLower(tokens[i])]; ok {
			result = append(result, entry.Canonical)
		} else {
			result = append(result, tokens[i])
		}
		i++
	}

	return result
}

// EntityType returns the entity type a phrase or variant denotes, if any
func (p *Parser) EntityType(phrase string) (string, bool) {
	entry, ok := p.dict[strings.ToLower(phrase)]
	if !ok || entry.Entity == "" {
		return "", false
	}
	return entry.Entity, true
}

func phraseLen(phrase string) int {
	if phrase == "" {
		return 1
	}
	return len(strings.Fields(phrase))
}
