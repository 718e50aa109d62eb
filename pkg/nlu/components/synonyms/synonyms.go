// Package synonyms exposes a synonym lexicon to the rest of the pipeline
// through the shared context. It does not touch messages itself; the
// tokenizer picks the lexicon up and normalizes tokens with it.
package synonyms

import (
	"path/filepath"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/lexicon"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
)

// Name is the registry name of the component
const Name = "lexicon"

// ContextKey is where the lexicon is published in the shared context
const ContextKey = "lexicon"

const (
	artifactKey  = "lexicon_file"
	artifactFile = "lexicon.yaml"
)

// Options configures the lexicon source
type Options struct {
	Path     string          `yaml:"path"`
	Synonyms []lexicon.Group `yaml:"synonyms"`
}

// Component publishes a *lexicon.Lexicon under ContextKey
type Component struct {
	component.Base
	lex *lexicon.Lexicon
}

// New builds the lexicon from the file and inline groups in cfg
func New(cfg *config.Config) (*Component, error) {
	var opts Options
	if err := cfg.Decode(Name, &opts); err != nil {
		return nil, err
	}

	lex := lexicon.New()
	if opts.Path != "" {
		loaded, err := lexicon.LoadFromYAML(opts.Path)
		if err != nil {
			return nil, err
		}
		lex = loaded
	}
	for _, g := range opts.Synonyms {
		lex.AddSynonymGroup(g.Canonical, g.Variants)
	}
	return &Component{lex: lex}, nil
}

// Load reads the lexicon persisted with the model
func Load(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (*Component, error) {
	file := md.GetString(artifactKey)
	if file == "" {
		return nil, &component.MissingArgumentError{Component: Name, Argument: artifactKey}
	}
	lex, err := lexicon.LoadFromYAML(filepath.Join(modelDir, file))
	if err != nil {
		return nil, err
	}
	return &Component{lex: lex}, nil
}

func (c *Component) Name() string { return Name }

func (c *Component) Provides() []string { return []string{ContextKey} }

func (c *Component) ProvideContext() (component.Context, error) {
	if c.lex == nil {
		return nil, &component.MissingArgumentError{Component: Name, Argument: ContextKey}
	}
	return component.Context{ContextKey: c.lex}, nil
}

func (c *Component) Persist(dir string) (map[string]any, error) {
	if c.lex == nil {
		return nil, internalerr.ErrInvalidInput
	}
	if err := c.lex.SaveYAML(filepath.Join(dir, artifactFile)); err != nil {
		return nil, err
	}
	return map[string]any{artifactKey: artifactFile}, nil
}

// Lexicon returns the published lexicon
func (c *Component) Lexicon() *lexicon.Lexicon { return c.lex }
