package registry

import (
	"errors"
	"testing"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/components/intent"
	"github.com/cognicore/nlu/pkg/nlu/components/synonyms"
	"github.com/cognicore/nlu/pkg/nlu/components/tokenizer"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
)

type fake struct {
	component.Base
	name   string
	loaded bool
}

func (f *fake) Name() string { return f.name }

func TestUnknownComponent(t *testing.T) {
	b := NewBuiltin(Options{})
	cfg := config.New("en", "nope")

	_, err := b.Create("nope", cfg)
	if !errors.Is(err, internalerr.ErrComponentResolution) {
		t.Fatalf("expected ErrComponentResolution, got %v", err)
	}
	var rerr *ResolutionError
	if !errors.As(err, &rerr) || rerr.Component != "nope" {
		t.Errorf("unexpected error %#v", err)
	}
	if err := b.ValidateRequirements([]string{tokenizer.Name, "nope"}, cfg); !errors.Is(err, internalerr.ErrComponentResolution) {
		t.Errorf("ValidateRequirements: %v", err)
	}
}

func TestLanguagePrerequisite(t *testing.T) {
	b := New(Options{})
	b.Register("german_only", Entry{
		New:       func(*config.Config) (component.Component, error) { return &fake{name: "german_only"}, nil },
		Languages: []string{"de"},
	})

	if _, err := b.Create("german_only", config.New("de", "german_only")); err != nil {
		t.Fatalf("de should be supported: %v", err)
	}
	err := b.ValidateRequirements([]string{"german_only"}, config.New("en", "german_only"))
	if !errors.Is(err, internalerr.ErrComponentResolution) {
		t.Fatalf("expected resolution error for en, got %v", err)
	}
}

func TestBuiltinNames(t *testing.T) {
	got := NewBuiltin(Options{}).Names()
	want := []string{"entity_extractor", "html_cleaner", "intent_classifier", "lexicon", "multitoken", "tokenizer"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCacheReuse(t *testing.T) {
	cfg := config.New("en", synonyms.Name, intent.Name)

	cached := NewBuiltin(Options{UseCache: true})
	a, _ := cached.Create(synonyms.Name, cfg)
	b, _ := cached.Create(synonyms.Name, cfg)
	if a != b {
		t.Error("cacheable component should be reused with UseCache")
	}

	c1, _ := cached.Create(intent.Name, cfg)
	c2, _ := cached.Create(intent.Name, cfg)
	if c1 == c2 {
		t.Error("non-cacheable component must not be reused")
	}

	other := config.New("en", synonyms.Name)
	if err := other.SetOptions(synonyms.Name, synonyms.Options{Path: ""}); err != nil {
		t.Fatal(err)
	}
	if d, _ := cached.Create(synonyms.Name, other); d == a {
		t.Error("different options must not share a cached component")
	}

	uncached := NewBuiltin(Options{})
	x, _ := uncached.Create(synonyms.Name, cfg)
	y, _ := uncached.Create(synonyms.Name, cfg)
	if x == y {
		t.Error("components must not be reused without UseCache")
	}
}

func TestLoadFallsBackToNew(t *testing.T) {
	b := New(Options{})
	b.Register("stateless", Entry{
		New: func(*config.Config) (component.Component, error) { return &fake{name: "stateless"}, nil },
	})
	b.Register("stateful", Entry{
		New: func(*config.Config) (component.Component, error) { return &fake{name: "stateful"}, nil },
		Load: func(string, *metadata.Metadata, *config.Config, component.Context) (component.Component, error) {
			return &fake{name: "stateful", loaded: true}, nil
		},
	})

	cfg := config.New("en", "stateless", "stateful")
	md := metadata.New("en", cfg.Pipeline, "")

	c, err := b.Load("stateless", "", md, cfg, nil)
	if err != nil || c.(*fake).loaded {
		t.Errorf("stateless: %v, %+v", err, c)
	}
	c, err = b.Load("stateful", "", md, cfg, nil)
	if err != nil || !c.(*fake).loaded {
		t.Errorf("stateful: %v, %+v", err, c)
	}
}

func TestFactoryErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	b := New(Options{})
	b.Register("broken", Entry{
		New: func(*config.Config) (component.Component, error) { return nil, boom },
	})
	_, err := b.Create("broken", config.New("en", "broken"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}
