package registry

import (
	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/components/entity"
	"github.com/cognicore/nlu/pkg/nlu/components/htmlclean"
	"github.com/cognicore/nlu/pkg/nlu/components/intent"
	"github.com/cognicore/nlu/pkg/nlu/components/multitoken"
	"github.com/cognicore/nlu/pkg/nlu/components/synonyms"
	"github.com/cognicore/nlu/pkg/nlu/components/tokenizer"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
)

// NewBuiltin returns a builder with the reference components registered
func NewBuiltin(opts Options) *Builder {
	b := New(opts)
	RegisterBuiltin(b)
	return b
}

// RegisterBuiltin adds the reference components to b
func RegisterBuiltin(b *Builder) {
	b.Register(htmlclean.Name, Entry{
		New:  factory(htmlclean.New),
		Load: loader(htmlclean.Load),
	})
	b.Register(synonyms.Name, Entry{
		New:       factory(synonyms.New),
		Load:      loader(synonyms.Load),
		Cacheable: true,
	})
	b.Register(tokenizer.Name, Entry{
		New:  factory(tokenizer.New),
		Load: loader(tokenizer.Load),
	})
	b.Register(multitoken.Name, Entry{
		New:  factory(multitoken.New),
		Load: loader(multitoken.Load),
	})
	b.Register(intent.Name, Entry{
		New:  factory(intent.New),
		Load: loader(intent.Load),
	})
	b.Register(entity.Name, Entry{
		New:  factory(entity.New),
		Load: loader(entity.Load),
	})
}

func factory[T component.Component](fn func(*config.Config) (T, error)) Factory {
	return func(cfg *config.Config) (component.Component, error) {
		c, err := fn(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func loader[T component.Component](fn func(string, *metadata.Metadata, *config.Config, component.Context) (T, error)) Loader {
	return func(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (component.Component, error) {
		c, err := fn(modelDir, md, cfg, shared)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
