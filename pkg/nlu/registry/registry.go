// Package registry resolves component names to instances.
//
// A Builder is an explicit value handed to the trainer and interpreter; there
// is no process-wide registry. NewBuiltin returns a fresh Builder with the
// reference components registered.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/logging"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
)

// Factory builds a fresh, untrained component
type Factory func(cfg *config.Config) (component.Component, error)

// Loader reconstructs a trained component from a model directory
type Loader func(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (component.Component, error)

// Entry describes how to build one component type
type Entry struct {
	New  Factory
	Load Loader // nil: the component has no persisted state, New is used

	// Languages the component supports; empty means any.
	Languages []string

	// Cacheable components are shared between pipelines built by the same
	// Builder when UseCache is set. Only stateless components should be.
	Cacheable bool
}

// ResolutionError reports a component name that cannot be turned into an
// implementation.
type ResolutionError struct {
	Component string
	Reason    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve component %q: %s", e.Component, e.Reason)
}

func (e *ResolutionError) Is(target error) bool {
	return target == internalerr.ErrComponentResolution
}

// Options configures a Builder
type Options struct {
	UseCache bool
	Logger   *logging.Logger
}

// Builder maps component names to factories and loaders
type Builder struct {
	mu       sync.Mutex
	entries  map[string]Entry
	useCache bool
	cache    map[string]component.Component
	log      *logging.Logger
}

// New creates an empty builder
func New(opts Options) *Builder {
	return &Builder{
		entries:  make(map[string]Entry),
		useCache: opts.UseCache,
		cache:    make(map[string]component.Component),
		log:      logging.OrNop(opts.Logger),
	}
}

// Register adds or replaces the entry for name
func (b *Builder) Register(name string, e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[name] = e
}

// Names returns the registered component names, sorted
func (b *Builder) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Builder) resolve(name string, cfg *config.Config) (Entry, error) {
	b.mu.Lock()
	e, ok := b.entries[name]
	b.mu.Unlock()
	if !ok || e.New == nil {
		return Entry{}, &ResolutionError{Component: name, Reason: "unknown component"}
	}
	if len(e.Languages) > 0 && cfg != nil {
		supported := false
		for _, lang := range e.Languages {
			if lang == cfg.Language {
				supported = true
				break
			}
		}
		if !supported {
			return Entry{}, &ResolutionError{
				Component: name,
				Reason:    fmt.Sprintf("language %q not supported (supports %v)", cfg.Language, e.Languages),
			}
		}
	}
	return e, nil
}

// ValidateRequirements checks every name resolves and its prerequisites are
// met, without building anything.
func (b *Builder) ValidateRequirements(names []string, cfg *config.Config) error {
	for _, name := range names {
		if _, err := b.resolve(name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// Create builds a fresh component for training
func (b *Builder) Create(name string, cfg *config.Config) (component.Component, error) {
	e, err := b.resolve(name, cfg)
	if err != nil {
		return nil, err
	}

	key := ""
	if b.useCache && e.Cacheable {
		key = name + "@" + cfg.Fingerprint(name)
		if c, ok := b.cached(key); ok {
			b.log.Debugw("reusing cached component", "component", name)
			return c, nil
		}
	}

	c, err := e.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create component %s: %w", name, err)
	}
	b.store(key, c)
	return c, nil
}

// Load reconstructs a trained component from modelDir
func (b *Builder) Load(name, modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (component.Component, error) {
	e, err := b.resolve(name, cfg)
	if err != nil {
		return nil, err
	}

	key := ""
	if b.useCache && e.Cacheable {
		key = name + "@" + cfg.Fingerprint(name) + "@" + modelDir
		if c, ok := b.cached(key); ok {
			b.log.Debugw("reusing cached component", "component", name, "model_dir", modelDir)
			return c, nil
		}
	}

	var c component.Component
	if e.Load != nil {
		c, err = e.Load(modelDir, md, cfg, shared)
	} else {
		c, err = e.New(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load component %s: %w", name, err)
	}
	b.store(key, c)
	return c, nil
}

func (b *Builder) cached(key string) (component.Component, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cache[key]
	return c, ok
}

func (b *Builder) store(key string, c component.Component) {
	if key == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache[key] = c
}
