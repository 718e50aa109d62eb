package nlu

import (
	"errors"
	"time"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/logging"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/registry"
)

// InterpreterOptions configures how an interpreter is rebuilt
type InterpreterOptions struct {
	// Builder resolves component names. Nil means registry.NewBuiltin.
	Builder *registry.Builder

	// SkipValidation disables the component requirement check.
	SkipValidation bool

	Logger *logging.Logger
}

// Interpreter runs a trained pipeline over text
type Interpreter struct {
	pipeline []component.Component
	shared   component.Context
	md       *metadata.Metadata
	log      *logging.Logger
}

// NewInterpreter wraps an already built pipeline. md may be nil.
func NewInterpreter(pipeline []component.Component, shared component.Context, md *metadata.Metadata) *Interpreter {
	if shared == nil {
		shared = make(component.Context)
	}
	return &Interpreter{pipeline: pipeline, shared: shared, md: md, log: logging.Nop()}
}

// WithLogger sets the logger parse results are reported to. A nil logger
// discards them.
func (in *Interpreter) WithLogger(log *logging.Logger) *Interpreter {
	in.log = logging.OrNop(log)
	return in
}

// Load reads the metadata of modelDir and rebuilds its pipeline. A nil cfg
// is derived from the metadata.
func Load(modelDir string, cfg *config.Config, opts InterpreterOptions) (*Interpreter, error) {
	md, err := metadata.Load(modelDir)
	if err != nil {
		return nil, err
	}
	return Create(md, cfg, opts)
}

// LoadMetadata rebuilds an interpreter from metadata that is already in
// memory.
//
// Deprecated: use Create.
func LoadMetadata(md *metadata.Metadata, cfg *config.Config, opts InterpreterOptions) (*Interpreter, error) {
	logging.OrNop(opts.Logger).Warnw("LoadMetadata is deprecated, use Create", "model_dir", md.ModelDir)
	return Create(md, cfg, opts)
}

// Create loads every component of md.Pipeline from md.ModelDir, in order,
// folding each component's context before the next one is loaded.
func Create(md *metadata.Metadata, cfg *config.Config, opts InterpreterOptions) (*Interpreter, error) {
	if cfg == nil {
		cfg = config.New(md.Language, md.Pipeline...)
	}
	b := opts.Builder
	if b == nil {
		b = registry.NewBuiltin(registry.Options{Logger: opts.Logger})
	}
	log := logging.OrNop(opts.Logger)

	if !opts.SkipValidation {
		if err := b.ValidateRequirements(md.Pipeline, cfg); err != nil {
			return nil, err
		}
	}

	shared := make(component.Context)
	pipeline := make([]component.Component, 0, len(md.Pipeline))
	for _, name := range md.Pipeline {
		c, err := b.Load(name, md.ModelDir, md, cfg, shared)
		if err != nil {
			return nil, err
		}

		updates, err := c.ProvideContext()
		if err != nil {
			if errors.Is(err, internalerr.ErrMissingArgument) {
				return nil, &ComponentInitializationError{Component: name, Err: err}
			}
			return nil, err
		}
		shared.Update(updates)
		pipeline = append(pipeline, c)
	}

	log.Debugw("interpreter ready", "model_dir", md.ModelDir, "pipeline", md.Pipeline)
	return NewInterpreter(pipeline, shared, md).WithLogger(log), nil
}

// Parse runs the pipeline over text. The result always holds intent,
// entities and text; empty text returns the defaults without running any
// component.
func (in *Interpreter) Parse(text string, t *time.Time) (map[string]any, error) {
	if text == "" {
		out := message.DefaultOutputAttributes()
		out[message.AttrText] = ""
		return out, nil
	}

	msg := message.New(text, message.DefaultOutputAttributes(), t)
	if err := component.ProcessAll(in.pipeline, msg, in.shared); err != nil {
		in.log.WithError(err).Debugw("parse failed", "message_id", msg.ID)
		return nil, err
	}
	in.log.Debugw("parsed message",
		"message_id", msg.ID,
		"intent", msg.Intent().Name,
		"entities", len(msg.Entities()),
	)

	out := message.DefaultOutputAttributes()
	for k, v := range msg.AsMap(true) {
		out[k] = v
	}
	return out, nil
}

// Pipeline returns the components in processing order
func (in *Interpreter) Pipeline() []component.Component {
	return append([]component.Component(nil), in.pipeline...)
}

// Context returns a copy of the shared context
func (in *Interpreter) Context() component.Context {
	return in.shared.Clone()
}

// Metadata returns the metadata the interpreter was loaded from, or nil.
func (in *Interpreter) Metadata() *metadata.Metadata { return in.md }
