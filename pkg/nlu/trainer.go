// Package nlu drives a sequential pipeline of NLU components through
// training, persistence and inference.
//
// A Trainer builds the pipeline named in a config.Config, trains it on a
// corpus and writes the model directory. An Interpreter is rebuilt from that
// directory and turns text into {intent, entities, text}. Components run
// strictly in pipeline order and share a component.Context that every
// component may extend; later keys overwrite earlier ones.
package nlu

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/logging"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/persistor"
	"github.com/cognicore/nlu/pkg/nlu/registry"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

// Version is recorded in the metadata of every persisted model
const Version = "0.3.0"

// modelDirLayout is the UTC timestamp layout of generated model names
const modelDirLayout = "20060102-150405"

// TrainerOptions configures a Trainer
type TrainerOptions struct {
	// Builder resolves component names. Nil means registry.NewBuiltin.
	Builder *registry.Builder

	// SkipValidation disables the requirement and argument checks.
	SkipValidation bool

	Logger *logging.Logger
}

// PersistOptions controls where a trained model is written
type PersistOptions struct {
	Path           string
	Persistor      persistor.Persistor
	ProjectName    string
	FixedModelName string
}

// Trainer trains the configured pipeline
type Trainer struct {
	cfg            *config.Config
	pipeline       []component.Component
	skipValidation bool
	log            *logging.Logger

	trained bool
	data    *trainingdata.TrainingData
	now     func() time.Time
}

// NewTrainer resolves every component of cfg.Pipeline into a fresh instance.
// Unless validation is skipped, component prerequisites and the arguments
// the components promise each other are checked before returning.
func NewTrainer(cfg *config.Config, opts TrainerOptions) (*Trainer, error) {
	b := opts.Builder
	if b == nil {
		b = registry.NewBuiltin(registry.Options{Logger: opts.Logger})
	}
	log := logging.OrNop(opts.Logger)

	if !opts.SkipValidation {
		if err := b.ValidateRequirements(cfg.Pipeline, cfg); err != nil {
			return nil, err
		}
	}

	pipeline := make([]component.Component, 0, len(cfg.Pipeline))
	for _, name := range cfg.Pipeline {
		c, err := b.Create(name, cfg)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, c)
	}

	t := &Trainer{
		cfg:            cfg,
		pipeline:       pipeline,
		skipValidation: opts.SkipValidation,
		log:            log,
		now:            time.Now,
	}

	if !opts.SkipValidation {
		shared, err := component.FoldProvided(pipeline)
		if err != nil {
			return nil, err
		}
		if err := component.ValidateArguments(pipeline, shared); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Pipeline returns the components in training order
func (t *Trainer) Pipeline() []component.Component {
	return append([]component.Component(nil), t.pipeline...)
}

// Train trains every component in order on a copy of data and returns an
// interpreter over the trained pipeline. Component errors are returned as is.
func (t *Trainer) Train(data *trainingdata.TrainingData) (*Interpreter, error) {
	t.trained = false
	if data == nil {
		data = trainingdata.New()
	}
	t.data = data

	working := data.Clone()
	for _, ex := range working.Examples {
		t.log.Debugw("training example", "message_id", ex.ID, "intent", ex.Intent().Name)
	}

	shared, err := component.FoldProvided(t.pipeline)
	if err != nil {
		return nil, err
	}

	if !t.skipValidation {
		if err := component.ValidateArguments(t.pipeline, shared); err != nil {
			return nil, err
		}
	}

	for i, c := range t.pipeline {
		log := t.log.WithField("component", c.Name())
		log.Infow("starting to train component", "index", i)

		c.PreparePartialProcessing(t.pipeline[:i], shared)
		updates, err := c.Train(working, t.cfg, shared)
		if err != nil {
			log.WithError(err).Warnw("component failed to train", "index", i, "examples", len(working.Examples))
			return nil, err
		}
		shared.Update(updates)

		log.Infow("finished training component", "index", i)
	}

	t.trained = true
	return NewInterpreter(t.pipeline, shared, nil).WithLogger(t.log), nil
}

// Persist writes the trained model below opts.Path and returns the model
// directory. A generated model name never reuses an existing directory.
func (t *Trainer) Persist(ctx context.Context, opts PersistOptions) (string, error) {
	if !t.trained {
		return "", &InvalidStateError{Op: "persist", Reason: "the pipeline has not been trained"}
	}

	project := opts.ProjectName
	if project == "" {
		project = config.DefaultProject
	}
	base := opts.Path
	if base == "" {
		base = config.DefaultPath
	}

	dir, modelName, err := t.modelDir(filepath.Join(base, project), opts.FixedModelName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}

	md := metadata.New(t.cfg.Language, component.Names(t.pipeline), dir)
	keys, err := t.data.Persist(dir)
	if err != nil {
		return "", err
	}
	if err := mergeKeys(md, "training data", keys); err != nil {
		return "", err
	}

	for _, c := range t.pipeline {
		keys, err := c.Persist(dir)
		if err != nil {
			return "", fmt.Errorf("persist component %s: %w", c.Name(), err)
		}
		if err := mergeKeys(md, c.Name(), keys); err != nil {
			return "", err
		}
	}

	if err := md.Set(metadata.KeyTrainedAt, t.now().UTC().Format(time.RFC3339)); err != nil {
		return "", err
	}
	if err := md.Set(metadata.KeyVersion, Version); err != nil {
		return "", err
	}
	if err := md.Persist(dir); err != nil {
		return "", err
	}

	if opts.Persistor != nil {
		if err := opts.Persistor.Persist(ctx, dir, modelName, project); err != nil {
			return "", fmt.Errorf("archive model %s: %w", modelName, err)
		}
	}

	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	t.log.Infow("successfully saved model", "dir", dir)
	return dir, nil
}

func (t *Trainer) modelDir(projectDir, fixed string) (string, string, error) {
	if fixed != "" {
		return filepath.Join(projectDir, fixed), fixed, nil
	}

	name := "model_" + t.now().UTC().Format(modelDirLayout)
	dir := filepath.Join(projectDir, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return dir, name, nil
	} else if err != nil {
		return "", "", err
	}

	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return "", "", err
	}
	name += "_" + strings.ToLower(id.String())
	return filepath.Join(projectDir, name), name, nil
}

// reservedKeys are owned by the trainer and never taken from a contributor
var reservedKeys = []string{
	metadata.KeyLanguage,
	metadata.KeyPipeline,
	metadata.KeyTrainedAt,
	metadata.KeyVersion,
}

// mergeKeys adds the keys contributed by owner to md
func mergeKeys(md *metadata.Metadata, owner string, keys map[string]any) error {
	for _, k := range reservedKeys {
		if _, ok := keys[k]; ok {
			return fmt.Errorf("%w: %s contributed reserved metadata key %q", internalerr.ErrInvalidInput, owner, k)
		}
	}
	return md.Update(keys)
}
