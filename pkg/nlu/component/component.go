// Package component defines the contract every pipeline unit implements and
// the shared context threaded through a pipeline.
//
// A pipeline is an ordered []Component. During training each component sees
// the corpus after all of its predecessors were trained on it; during parsing
// each component sees the message after all of its predecessors processed it.
// Order is part of the contract: a component may only read message attributes
// and context keys that an earlier component provides.
package component

import (
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

// Component is a pluggable processing unit
type Component interface {
	// Name is the registry name, also written to the persisted pipeline
	Name() string

	// Provides lists the message attributes and context keys this component
	// contributes for later components.
	Provides() []string

	// Requires lists the attributes and context keys that must be provided
	// before this component runs.
	Requires() []string

	// ProvideContext contributes keys to the shared context before training
	// and after loading.
	ProvideContext() (Context, error)

	// Train fits the component on the working corpus. The returned keys are
	// folded into the shared context.
	Train(data *trainingdata.TrainingData, cfg *config.Config, shared Context) (Context, error)

	// Process annotates msg in place.
	Process(msg *message.Message, shared Context) error

	// Persist writes the component's artifacts into dir and returns the keys
	// to record in the model metadata.
	Persist(dir string) (map[string]any, error)

	// PreparePartialProcessing hands the component the already trained
	// prefix of the pipeline, called right before Train.
	PreparePartialProcessing(prefix []Component, shared Context)
}

// Base implements every Component method except Name with a no-op. Embed it
// and override what the component needs.
type Base struct {
	prefix       []Component
	prefixShared Context
}

func (b *Base) Provides() []string { return nil }

func (b *Base) Requires() []string { return nil }

func (b *Base) ProvideContext() (Context, error) { return nil, nil }

func (b *Base) Train(data *trainingdata.TrainingData, cfg *config.Config, shared Context) (Context, error) {
	return nil, nil
}

func (b *Base) Process(msg *message.Message, shared Context) error { return nil }

func (b *Base) Persist(dir string) (map[string]any, error) { return nil, nil }

// PreparePartialProcessing stores the prefix for ProcessPartial
func (b *Base) PreparePartialProcessing(prefix []Component, shared Context) {
	b.prefix = prefix
	b.prefixShared = shared
}

// ProcessPartial runs the prepared prefix over msg
func (b *Base) ProcessPartial(msg *message.Message) error {
	return ProcessAll(b.prefix, msg, b.prefixShared)
}

// ProcessAll runs every component of pipeline over msg, in order. The first
// error is returned unmodified.
func ProcessAll(pipeline []Component, msg *message.Message, shared Context) error {
	for _, c := range pipeline {
		if err := c.Process(msg, shared); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the component names of a pipeline, in order
func Names(pipeline []Component) []string {
	names := make([]string, len(pipeline))
	for i, c := range pipeline {
		names[i] = c.Name()
	}
	return names
}
