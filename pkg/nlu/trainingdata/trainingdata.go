package trainingdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/message"
)

// FileName is the name of the persisted corpus inside a model directory
const FileName = "training_data.json"

// MetadataKey is the metadata key pointing at the persisted corpus
const MetadataKey = "training_data"

// Example is the on-disk form of a labeled utterance
type Example struct {
	Text     string           `json:"text" yaml:"text"`
	Intent   string           `json:"intent,omitempty" yaml:"intent,omitempty"`
	Entities []message.Entity `json:"entities,omitempty" yaml:"entities,omitempty"`
}

type corpusFile struct {
	Examples []Example `json:"examples" yaml:"examples"`
}

// TrainingData is the labeled corpus a pipeline is trained on. Every example
// is a message carrying its intent and entity annotations as attributes.
type TrainingData struct {
	Examples []*message.Message
}

// New wraps already constructed example messages
func New(examples ...*message.Message) *TrainingData {
	return &TrainingData{Examples: examples}
}

// FromExamples converts on-disk examples into messages
func FromExamples(examples []Example) *TrainingData {
	td := &TrainingData{Examples: make([]*message.Message, 0, len(examples))}
	for _, ex := range examples {
		td.Examples = append(td.Examples, NewExample(ex))
	}
	return td
}

// NewExample builds the message form of one example
func NewExample(ex Example) *message.Message {
	msg := message.New(ex.Text, nil, nil)
	if ex.Intent != "" {
		msg.Set(message.AttrIntent, message.Intent{Name: ex.Intent, Confidence: 1}, true)
	}
	if len(ex.Entities) > 0 {
		msg.Set(message.AttrEntities, append([]message.Entity(nil), ex.Entities...), true)
	}
	return msg
}

// Load reads a corpus from a .json, .jsonl, .yaml or .yml file
func Load(path string) (*TrainingData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file corpusFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".jsonl":
		file.Examples, err = parseJSONL(data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("%w: unsupported corpus format %q", internalerr.ErrInvalidInput, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	td := FromExamples(file.Examples)
	if err := td.Validate(); err != nil {
		return nil, err
	}
	return td, nil
}

// parseJSONL reads one Example per line. Blank lines are skipped.
func parseJSONL(data []byte) ([]Example, error) {
	var examples []Example
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ex Example
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", internalerr.ErrInvalidInput, i+1, err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

// Validate checks every example has text and that entity spans match it
func (td *TrainingData) Validate() error {
	for i, ex := range td.Examples {
		if strings.TrimSpace(ex.Text) == "" {
			return fmt.Errorf("%w: example %d has no text", internalerr.ErrInvalidInput, i)
		}
		for _, ent := range ex.Entities() {
			if ent.Start < 0 || ent.End > len(ex.Text) || ent.Start >= ent.End {
				return fmt.Errorf("%w: example %d: entity %q span [%d,%d) out of range",
					internalerr.ErrInvalidInput, i, ent.Entity, ent.Start, ent.End)
			}
			if ex.Text[ent.Start:ent.End] != ent.Value {
				return fmt.Errorf("%w: example %d: entity %q value %q does not match text %q",
					internalerr.ErrInvalidInput, i, ent.Entity, ent.Value, ex.Text[ent.Start:ent.End])
			}
		}
	}
	return nil
}

// Clone returns a deep copy; components may annotate the copy freely.
func (td *TrainingData) Clone() *TrainingData {
	out := &TrainingData{Examples: make([]*message.Message, len(td.Examples))}
	for i, ex := range td.Examples {
		out.Examples[i] = ex.Clone()
	}
	return out
}

// IntentExamples returns the examples labeled with an intent
func (td *TrainingData) IntentExamples() []*message.Message {
	var out []*message.Message
	for _, ex := range td.Examples {
		if ex.Intent().Name != "" {
			out = append(out, ex)
		}
	}
	return out
}

// EntityExamples returns the examples with at least one entity annotation
func (td *TrainingData) EntityExamples() []*message.Message {
	var out []*message.Message
	for _, ex := range td.Examples {
		if len(ex.Entities()) > 0 {
			out = append(out, ex)
		}
	}
	return out
}

// Intents returns the distinct intent names, sorted
func (td *TrainingData) Intents() []string {
	set := make(map[string]struct{})
	for _, ex := range td.IntentExamples() {
		set[ex.Intent().Name] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Persist writes the corpus into dir and returns the metadata keys to record
func (td *TrainingData) Persist(dir string) (map[string]any, error) {
	file := corpusFile{Examples: make([]Example, 0, len(td.Examples))}
	for _, ex := range td.Examples {
		file.Examples = append(file.Examples, Example{
			Text:     ex.Text,
			Intent:   ex.Intent().Name,
			Entities: ex.Entities(),
		})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		return nil, fmt.Errorf("write training data: %w", err)
	}
	return map[string]any{MetadataKey: FileName}, nil
}
