package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
)

// FileName is the metadata file inside a model directory
const FileName = "metadata.json"

// Reserved keys of the metadata record
const (
	KeyLanguage  = "language"
	KeyPipeline  = "pipeline"
	KeyTrainedAt = "trained_at"
	KeyVersion   = "nlu_version"
)

// Metadata describes a persisted pipeline: its language, the ordered
// component names and any keys the corpus and components contributed.
// ModelDir is where the record was loaded from and is not persisted.
type Metadata struct {
	Language string
	Pipeline []string
	ModelDir string

	extra map[string]any
}

// New creates a metadata record
func New(language string, pipeline []string, modelDir string) *Metadata {
	return &Metadata{
		Language: language,
		Pipeline: append([]string(nil), pipeline...),
		ModelDir: modelDir,
		extra:    make(map[string]any),
	}
}

// Get returns a contributed key
func (m *Metadata) Get(key string) (any, bool) {
	v, ok := m.extra[key]
	return v, ok
}

// GetString returns a contributed string key, or "" when absent.
func (m *Metadata) GetString(key string) string {
	s, _ := m.extra[key].(string)
	return s
}

// Set records a key. language and pipeline update the typed fields.
func (m *Metadata) Set(key string, value any) error {
	switch key {
	case KeyLanguage:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string", internalerr.ErrInvalidInput, key)
		}
		m.Language = s
	case KeyPipeline:
		names, err := toStrings(value)
		if err != nil {
			return err
		}
		m.Pipeline = names
	default:
		if m.extra == nil {
			m.extra = make(map[string]any)
		}
		m.extra[key] = value
	}
	return nil
}

// Update records every key of updates, in sorted key order.
func (m *Metadata) Update(updates map[string]any) error {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.Set(k, updates[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the contributed keys, sorted
func (m *Metadata) Keys() []string {
	keys := make([]string, 0, len(m.extra))
	for k := range m.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON writes a flat object: language, pipeline and contributed keys
func (m *Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.extra)+2)
	for k, v := range m.extra {
		out[k] = v
	}
	out[KeyLanguage] = m.Language
	pipeline := m.Pipeline
	if pipeline == nil {
		pipeline = []string{}
	}
	out[KeyPipeline] = pipeline
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat object written by MarshalJSON
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw[KeyPipeline]; !ok {
		return fmt.Errorf("%w: metadata has no pipeline", internalerr.ErrInvalidInput)
	}
	m.extra = make(map[string]any, len(raw))
	return m.Update(raw)
}

// Persist writes metadata.json into dir
func (m *Metadata) Persist(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Load reads metadata.json from a model directory
func Load(modelDir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(modelDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no %s in %s", internalerr.ErrNotFound, FileName, modelDir)
		}
		return nil, err
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	md.ModelDir = modelDir
	return &md, nil
}

func toStrings(v any) ([]string, error) {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...), nil
	case []any:
		out := make([]string, len(vals))
		for i, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: pipeline entry %d is not a string", internalerr.ErrInvalidInput, i)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: pipeline must be a list of names", internalerr.ErrInvalidInput)
	}
}
