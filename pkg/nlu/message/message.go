package message

import (
	"time"

	"github.com/google/uuid"
)

// Well-known message attributes
const (
	AttrText          = "text"
	AttrIntent        = "intent"
	AttrEntities      = "entities"
	AttrIntentRanking = "intent_ranking"
	AttrTokens        = "tokens"
	AttrCleanText     = "clean_text"
)

// Intent is the classification result attached to a message
type Intent struct {
	Name       string  `json:"name" yaml:"name"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Entity is a recognized span of the message text
type Entity struct {
	Start      int     `json:"start" yaml:"start"`
	End        int     `json:"end" yaml:"end"`
	Value      string  `json:"value" yaml:"value"`
	Entity     string  `json:"entity" yaml:"entity"`
	Extractor  string  `json:"extractor,omitempty" yaml:"extractor,omitempty"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// DefaultOutputAttributes returns the attributes (and default values) every
// parse result carries. A fresh map is returned on each call.
func DefaultOutputAttributes() map[string]any {
	return map[string]any{
		AttrIntent:   Intent{Name: "", Confidence: 0.0},
		AttrEntities: []Entity{},
	}
}

// Message is the unit of data flowing through the pipeline: a parse request
// at inference time or a corpus example at training time.
type Message struct {
	ID   string
	Text string
	Time *time.Time

	data             map[string]any
	outputProperties map[string]struct{}
}

// New creates a message. data is copied; nil is allowed.
func New(text string, data map[string]any, t *time.Time) *Message {
	m := &Message{
		ID:               uuid.NewString(),
		Text:             text,
		Time:             t,
		data:             make(map[string]any, len(data)),
		outputProperties: make(map[string]struct{}),
	}
	for k, v := range data {
		m.data[k] = v
	}
	return m
}

// Set stores an attribute. When addToOutput is true the attribute is part of
// the parse result.
func (m *Message) Set(key string, value any, addToOutput bool) {
	m.data[key] = value
	if addToOutput {
		m.outputProperties[key] = struct{}{}
	}
}

// Get returns an attribute.
func (m *Message) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

// GetString returns a string attribute, or "" when absent or of another type.
func (m *Message) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

// GetStrings returns a []string attribute, or nil.
func (m *Message) GetStrings(key string) []string {
	s, _ := m.data[key].([]string)
	return s
}

// Intent returns the intent attribute, or the zero Intent.
func (m *Message) Intent() Intent {
	intent, _ := m.data[AttrIntent].(Intent)
	return intent
}

// Entities returns the entities attribute, or nil.
func (m *Message) Entities() []Entity {
	ents, _ := m.data[AttrEntities].([]Entity)
	return ents
}

// AsMap returns the message attributes plus "text". With onlyOutput set,
// only attributes marked as output properties are included.
func (m *Message) AsMap(onlyOutput bool) map[string]any {
	out := make(map[string]any, len(m.data)+1)
	for k, v := range m.data {
		if onlyOutput {
			if _, ok := m.outputProperties[k]; !ok {
				continue
			}
		}
		out[k] = v
	}
	out[AttrText] = m.Text
	return out
}

// Clone returns a deep copy of the message. The clone keeps the ID.
func (m *Message) Clone() *Message {
	c := &Message{
		ID:               m.ID,
		Text:             m.Text,
		data:             make(map[string]any, len(m.data)),
		outputProperties: make(map[string]struct{}, len(m.outputProperties)),
	}
	if m.Time != nil {
		t := *m.Time
		c.Time = &t
	}
	for k, v := range m.data {
		c.data[k] = CloneValue(v)
	}
	for k := range m.outputProperties {
		c.outputProperties[k] = struct{}{}
	}
	return c
}

// Cloner is implemented by attribute values that know how to deep copy
// themselves.
type Cloner interface {
	CloneValue() any
}

// CloneValue deep copies the attribute value types the pipeline produces.
// Values of other types are treated as immutable and returned as is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case Cloner:
		return val.CloneValue()
	case []string:
		return append([]string(nil), val...)
	case []Entity:
		return append([]Entity(nil), val...)
	case []Intent:
		return append([]Intent(nil), val...)
	case []float64:
		return append([]float64(nil), val...)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	default:
		return v
	}
}
