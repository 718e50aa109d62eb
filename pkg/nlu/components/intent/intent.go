// Package intent classifies messages into intents with a multinomial naive
// Bayes model over message.AttrTokens.
//
// Scores are log-probabilities turned into confidences with a softmax, so
// the confidences of the full ranking sum to one. Tokens never seen during
// training are ignored rather than smoothed, which keeps a message made only
// of unknown words at the class prior.
package intent

import (
	"math"
	"sort"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

// Name is the registry name of the component
const Name = "intent_classifier"

// ContextKey holds the sorted intent labels once the classifier is trained
const ContextKey = "intents"

const (
	artifactKey  = "intent_classifier_file"
	artifactFile = "intent_classifier.yaml"
)

// Options configures the classifier
type Options struct {
	Alpha         float64 `yaml:"alpha"`
	RankingLength int     `yaml:"ranking_length"`
}

// DefaultOptions uses Laplace smoothing and a ranking of ten
func DefaultOptions() Options {
	return Options{Alpha: 1.0, RankingLength: 10}
}

type state struct {
	Alpha         float64                   `yaml:"alpha"`
	RankingLength int                       `yaml:"ranking_length"`
	Docs          map[string]int            `yaml:"docs"`
	Counts        map[string]map[string]int `yaml:"counts"`
}

// Classifier is the intent_classifier component
type Classifier struct {
	component.Base
	opts Options

	intents []string // sorted
	docs    map[string]int
	counts  map[string]map[string]int
	totals  map[string]int
	vocab   map[string]struct{}
	nDocs   int
}

// New creates an untrained classifier from the options in cfg
func New(cfg *config.Config) (*Classifier, error) {
	opts := DefaultOptions()
	if err := cfg.Decode(Name, &opts); err != nil {
		return nil, err
	}
	if opts.Alpha <= 0 {
		opts.Alpha = 1.0
	}
	if opts.RankingLength <= 0 {
		opts.RankingLength = 10
	}
	c := &Classifier{opts: opts}
	c.index(nil, nil)
	return c, nil
}

// Load restores a trained classifier
func Load(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (*Classifier, error) {
	var st state
	if err := component.LoadArtifact(modelDir, md, artifactKey, &st); err != nil {
		return nil, err
	}
	c := &Classifier{opts: Options{Alpha: st.Alpha, RankingLength: st.RankingLength}}
	c.index(st.Docs, st.Counts)
	return c, nil
}

func (c *Classifier) index(docs map[string]int, counts map[string]map[string]int) {
	if docs == nil {
		docs = make(map[string]int)
	}
	if counts == nil {
		counts = make(map[string]map[string]int)
	}
	c.docs = docs
	c.counts = counts
	c.totals = make(map[string]int, len(docs))
	c.vocab = make(map[string]struct{})
	c.intents = make([]string, 0, len(docs))
	c.nDocs = 0

	for name, n := range docs {
		c.intents = append(c.intents, name)
		c.nDocs += n
	}
	sort.Strings(c.intents)

	for name, toks := range counts {
		for tok, n := range toks {
			c.totals[name] += n
			c.vocab[tok] = struct{}{}
		}
	}
}

func (c *Classifier) Name() string { return Name }

func (c *Classifier) Provides() []string {
	return []string{message.AttrIntent, message.AttrIntentRanking, ContextKey}
}

func (c *Classifier) Requires() []string { return []string{message.AttrTokens} }

// ProvideContext publishes the labels of a loaded model
func (c *Classifier) ProvideContext() (component.Context, error) {
	if len(c.intents) == 0 {
		return nil, nil
	}
	return component.Context{ContextKey: c.Intents()}, nil
}

// Train counts tokens per intent. Examples the earlier components left
// without tokens are run through the trained prefix first.
func (c *Classifier) Train(data *trainingdata.TrainingData, cfg *config.Config, shared component.Context) (component.Context, error) {
	docs := make(map[string]int)
	counts := make(map[string]map[string]int)

	for _, ex := range data.IntentExamples() {
		if _, ok := ex.Get(message.AttrTokens); !ok {
			if err := c.ProcessPartial(ex); err != nil {
				return nil, err
			}
		}
		name := ex.Intent().Name
		docs[name]++
		if counts[name] == nil {
			counts[name] = make(map[string]int)
		}
		for _, tok := range ex.GetStrings(message.AttrTokens) {
			counts[name][tok]++
		}
	}

	c.index(docs, counts)
	return component.Context{ContextKey: c.Intents()}, nil
}

// Process sets the top intent and the ranking. An untrained classifier
// leaves the message alone.
func (c *Classifier) Process(msg *message.Message, shared component.Context) error {
	if _, ok := msg.Get(message.AttrTokens); !ok {
		return &component.MissingArgumentError{Component: Name, Argument: message.AttrTokens}
	}
	if len(c.intents) == 0 {
		return nil
	}

	ranking := c.Rank(msg.GetStrings(message.AttrTokens))
	msg.Set(message.AttrIntent, ranking[0], true)
	if len(ranking) > c.opts.RankingLength {
		ranking = ranking[:c.opts.RankingLength]
	}
	msg.Set(message.AttrIntentRanking, ranking, true)
	return nil
}

// Rank returns every intent with its confidence, best first. Ties are
// broken by name.
func (c *Classifier) Rank(tokens []string) []message.Intent {
	scores := make([]float64, len(c.intents))
	vocabSize := float64(len(c.vocab))
	best := math.Inf(-1)

	for i, name := range c.intents {
		s := math.Log(float64(c.docs[name]) / float64(c.nDocs))
		denom := float64(c.totals[name]) + c.opts.Alpha*vocabSize
		for _, tok := range tokens {
			if _, known := c.vocab[tok]; !known {
				continue
			}
			s += math.Log((float64(c.counts[name][tok]) + c.opts.Alpha) / denom)
		}
		scores[i] = s
		if s > best {
			best = s
		}
	}

	sum := 0.0
	for i := range scores {
		scores[i] = math.Exp(scores[i] - best)
		sum += scores[i]
	}

	ranking := make([]message.Intent, len(c.intents))
	for i, name := range c.intents {
		ranking[i] = message.Intent{Name: name, Confidence: scores[i] / sum}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Confidence > ranking[j].Confidence
	})
	return ranking
}

// Intents returns the known intent labels, sorted
func (c *Classifier) Intents() []string {
	return append([]string(nil), c.intents...)
}

func (c *Classifier) Persist(dir string) (map[string]any, error) {
	return component.SaveArtifact(dir, artifactKey, artifactFile, state{
		Alpha:         c.opts.Alpha,
		RankingLength: c.opts.RankingLength,
		Docs:          c.docs,
		Counts:        c.counts,
	})
}
