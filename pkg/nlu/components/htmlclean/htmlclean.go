// Package htmlclean strips markup from incoming text so later components see
// plain words. The cleaned text is stored under message.AttrCleanText; the
// original text is left untouched.
package htmlclean

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

// Name is the registry name of the component
const Name = "html_cleaner"

const metadataKey = "html_cleaner_skip_tags"

// Options configures the cleaner
type Options struct {
	// SkipTags are elements whose content is dropped entirely
	SkipTags []string `yaml:"skip_tags"`
}

// DefaultOptions drops script and style content
func DefaultOptions() Options {
	return Options{SkipTags: []string{"script", "style"}}
}

// Cleaner is the html_cleaner component
type Cleaner struct {
	component.Base
	skip map[string]struct{}
}

// New creates a cleaner from the html_cleaner options in cfg
func New(cfg *config.Config) (*Cleaner, error) {
	opts := DefaultOptions()
	if err := cfg.Decode(Name, &opts); err != nil {
		return nil, err
	}
	return newCleaner(opts.SkipTags), nil
}

// Load restores the cleaner's skip list from the model metadata
func Load(modelDir string, md *metadata.Metadata, cfg *config.Config, shared component.Context) (*Cleaner, error) {
	raw, ok := md.Get(metadataKey)
	if !ok {
		return New(cfg)
	}
	var tags []string
	switch list := raw.(type) {
	case []string:
		tags = list
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
	}
	return newCleaner(tags), nil
}

func newCleaner(tags []string) *Cleaner {
	skip := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		skip[strings.ToLower(tag)] = struct{}{}
	}
	return &Cleaner{skip: skip}
}

func (c *Cleaner) Name() string { return Name }

func (c *Cleaner) Provides() []string { return []string{message.AttrCleanText} }

// Train cleans every example of the working corpus
func (c *Cleaner) Train(data *trainingdata.TrainingData, cfg *config.Config, shared component.Context) (component.Context, error) {
	for _, ex := range data.Examples {
		ex.Set(message.AttrCleanText, c.Clean(ex.Text), false)
	}
	return nil, nil
}

func (c *Cleaner) Process(msg *message.Message, shared component.Context) error {
	msg.Set(message.AttrCleanText, c.Clean(msg.Text), false)
	return nil
}

func (c *Cleaner) Persist(dir string) (map[string]any, error) {
	tags := make([]string, 0, len(c.skip))
	for tag := range c.skip {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return map[string]any{metadataKey: tags}, nil
}

// Clean returns the text content of s with entities unescaped and runs of
// whitespace collapsed to a single space.
func (c *Cleaner) Clean(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.Join(strings.Fields(b.String()), " ")
			}
			return strings.Join(strings.Fields(s), " ")
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if _, ok := c.skip[string(name)]; ok && tt == html.StartTagToken {
				skipDepth++
			}
			// tags separate words: "a<br>b" is two words
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if _, ok := c.skip[string(name)]; ok && skipDepth > 0 {
				skipDepth--
			}
			b.WriteByte(' ')
		}
	}
}

// Span is a byte range [Start, End) of the raw input
type Span struct {
	Start, End int
}

var defaultCleaner = newCleaner(DefaultOptions().SkipTags)

// Markup returns the byte ranges of s that Clean drops with the default
// skip tags.
func Markup(s string) []Span { return defaultCleaner.Markup(s) }

// Markup returns the byte ranges of s that Clean drops: tags, comments,
// doctypes and the content of skipped elements. Ranges are ordered and
// never adjacent. Input the tokenizer cannot read yields nil.
func (c *Cleaner) Markup(s string) []Span {
	if !strings.Contains(s, "<") {
		return nil
	}

	var spans []Span
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth, pos := 0, 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return nil
			}
			return spans
		}
		end := pos + len(z.Raw())

		drop := true
		switch tt {
		case html.TextToken:
			drop = skipDepth > 0
		case html.StartTagToken:
			name, _ := z.TagName()
			if _, ok := c.skip[string(name)]; ok {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if _, ok := c.skip[string(name)]; ok && skipDepth > 0 {
				skipDepth--
			}
		}

		if drop && end > pos {
			if n := len(spans); n > 0 && spans[n-1].End == pos {
				spans[n-1].End = end
			} else {
				spans = append(spans, Span{Start: pos, End: end})
			}
		}
		pos = end
	}
}
