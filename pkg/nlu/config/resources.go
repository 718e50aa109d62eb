package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
)

// Resource files are referenced from component options by path and read once
// when the component is created. Their content is persisted with the model,
// so a loaded model never reads them again.

// Phrase is a multi-word expression recognized by the multitoken component.
// Variants normalize to Canonical; Entity optionally names the entity type
// the phrase denotes.
type Phrase struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants,omitempty"`
	Entity    string   `yaml:"entity,omitempty"`
}

// Gazetteer maps entity type → entity value → synonyms
type Gazetteer map[string]map[string][]string

// LoadStopwords reads a stopword list. A .yaml or .yml file holds a
// "stopwords" sequence; any other file holds one word per line, with blank
// lines and # comments ignored. Words are lowercased and deduplicated.
func LoadStopwords(path string) ([]string, error) {
	var words []string
	if isYAML(path) {
		var doc struct {
			Stopwords []string `yaml:"stopwords"`
		}
		if err := decodeFile(path, &doc); err != nil {
			return nil, err
		}
		words = doc.Stopwords
	} else {
		err := eachLine(path, func(_ int, line string) error {
			words = append(words, line)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if _, dup := seen[w]; dup || w == "" {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out, nil
}

// LoadPhrases reads a phrase dictionary. A .yaml or .yml file holds a
// "phrases" sequence of Phrase. Any other file holds one phrase per line:
//
//	canonical|variant|...|entity
//
// The last field is the entity type and may be empty. A line with fewer
// than two fields is rejected.
func LoadPhrases(path string) ([]Phrase, error) {
	if isYAML(path) {
		var doc struct {
			Phrases []Phrase `yaml:"phrases"`
		}
		if err := decodeFile(path, &doc); err != nil {
			return nil, err
		}
		for i, p := range doc.Phrases {
			if strings.TrimSpace(p.Canonical) == "" {
				return nil, fmt.Errorf("%w: %s: phrase %d has no canonical form", internalerr.ErrInvalidConfig, path, i)
			}
		}
		return doc.Phrases, nil
	}

	var phrases []Phrase
	err := eachLine(path, func(n int, line string) error {
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			return fmt.Errorf("%w: %s:%d: want canonical|...|entity", internalerr.ErrInvalidConfig, path, n)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if fields[0] == "" {
			return fmt.Errorf("%w: %s:%d: empty canonical form", internalerr.ErrInvalidConfig, path, n)
		}
		p := Phrase{Canonical: fields[0], Entity: fields[len(fields)-1]}
		for _, v := range fields[1 : len(fields)-1] {
			if v != "" {
				p.Variants = append(p.Variants, v)
			}
		}
		phrases = append(phrases, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return phrases, nil
}

// LoadGazetteer reads the "entities" mapping of a YAML file
func LoadGazetteer(path string) (Gazetteer, error) {
	var doc struct {
		Entities Gazetteer `yaml:"entities"`
	}
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if doc.Entities == nil {
		return Gazetteer{}, nil
	}
	return doc.Entities, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return nil
}

// eachLine calls fn with every non-blank, non-comment line of path, trimmed,
// along with its 1-based line number.
func eachLine(path string, fn func(n int, line string) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
