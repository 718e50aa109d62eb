package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
)

// Defaults applied by Load and New
const (
	DefaultLanguage = "en"
	DefaultPath     = "models"
	DefaultProject  = "default"
)

// Config describes a pipeline: its language, the ordered component names and
// the options handed to each component.
type Config struct {
	Language       string               `yaml:"language"`
	Pipeline       []string             `yaml:"pipeline"`
	Path           string               `yaml:"path"`
	Project        string               `yaml:"project"`
	FixedModelName string               `yaml:"fixed_model_name"`
	Data           string               `yaml:"data"`
	Components     map[string]yaml.Node `yaml:"components"`
}

// New creates a config for the given language and pipeline
func New(language string, pipeline ...string) *Config {
	cfg := &Config{
		Language:   language,
		Pipeline:   pipeline,
		Components: make(map[string]yaml.Node),
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads a pipeline configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Components == nil {
		cfg.Components = make(map[string]yaml.Node)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Project == "" {
		c.Project = DefaultProject
	}
}

// Validate checks the config is usable for training
func (c *Config) Validate() error {
	if len(c.Pipeline) == 0 {
		return fmt.Errorf("%w: pipeline is empty", internalerr.ErrInvalidConfig)
	}
	for i, name := range c.Pipeline {
		if name == "" {
			return fmt.Errorf("%w: pipeline[%d] has no name", internalerr.ErrInvalidConfig, i)
		}
	}
	return nil
}

// ApplyEnv overrides settings from NLU_LANGUAGE, NLU_PATH and NLU_PROJECT
func (c *Config) ApplyEnv() {
	if v := os.Getenv("NLU_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := os.Getenv("NLU_PATH"); v != "" {
		c.Path = v
	}
	if v := os.Getenv("NLU_PROJECT"); v != "" {
		c.Project = v
	}
}

// Decode decodes the options of the named component into v.
// v is left untouched when the component has no options.
func (c *Config) Decode(name string, v any) error {
	node, ok := c.Components[name]
	if !ok || node.Kind == 0 {
		return nil
	}
	if err := node.Decode(v); err != nil {
		return fmt.Errorf("%w: options for %s: %v", internalerr.ErrInvalidConfig, name, err)
	}
	return nil
}

// SetOptions replaces the options of the named component
func (c *Config) SetOptions(name string, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return fmt.Errorf("encode options for %s: %w", name, err)
	}
	if c.Components == nil {
		c.Components = make(map[string]yaml.Node)
	}
	c.Components[name] = node
	return nil
}

// Fingerprint identifies the language and options of the named component.
// Two configs with equal fingerprints build interchangeable components.
func (c *Config) Fingerprint(name string) string {
	h := sha256.New()
	h.Write([]byte(c.Language))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	if node, ok := c.Components[name]; ok && node.Kind != 0 {
		if out, err := yaml.Marshal(&node); err == nil {
			h.Write(out)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
