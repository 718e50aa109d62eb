package component

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
)

// SaveArtifact writes v as YAML to dir/file and returns the metadata entry
// {key: file} that LoadArtifact resolves.
func SaveArtifact(dir, key, file string, v any) (map[string]any, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", file, err)
	}
	if err := os.WriteFile(filepath.Join(dir, file), data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", file, err)
	}
	return map[string]any{key: file}, nil
}

// LoadArtifact decodes the YAML file recorded under key in md into v
func LoadArtifact(modelDir string, md *metadata.Metadata, key string, v any) error {
	file := md.GetString(key)
	if file == "" {
		return fmt.Errorf("%w: metadata has no %q", internalerr.ErrNotFound, key)
	}
	data, err := os.ReadFile(filepath.Join(modelDir, file))
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	return nil
}
