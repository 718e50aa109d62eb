// Package persistor ships trained model directories to and from durable
// storage. The trainer hands a freshly persisted model directory to a
// Persistor; Retriever does the reverse before an interpreter loads it.
package persistor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Persistor uploads a local model directory under modelName in projectName
type Persistor interface {
	Persist(ctx context.Context, localDir, modelName, projectName string) error
}

// Retriever downloads a stored model into targetDir
type Retriever interface {
	Retrieve(ctx context.Context, modelName, projectName, targetDir string) error
}

// Archive is a model store that supports both directions
type Archive interface {
	Persistor
	Retriever
	List(ctx context.Context, projectName string) ([]string, error)
	Close() error
}

// File is one file of a model directory, with its slash-separated path
// relative to the directory root.
type File struct {
	Path string
	Data []byte
}

// ReadDir collects every regular file under dir, sorted by path
func ReadDir(dir string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, File{Path: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read model dir %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// WriteDir writes files below dir, creating directories as needed
func WriteDir(dir string, files []File) error {
	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if !isWithin(dir, target) {
			return fmt.Errorf("refusing to write %q outside %s", f.Path, dir)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, f.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func isWithin(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
