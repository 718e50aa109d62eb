package memstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/persistor"
)

var _ persistor.Archive = (*Store)(nil)

func TestPersistRetrieve(t *testing.T) {
	ctx := context.Background()
	s := New()

	src := t.TempDir()
	os.WriteFile(filepath.Join(src, "metadata.json"), []byte("{}"), 0o644)

	if err := s.Persist(ctx, src, "model_a", "default"); err != nil {
		t.Fatal(err)
	}
	names, _ := s.List(ctx, "default")
	if len(names) != 1 || names[0] != "model_a" {
		t.Errorf("List = %v", names)
	}

	dst := t.TempDir()
	if err := s.Retrieve(ctx, "model_a", "default", dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dst, "metadata.json")); err != nil {
		t.Errorf("metadata.json not restored: %v", err)
	}

	err := s.Retrieve(ctx, "model_a", "other", dst)
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
