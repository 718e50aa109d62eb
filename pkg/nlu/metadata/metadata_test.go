package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
)

func TestPersistLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	md := New("zh", []string{"tokenizer", "intent_classifier"}, dir)
	if err := md.Update(map[string]any{
		"training_data":          "training_data.json",
		"intent_classifier_file": "intent_classifier.json",
		"nested":                 map[string]any{"labels": []any{"a", "b"}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := md.Persist(dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Language != "zh" {
		t.Errorf("language = %q", loaded.Language)
	}
	if !reflect.DeepEqual(loaded.Pipeline, md.Pipeline) {
		t.Errorf("pipeline = %v, want %v", loaded.Pipeline, md.Pipeline)
	}
	if loaded.ModelDir != dir {
		t.Errorf("model dir = %q", loaded.ModelDir)
	}
	if !reflect.DeepEqual(loaded.Keys(), md.Keys()) {
		t.Errorf("keys = %v, want %v", loaded.Keys(), md.Keys())
	}
	nested, _ := loaded.Get("nested")
	if !reflect.DeepEqual(nested, map[string]any{"labels": []any{"a", "b"}}) {
		t.Errorf("nested = %v", nested)
	}
	if loaded.GetString("intent_classifier_file") != "intent_classifier.json" {
		t.Errorf("component key lost")
	}
}

func TestUpdateReservedKeys(t *testing.T) {
	md := New("en", nil, "")
	if err := md.Update(map[string]any{"language": "de", "pipeline": []any{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	if md.Language != "de" || !reflect.DeepEqual(md.Pipeline, []string{"a", "b"}) {
		t.Errorf("reserved keys not applied: %+v", md)
	}
	if len(md.Keys()) != 0 {
		t.Errorf("reserved keys should not be stored as extras: %v", md.Keys())
	}

	if err := md.Set("pipeline", []any{1}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadWithoutPipeline(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(`{"language":"en"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
