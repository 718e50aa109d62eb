package trainingdata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/message"
)

const yamlCorpus = `examples:
  - text: hello there
    intent: greet
  - text: book a flight to berlin
    intent: book_flight
    entities:
      - start: 17
        end: 23
        value: berlin
        entity: city
  - text: goodbye
    intent: bye
  - text: hi
    intent: greet
`

const jsonCorpus = `{"examples": [
  {"text": "hello", "intent": "greet"},
  {"text": "fly to paris", "intent": "book_flight",
   "entities": [{"start": 7, "end": 12, "value": "paris", "entity": "city"}]}
]}`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	td, err := Load(write(t, "train.yaml", yamlCorpus))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(td.Examples) != 4 {
		t.Fatalf("Expected 4 examples, got %d", len(td.Examples))
	}
	if got := td.Intents(); len(got) != 3 || got[0] != "book_flight" || got[2] != "greet" {
		t.Errorf("Intents() = %v", got)
	}
	ents := td.EntityExamples()
	if len(ents) != 1 || ents[0].Entities()[0].Value != "berlin" {
		t.Errorf("EntityExamples() = %v", ents)
	}
}

func TestLoadJSON(t *testing.T) {
	td, err := Load(write(t, "train.json", jsonCorpus))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(td.IntentExamples()) != 2 {
		t.Errorf("Expected 2 intent examples, got %d", len(td.IntentExamples()))
	}
}

func TestLoadRejectsBadSpan(t *testing.T) {
	bad := `examples:
  - text: fly to paris
    intent: book_flight
    entities:
      - {start: 0, end: 3, value: paris, entity: city}
`
	_, err := Load(write(t, "bad.yaml", bad))
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(write(t, "train.csv", "text,intent\n"))
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCloneDoesNotTouchOriginal(t *testing.T) {
	td := FromExamples([]Example{
		{Text: "fly to paris", Intent: "book_flight", Entities: []message.Entity{{Start: 7, End: 12, Value: "paris", Entity: "city"}}},
	})

	working := td.Clone()
	working.Examples[0].Set(message.AttrTokens, []string{"fly", "paris"}, false)
	working.Examples[0].Entities()[0].Entity = "destination"
	working.Examples = append(working.Examples, NewExample(Example{Text: "extra"}))

	if _, ok := td.Examples[0].Get(message.AttrTokens); ok {
		t.Error("annotation leaked into original corpus")
	}
	if td.Examples[0].Entities()[0].Entity != "city" {
		t.Error("entity mutation leaked into original corpus")
	}
	if len(td.Examples) != 1 {
		t.Error("appending to the clone changed the original")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	td, err := Load(write(t, "train.yaml", yamlCorpus))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	keys, err := td.Persist(dir)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if keys[MetadataKey] != FileName {
		t.Errorf("metadata keys = %v", keys)
	}

	reloaded, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Examples) != len(td.Examples) {
		t.Fatalf("reloaded %d examples, want %d", len(reloaded.Examples), len(td.Examples))
	}
	for i := range td.Examples {
		if reloaded.Examples[i].Text != td.Examples[i].Text ||
			reloaded.Examples[i].Intent() != td.Examples[i].Intent() {
			t.Errorf("example %d differs after round trip", i)
		}
	}
}

func TestLoadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.jsonl")
	body := `{"text": "hello there", "intent": "greet"}

{"text": "fly to rome", "intent": "book_flight", "entities": [{"start": 7, "end": 11, "value": "rome", "entity": "city"}]}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	td, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(td.Examples) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(td.Examples))
	}
	if ents := td.Examples[1].Entities(); len(ents) != 1 || ents[0].Value != "rome" {
		t.Errorf("entities = %+v", ents)
	}
}

func TestLoadJSONLMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.jsonl")
	if err := os.WriteFile(path, []byte("{\"text\": \"ok\"}\n{broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
