package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/cognicore/nlu/pkg/nlu"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/logging"
	"github.com/cognicore/nlu/pkg/nlu/persistor/sqlite"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

func trainModel(t *testing.T, archivePath string) string {
	t.Helper()
	ctx := context.Background()

	cfg := config.New("en", "tokenizer", "intent_classifier")
	trainer, err := nlu.NewTrainer(cfg, nlu.TrainerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = trainer.Train(trainingdata.FromExamples([]trainingdata.Example{
		{Text: "hello there", Intent: "greet"},
		{Text: "hello friend", Intent: "greet"},
		{Text: "goodbye friend", Intent: "bye"},
		{Text: "goodbye then", Intent: "bye"},
	}))
	if err != nil {
		t.Fatal(err)
	}

	archive, err := sqlite.OpenSQLite(ctx, archivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer archive.Close()

	dir, err := trainer.Persist(ctx, nlu.PersistOptions{Path: t.TempDir(), Persistor: archive, FixedModelName: "m"})
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestParseAll(t *testing.T) {
	dir := trainModel(t, filepath.Join(t.TempDir(), "models.db"))
	interp, err := loadInterpreter(dir, "", logging.Nop())
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := parseAll(strings.NewReader("hello\n\ngoodbye\n"), &out, interp); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 results, got %q", out.String())
	}

	want := []string{"greet", "bye"}
	for i, line := range lines {
		var res struct {
			Text   string `json:"text"`
			Intent struct {
				Name string `json:"name"`
			} `json:"intent"`
			Entities []any `json:"entities"`
		}
		if err := json.Unmarshal([]byte(line), &res); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if res.Intent.Name != want[i] {
			t.Errorf("line %d intent = %q, want %q", i, res.Intent.Name, want[i])
		}
		if res.Entities == nil {
			t.Errorf("line %d: entities missing", i)
		}
	}
}

func TestRetrieveFromArchive(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "models.db")
	trainModel(t, archivePath)

	target := t.TempDir()
	if err := retrieve(context.Background(), archivePath, "m", config.DefaultProject, target); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	interp, err := loadInterpreter(target, "", logging.Nop())
	if err != nil {
		t.Fatalf("load retrieved model: %v", err)
	}

	var out bytes.Buffer
	if err := parseLine(&out, interp, "hello"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"greet"`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestQuietLoggerReportsOnlyWarnings(t *testing.T) {
	logger, err := newLogger(false)
	if err != nil {
		t.Fatal(err)
	}
	core := logger.Desugar().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info enabled without -v")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warnings disabled without -v")
	}

	verbose, err := newLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !verbose.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug disabled with -v")
	}
}
