package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/nlu/pkg/nlu"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/logging"
	"github.com/cognicore/nlu/pkg/nlu/persistor/sqlite"
)

func main() {
	var (
		modelDir    = flag.String("model", "", "Model directory (required)")
		configPath  = flag.String("config", "", "Optional: pipeline config file")
		text        = flag.String("text", "", "One-shot text (non-interactive mode)")
		archivePath = flag.String("archive", "", "Optional: SQLite archive to retrieve the model from")
		project     = flag.String("project", config.DefaultProject, "Archive project name")
		name        = flag.String("name", "", "Archive model name (required with --archive)")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *modelDir == "" {
		log.Fatal("--model required")
	}
	if *archivePath != "" && *name == "" {
		log.Fatal("--name required with --archive")
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	if *archivePath != "" {
		if err := retrieve(ctx, *archivePath, *name, *project, *modelDir); err != nil {
			logger.WithError(err).Fatalw("retrieving model failed", "archive", *archivePath, "name", *name)
		}
	}

	interp, err := loadInterpreter(*modelDir, *configPath, logger)
	if err != nil {
		logger.WithError(err).Fatalw("loading model failed", "model", *modelDir)
	}

	if *text != "" {
		if err := parseLine(os.Stdout, interp, *text); err != nil {
			logger.WithError(err).Fatal("parse failed")
		}
		return
	}

	if err := parseAll(os.Stdin, os.Stdout, interp); err != nil {
		logger.WithError(err).Fatal("parse failed")
	}
}

// newLogger returns a debug console logger when verbose, otherwise a JSON
// logger on stderr that only reports warnings and failures.
func newLogger(verbose bool) (*logging.Logger, error) {
	if verbose {
		return logging.NewDevelopmentLogger()
	}
	cfg := logging.DefaultConfig()
	cfg.Level = "warn"
	return logging.New(cfg)
}

func retrieve(ctx context.Context, archivePath, name, project, modelDir string) error {
	archive, err := sqlite.OpenSQLite(ctx, archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()
	return archive.Retrieve(ctx, name, project, modelDir)
}

func loadInterpreter(modelDir, configPath string, logger *logging.Logger) (*nlu.Interpreter, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	return nlu.Load(modelDir, cfg, nlu.InterpreterOptions{Logger: logger})
}

// parseAll parses every non-empty line of r and writes one JSON object per line
func parseAll(r io.Reader, w io.Writer, interp *nlu.Interpreter) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := parseLine(w, interp, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseLine(w io.Writer, interp *nlu.Interpreter, text string) error {
	out, err := interp.Parse(text, nil)
	if err != nil {
		return fmt.Errorf("parse %q: %w", text, err)
	}
	return json.NewEncoder(w).Encode(out)
}
