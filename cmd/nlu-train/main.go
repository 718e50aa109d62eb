package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/nlu/pkg/nlu"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/logging"
	"github.com/cognicore/nlu/pkg/nlu/persistor"
	"github.com/cognicore/nlu/pkg/nlu/persistor/sqlite"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

type options struct {
	configPath     string
	dataPath       string
	path           string
	project        string
	fixedModelName string
	archivePath    string
	skipValidation bool
}

func main() {
	var (
		configPath     = flag.String("config", "", "Pipeline config file (required)")
		dataPath       = flag.String("data", "", "Training data file (defaults to the config's data)")
		path           = flag.String("path", "", "Base directory for models (defaults to the config's path)")
		project        = flag.String("project", "", "Project name (defaults to the config's project)")
		fixedModelName = flag.String("fixed-model-name", "", "Model directory name instead of a timestamp")
		archivePath    = flag.String("archive", "", "Optional: SQLite archive the model is copied to")
		skipValidation = flag.Bool("skip-validation", false, "Skip component requirement checks")
		verbose        = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	dir, err := train(context.Background(), logger, options{
		configPath:     *configPath,
		dataPath:       *dataPath,
		path:           *path,
		project:        *project,
		fixedModelName: *fixedModelName,
		archivePath:    *archivePath,
		skipValidation: *skipValidation,
	})
	if err != nil {
		logger.WithError(err).Fatal("training failed")
	}
	fmt.Println(dir)
}

func newLogger(verbose bool) (*logging.Logger, error) {
	if verbose {
		return logging.NewDevelopmentLogger()
	}
	return logging.NewProductionLogger()
}

// train loads the config and corpus, trains the pipeline and returns the
// model directory. Flags override the config file; NLU_* variables override
// both.
func train(ctx context.Context, logger *logging.Logger, opts options) (string, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if opts.dataPath != "" {
		cfg.Data = opts.dataPath
	}
	if opts.path != "" {
		cfg.Path = opts.path
	}
	if opts.project != "" {
		cfg.Project = opts.project
	}
	if opts.fixedModelName != "" {
		cfg.FixedModelName = opts.fixedModelName
	}
	cfg.ApplyEnv()

	if cfg.Data == "" {
		return "", fmt.Errorf("no training data: set data in %s or pass --data", opts.configPath)
	}
	data, err := trainingdata.Load(cfg.Data)
	if err != nil {
		return "", fmt.Errorf("load training data: %w", err)
	}
	if err := data.Validate(); err != nil {
		return "", err
	}
	logger.WithFields(map[string]interface{}{
		"path":     cfg.Data,
		"examples": len(data.Examples),
		"intents":  data.Intents(),
	}).Info("loaded training data")

	trainer, err := nlu.NewTrainer(cfg, nlu.TrainerOptions{
		SkipValidation: opts.skipValidation,
		Logger:         logger,
	})
	if err != nil {
		return "", err
	}
	if _, err := trainer.Train(data); err != nil {
		return "", err
	}

	var p persistor.Persistor
	if opts.archivePath != "" {
		archive, err := sqlite.OpenSQLite(ctx, opts.archivePath)
		if err != nil {
			return "", fmt.Errorf("open archive: %w", err)
		}
		defer archive.Close()
		p = archive
	}

	return trainer.Persist(ctx, nlu.PersistOptions{
		Path:           cfg.Path,
		Persistor:      p,
		ProjectName:    cfg.Project,
		FixedModelName: cfg.FixedModelName,
	})
}
