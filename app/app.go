// Package app - Wires configuration, engine, registry and pipeline together.
package app

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/detector"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/engine"
	"github.com/nvr-ai/go-detect/logging"
	"github.com/nvr-ai/go-detect/metrics"
	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/nvr-ai/go-detect/render"
)

// App is the assembled detection service and its shared components.
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	Metrics  *metrics.Metrics
	Engine   inference.Engine
	Registry *models.Registry
	Service  *detector.Service
}

// New validates cfg and builds every component. Models load lazily on the
// first request for their size tag.
//
// Arguments:
//   - cfg: The loaded configuration.
//
// Returns:
//   - *App: The application.
//   - error: An error for invalid settings or an unusable engine.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	labels, err := models.LoadLabelTable(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngineBuilder().
		WithType(cfg.Engine).
		WithProvider(cfg.ORTProvider).
		WithInputSize(cfg.InputSize).
		WithSharedLibPath(cfg.ORTLibPath).
		WithLogger(log).
		Build()
	if err != nil {
		return nil, errors.Wrap(err, "building inference engine")
	}

	m := metrics.New()
	registry := models.NewRegistry(cfg.ModelDir, eng, log)

	service := detector.New(registry, render.Renderer{},
		detector.WithLogger(log),
		detector.WithMetrics(m),
		detector.WithDefaults(detector.Defaults{Model: cfg.DefaultModel, Conf: cfg.DefaultConf}),
		detector.WithParseOptions(postprocess.Options{
			InputWidth:     cfg.InputSize,
			InputHeight:    cfg.InputSize,
			ScoreThreshold: float32(cfg.ScoreThreshold),
			IoUThreshold:   float32(cfg.NMSThreshold),
			Labels:         labels,
		}),
	)

	log.WithFields(logrus.Fields{
		"engine":     eng.Type(),
		"model_dir":  cfg.ModelDir,
		"input_size": cfg.InputSize,
		"classes":    labels.Len(),
	}).Info("Detection service ready")

	return &App{
		Config:   cfg,
		Log:      log,
		Metrics:  m,
		Engine:   eng,
		Registry: registry,
		Service:  service,
	}, nil
}

// Close releases loaded models and the engine.
func (a *App) Close() error {
	err := a.Registry.Close()
	if cerr := a.Engine.Close(); err == nil {
		err = cerr
	}
	return err
}
