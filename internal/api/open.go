package api

import (
	"context"

	"tasklist/internal/config"
	"tasklist/internal/logging"
	"tasklist/internal/queue"
	"tasklist/internal/repository"
	"tasklist/internal/store"
	"tasklist/internal/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Options are the collaborators Open wires into the API
type Options struct {
	// Sink receives failures of queued changes. Defaults to a LogSink.
	Sink logging.ErrorSink
	// Registerer enables writer queue metrics when set
	Registerer prometheus.Registerer
	Logger     *logrus.Entry
}

// Open builds the full stack for cfg: storage engine, store, repository
// and filter. Closing the returned API closes the engine.
func Open(ctx context.Context, cfg *config.Config, opts Options) (API, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Base()
	}

	engine, err := config.CreateEngine(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, engine)
	if err != nil {
		engine.Close()
		return nil, err
	}

	var metrics *queue.Metrics
	if opts.Registerer != nil {
		metrics = queue.NewMetrics(opts.Registerer)
	}

	validator := validation.NewTaskValidatorWithConfig(cfg)
	repo := repository.New(st, repository.Options{
		Capacity:  cfg.Queue.Capacity,
		Sink:      opts.Sink,
		Metrics:   metrics,
		Logger:    logger,
		Validator: validator,
	})

	a := New(repo, validator).(*apiImpl)
	a.closers = append(a.closers, engine.Close)

	logger.WithFields(logrus.Fields{
		"environment": cfg.Application.Environment,
		"tasks":       len(st.CurrentSnapshot()),
	}).Debug("task store opened")
	return a, nil
}
