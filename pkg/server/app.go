package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	domrepo "github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	"github.com/aionanalytics/Aion-sub001/internal/usecase"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	applogger "github.com/aionanalytics/Aion-sub001/pkg/logger"
)

// Mode selects which pass the App executes.
type Mode string

const (
	ModeRun    Mode = "run"
	ModeFuse   Mode = "fuse"
	ModePolicy Mode = "policy"
	ModeRegime Mode = "regime"
)

// App encapsulates the application lifecycle: one pass, then release resources.
type App struct {
	cfg       *config.Config
	pipeline  *usecase.Pipeline
	publisher domrepo.Publisher
	log       *applogger.Logger
	closers   []io.Closer
	out       io.Writer
}

// New creates a new App instance with all dependencies. Closers are released in
// reverse order by Close.
func New(cfg *config.Config, pipeline *usecase.Pipeline, publisher domrepo.Publisher, log *applogger.Logger, closers ...io.Closer) *App {
	return &App{
		cfg:       cfg,
		pipeline:  pipeline,
		publisher: publisher,
		log:       log,
		closers:   closers,
		out:       os.Stdout,
	}
}

// SetOutput redirects the JSON report (stdout by default).
func (a *App) SetOutput(w io.Writer) { a.out = w }

// Run executes one pass. SIGINT/SIGTERM cancel the pass; nothing is persisted
// unless it reaches its final save.
func (a *App) Run(ctx context.Context, mode Mode) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("starting pass",
		applogger.String("mode", string(mode)),
		applogger.String("env", a.cfg.Environment),
		applogger.String("store", a.cfg.Store.Backend),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	var (
		report any
		err    error
	)
	switch mode {
	case ModeRun:
		report, err = a.pipeline.Run(ctx)
	case ModeFuse:
		report, err = a.pipeline.RunFuse(ctx)
	case ModePolicy:
		report, err = a.pipeline.RunPolicy(ctx)
	case ModeRegime:
		report = a.pipeline.DetectRegime(ctx)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		a.log.Error("pass failed", applogger.String("mode", string(mode)), applogger.Error(err))
		return err
	}
	return a.print(report)
}

func (a *App) print(v any) error {
	if a.out == nil {
		return nil
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Close releases the publisher and every registered closer.
func (a *App) Close() error {
	var firstErr error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
			firstErr = err
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] == nil {
			continue
		}
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
