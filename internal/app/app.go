// Package app wires a repository, its cache store and logging from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/masmgr/vcsview-go/config"
	"github.com/masmgr/vcsview-go/internal/browser"
	"github.com/masmgr/vcsview-go/internal/cache"
)

// App holds everything one CLI invocation needs. Call Close when done.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Repo   *browser.Repository
	OpID   string

	closeStore func() error
	logFile    *os.File
}

// Options adjusts how New builds an App.
type Options struct {
	Operation string    // logged with the operation id, e.g. "ls"
	Stderr    io.Writer // defaults to os.Stderr
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	opID := uuid.New().String()
	logger, logFile, err := newLogger(stderr, cfg.Log.File, opID, level)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, OpID: opID, logFile: logFile}
	logger.Debug("starting", "operation", opts.Operation, "root", cfg.Backend.SourceRoot, "cache", cfg.Cache.Type)

	store, closeStore, err := cache.NewStoreFromConfig(ctx, cfg.Cache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating cache store: %w", err)
	}
	a.closeStore = closeStore

	repo, err := browser.Open(ctx, cfg.Backend, browser.Options{
		Store:  store,
		MaxAge: cfg.Cache.MaxAge(),
		Logger: logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo
	return a, nil
}

// Close releases the cache store and the log file.
func (a *App) Close() error {
	var errs []error
	if a.closeStore != nil {
		errs = append(errs, a.closeStore())
		a.closeStore = nil
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
		a.logFile = nil
	}
	return errors.Join(errs...)
}
