package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alucardeht/wayleave/internal/agreement"
	"github.com/alucardeht/wayleave/internal/batch"
	"github.com/alucardeht/wayleave/internal/config"
	"github.com/alucardeht/wayleave/internal/ingest"
	"github.com/alucardeht/wayleave/internal/letter"
	"github.com/alucardeht/wayleave/internal/registry"
	"github.com/alucardeht/wayleave/internal/tools"
	"github.com/alucardeht/wayleave/internal/tools/letters"
)

// app holds what the folder and server commands share.
type app struct {
	cfg       *config.Config
	store     *registry.Store
	processor *batch.Processor
}

func openApp(cfg *config.Config) (*app, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	store, err := registry.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	return &app{
		cfg:       cfg,
		store:     store,
		processor: batch.NewProcessor(store, batchOptions(cfg)),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) workerConfig() batch.WorkerConfig {
	return batch.WorkerConfig{
		WorkerCount:  a.cfg.Batch.Workers,
		MaxQueueSize: a.cfg.Batch.QueueSize,
	}
}

func (a *app) toolRegistry() (*tools.Registry, error) {
	r := tools.NewRegistry()
	if err := r.Register(tools.NewHealthTool(r)); err != nil {
		return nil, err
	}

	env := letters.Env{
		Validator:   validator(a.cfg),
		MaxFileSize: a.cfg.Batch.MaxFileSize,
		Processor:   a.processor,
		Store:       a.store,
	}
	for _, tool := range letters.GetTools(env) {
		if err := r.Register(tool); err != nil {
			return nil, fmt.Errorf("letters: %w", err)
		}
	}
	return r, nil
}

func batchOptions(cfg *config.Config) batch.Options {
	opts := batch.DefaultOptions()
	opts.Outbox = cfg.Batch.Outbox
	opts.MaxFileSize = cfg.Batch.MaxFileSize
	opts.Include = cfg.Batch.Include
	opts.Ignore = cfg.Batch.Ignore
	opts.Workers = cfg.Batch.Workers
	opts.Validator = validator(cfg)
	return opts
}

func validator(cfg *config.Config) agreement.Validator {
	return agreement.Validator{RequirePostcode: cfg.Batch.RequirePostcode}
}

// readAgreement reads path, or standard input when path is "" or "-".
func readAgreement(path string, maxSize int64) (ingest.Document, error) {
	if path == "" || path == "-" {
		doc, err := ingest.Read(os.Stdin, maxSize)
		if err != nil {
			return ingest.Document{}, fmt.Errorf("stdin: %w", err)
		}
		doc.Path = "-"
		return doc, nil
	}
	return ingest.ReadFile(path, maxSize)
}

var errNoLetter = errors.New("no letter generated")

// reportProblems lists every reason a document produced no letter.
func reportProblems(err error) error {
	problems := letter.Problems(err)
	if problems == nil {
		return err
	}
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", p.Stage, p.Field, p.Reason)
	}
	return errNoLetter
}
