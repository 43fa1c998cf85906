package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/config"
	"github.com/seenimoa/stocker/internal/enrich"
	"github.com/seenimoa/stocker/internal/providers"
	"github.com/seenimoa/stocker/internal/recorder"
	"github.com/seenimoa/stocker/internal/store"
)

// app holds the wired services shared by the commands.
type app struct {
	stocks   *store.Store
	recorder recorder.Recorder
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	prov, err := providers.Open(cfg.Provider, log)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Storage.AuditDB != "" {
		sqlRec, err := recorder.NewSQLiteRecorder(cfg.Storage.AuditDB, log)
		if err != nil {
			return nil, fmt.Errorf("audit db: %w", err)
		}
		rec = sqlRec
	}

	pipeline := enrich.NewPipeline(prov, enrich.WithLogger(log.Named("enrich")))
	stocks := store.New(
		store.NewFileStorage(cfg.Storage.DataFile),
		pipeline,
		store.WithRecorder(rec),
		store.WithLogger(log.Named("store")),
	)
	return &app{stocks: stocks, recorder: rec}, nil
}

// Close releases the audit database.
func (a *app) Close() error {
	return a.recorder.Close()
}
