package main

import (
	"github.com/fentz26/faultdrill/internal/audit"
	"github.com/fentz26/faultdrill/internal/config"
	"github.com/fentz26/faultdrill/internal/counter"
	"github.com/fentz26/faultdrill/internal/dispatch"
	"github.com/fentz26/faultdrill/internal/escalation"
	"github.com/fentz26/faultdrill/internal/store"
	"github.com/fentz26/faultdrill/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app bundles the components every command works with.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *telemetry.Metrics
	store   store.Store
	// sqlite is set on the sqlite backend only; it also serves the counter
	// and the audit trail.
	sqlite *store.SQLiteStore
	engine *escalation.Engine
	svc    *dispatch.Service
}

func openApp(c *config.Config) (*app, error) {
	mc := c.Metrics
	mc.Textfile = c.Path(mc.Textfile)
	metrics, err := telemetry.NewMetrics(mc)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: c, log: log.Logger, metrics: metrics}

	var (
		ids  dispatch.IDSource
		sink audit.Sink
	)
	switch c.Store.Backend {
	case config.BackendSQLite:
		db, err := store.NewSQLite(c.Path(c.Store.SQLitePath))
		if err != nil {
			return nil, err
		}
		a.store, a.sqlite, ids, sink = db, db, db, db
	default:
		a.store = store.NewCSV(c.Path(c.Store.CSVPath))
		ids = counter.NewFile(c.Path(c.Store.CounterPath))
		sink = audit.NewLogSink(a.log)
	}

	var docs *dispatch.DocumentWriter
	if c.Documents.Enabled {
		docs = dispatch.NewDocumentWriter(c.Path(c.Documents.Dir))
	}

	a.engine = escalation.NewEngine(a.store, a.log, metrics)
	a.svc = dispatch.NewService(a.store, ids, a.engine, audit.NewPDRWriter(sink), dispatch.Options{
		Documents:  docs,
		Logger:     a.log,
		Recorder:   metrics,
		QueueLimit: c.Queue.Limit,
	})

	a.log.Debug().
		Str("backend", c.Store.Backend).
		Str("data_dir", c.DataDir).
		Bool("documents", docs != nil).
		Msg("components initialized")
	return a, nil
}

// Close flushes metrics and releases the store.
func (a *app) Close() {
	if err := a.metrics.Flush(); err != nil {
		a.log.Warn().Err(err).Msg("metrics flush failed")
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("store close failed")
	}
}
