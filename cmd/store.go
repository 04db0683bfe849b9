package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsight/internal/report"
	"github.com/sells-group/fieldsight/internal/store"
)

// newEngine builds a report engine with any configured threshold overrides.
func newEngine(st store.Store) *report.Engine {
	e := report.NewEngine(st, st)
	e.SetThresholds(report.Thresholds{
		Person:   cfg.Resolve.PersonThreshold,
		Product:  cfg.Resolve.ProductThreshold,
		Customer: cfg.Resolve.CustomerThreshold,
		Clinic:   cfg.Resolve.ClinicThreshold,
	})
	return e
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(ctx, cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
