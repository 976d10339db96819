// Package runstore keeps pipeline run metadata in SQLite through GORM.
//
// A Store records every run, every finished step and the location of every
// artifact a step persisted. It implements dag.Recorder, so wiring it into
// an engine is enough to populate it:
//
//	store, err := runstore.Open(ctx, runstore.Config{DSN: "file:runs.db"}, log)
//	engine := dag.NewEngine(log, dag.WithRecorder(store))
//
// The schema is versioned with golang-migrate; migrations are embedded and
// applied by Open.
package runstore
