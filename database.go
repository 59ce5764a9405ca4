// Package pagequery is the embedded single-node relational query engine
// described by the specification: an in-process SQL-like statement
// compiler and executor over a paged, disk-backed row store with
// secondary B+Tree indexes (§1). One process owns the database file;
// there is no client/server protocol, no multi-user concurrency
// control, and no recovery log.
//
// Grounded on the teacher's tinysql.go facade (Open/Exec/Query), which
// wires together its own pager, catalog, and engine package behind one
// entrypoint; Database plays the same role here over this engine's own
// storage and query-compiler stack.
package pagequery

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pagequery/pagequery/internal/ast"
	"github.com/pagequery/pagequery/internal/catalog"
	"github.com/pagequery/pagequery/internal/engine"
	"github.com/pagequery/pagequery/internal/storage/pager"
)

// Database is the facade over one open database file: a page manager, a
// pin-counted buffer pool, the in-memory catalog, and the engine driver
// that sequences bind -> plan -> optimize -> execute for each statement.
type Database struct {
	// SessionID stamps this open session for diagnostic logging; it has
	// no durable meaning and does not persist across Open calls.
	SessionID uuid.UUID

	cfg   Config
	mgr   *pager.Manager
	pool  *pager.BufferPool
	cat   *catalog.Catalog
	drv   *engine.Driver
	maint *engine.Maintenance
}

// Open opens (creating if necessary) the database file at path using
// cfg, wiring Manager -> BufferPool -> Catalog -> Driver, and starts the
// maintenance scheduler if cfg.Maintenance is set.
func Open(path string, cfg Config) (*Database, error) {
	cfg = cfg.withDefaults()

	mgr, err := pager.Open(path, cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("pagequery: open %q: %w", path, err)
	}
	pool := pager.NewBufferPool(mgr, cfg.BufferPoolPages)
	cat := catalog.New()
	drv := engine.New(cat, pool, cfg.IndexOrder)
	maint := engine.NewMaintenance(pool)

	db := &Database{
		SessionID: uuid.New(),
		cfg:       cfg,
		mgr:       mgr,
		pool:      pool,
		cat:       cat,
		drv:       drv,
		maint:     maint,
	}
	if err := maint.Start(cfg.Maintenance); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("pagequery: starting maintenance scheduler: %w", err)
	}
	return db, nil
}

// Execute binds, plans, optimizes, and runs stmt (§4.10). ctx is checked
// once at the top of the pipeline; no iterator checks it again mid-row
// (§5).
func (db *Database) Execute(ctx context.Context, stmt ast.Statement) (*engine.Result, error) {
	return db.drv.Execute(ctx, stmt)
}

// Catalog returns the database's table/index registry, primarily for
// introspection and tests.
func (db *Database) Catalog() *catalog.Catalog { return db.cat }

// StartMaintenance (re)starts the periodic buffer-pool flush scheduler
// with a new spec, first stopping any scheduler already running.
func (db *Database) StartMaintenance(spec MaintenanceSpec) error {
	db.maint.Stop()
	return db.maint.Start(spec)
}

// StopMaintenance halts the periodic buffer-pool flush scheduler, if
// running. It is safe to call even if maintenance was never started.
func (db *Database) StopMaintenance() {
	db.maint.Stop()
}

// MaintenanceSpec configures the buffer-pool flush scheduler; re-exported
// from the engine package so callers need not import it directly.
type MaintenanceSpec = engine.MaintenanceSpec

// Close stops the maintenance scheduler, flushes every dirty page, and
// closes the backing file.
func (db *Database) Close() error {
	db.maint.Stop()
	if err := db.pool.FlushAll(); err != nil {
		return fmt.Errorf("pagequery: flush on close: %w", err)
	}
	return db.mgr.Close()
}
