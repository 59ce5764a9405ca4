package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pagequery/pagequery/internal/storage/pager"
)

// MaintenanceSpec configures the periodic buffer-pool flush scheduler
// (§9.5). It is disabled by default: CronExpr empty means Start is a
// no-op.
type MaintenanceSpec struct {
	// CronExpr is a six-field cron expression whose first field is
	// seconds (the parser is built with cron.WithSeconds), or a
	// descriptor such as "@every 30s". Empty disables the scheduler.
	CronExpr string
	// Timezone names a location for evaluating CronExpr; empty means UTC.
	Timezone string
}

// Maintenance periodically flushes every dirty page in the buffer pool
// to disk on a cron schedule, repointing the teacher's job scheduler
// (internal/storage/scheduler.go's Scheduler, which ran arbitrary
// scheduled SQL) from "run scheduled SQL jobs" to "keep the buffer pool
// durable between checkpoints" (§4.2, §9.5).
type Maintenance struct {
	pool *pager.BufferPool
	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewMaintenance returns a Maintenance scheduler over pool. Start must
// be called to begin ticking.
func NewMaintenance(pool *pager.BufferPool) *Maintenance {
	return &Maintenance{pool: pool}
}

// Start registers the flush job and begins the cron loop. A zero-value
// spec.CronExpr leaves the scheduler stopped.
func (m *Maintenance) Start(spec MaintenanceSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec.CronExpr == "" {
		return nil
	}
	if m.running {
		return fmt.Errorf("maintenance scheduler already running")
	}

	loc := time.UTC
	if spec.Timezone != "" {
		l, err := time.LoadLocation(spec.Timezone)
		if err != nil {
			log.Printf("pagequery: invalid maintenance timezone %q, using UTC", spec.Timezone)
		} else {
			loc = l
		}
	}

	m.cron = cron.New(cron.WithLocation(loc), cron.WithSeconds())
	_, err := m.cron.AddFunc(spec.CronExpr, m.flush)
	if err != nil {
		return fmt.Errorf("invalid maintenance cron expression %q: %w", spec.CronExpr, err)
	}

	m.cron.Start()
	m.running = true
	log.Printf("pagequery: maintenance scheduler started (%s)", spec.CronExpr)
	return nil
}

// Stop halts the cron loop and waits for any in-flight flush to finish.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.running = false
	log.Println("pagequery: maintenance scheduler stopped")
}

// flush writes every dirty frame in the buffer pool to disk. Errors are
// logged rather than surfaced: a failed background flush should not
// bring down the process, and the next tick or an explicit FlushAll at
// Close will retry.
func (m *Maintenance) flush() {
	if err := m.pool.FlushAll(); err != nil {
		log.Printf("pagequery: maintenance flush failed: %v", err)
	}
}
