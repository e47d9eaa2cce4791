// Package engine implements the concurrency and data-movement core of the
// tiered overlay filesystem: the path resolver, freeze registry, deferral
// queues, sync stager, and the commit/LUC background workers. It is
// independent of any particular userspace-filesystem adapter; fusefs
// wires an Engine to github.com/hanwen/go-fuse/v2/fuse/pathfs.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
)

// PollInterval is the sleep between worker sweeps. It is a var, not a
// const, so tests can shrink it; production code never assigns to it.
var PollInterval = 5 * time.Second

// Engine bundles the process-wide state of the overlay: the two backing
// tiers, the two-way flag, the freeze registry, the deferral queues, the
// shutdown flag, and a logger. A single Engine is constructed at startup
// and shared by every in-band operation callback and both background
// workers; there are no package-level globals.
type Engine struct {
	UpperRoot string
	LowerRoot string
	TwoWay    bool

	Upper afero.Fs
	Lower afero.Fs

	freeze *FreezeRegistry
	queue  *DeferralQueue

	flushTime atomic.Bool

	// activeCommits serializes copy_tree in rename against the commit
	// worker (the spec's active_commits_lock).
	activeCommits sync.Mutex

	log *slog.Logger
}

// New constructs an Engine rooted at upperRoot/lowerRoot. Both directories
// must already exist; callers typically resolve them to absolute paths
// before calling New, per the spec's startup contract.
func New(upperRoot, lowerRoot string, twoWay bool, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		UpperRoot: upperRoot,
		LowerRoot: lowerRoot,
		TwoWay:    twoWay,
		Upper:     afero.NewBasePathFs(afero.NewOsFs(), upperRoot),
		Lower:     afero.NewBasePathFs(afero.NewOsFs(), lowerRoot),
		freeze:    NewFreezeRegistry(log),
		queue:     NewDeferralQueue(),
		log:       log,
	}
	return e
}

// Start launches the commit worker and, in two-way mode, the LUC worker.
// Both run until ctx is cancelled, honoring flushTime for a graceful drain
// on the commit side per §4.7.
func (e *Engine) Start(ctx context.Context) {
	go e.commitWorker(ctx)
	if e.TwoWay {
		go e.lucWorker(ctx)
	}
}

// Shutdown sets the flush flag and blocks until the commit queue drains,
// per §4.7. It does not drain the LUC queue (see DESIGN.md "LUC queue
// draining on shutdown" — an intentional compatibility choice carried from
// the original).
func (e *Engine) Shutdown(ctx context.Context) {
	e.flushTime.Store(true)
	for {
		e.queue.Lock()
		empty := e.queue.CommitEmpty()
		e.queue.Unlock()
		if empty {
			// The commit worker pops an entry before copying it and holds
			// the freeze reader lock until the copy is done; taking the
			// writer lock waits for that last copy to land.
			e.freeze.AcquireWriter().Release()
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(PollInterval):
		}
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.log == nil {
		return slog.Default()
	}
	return e.log
}
