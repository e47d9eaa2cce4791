package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// FreezePoll is the retry interval for an in-band operation waiting on a
// frozen path. It is a var, not a const, so tests can shrink it;
// production code never assigns to it.
var FreezePoll = 100 * time.Millisecond

// FreezeRegistry is the set of logical paths currently undergoing
// synchronous staging. Every in-band operation consults it before touching
// the backing tiers; the two background workers insert into it for the
// duration of a copy.
//
// The wait-until-unfrozen-then-keep-lock protocol is implemented by Wait:
// it spins while the predicate holds, then returns with the reader lock
// still acquired, bundled into a *Guard so the hold cannot be forgotten.
type FreezeRegistry struct {
	mu  sync.RWMutex
	set map[string]struct{}
	log *slog.Logger
}

// NewFreezeRegistry returns an empty registry that logs retries through
// log. A nil log defaults to slog.Default().
func NewFreezeRegistry(log *slog.Logger) *FreezeRegistry {
	if log == nil {
		log = slog.Default()
	}
	return &FreezeRegistry{set: make(map[string]struct{}), log: log}
}

// Guard represents a held reader lock on the registry, obtained via Wait.
// The holder must call Release exactly once.
type Guard struct {
	reg *FreezeRegistry
}

// Release drops the reader lock. Safe to call via defer immediately after
// a successful Wait.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.reg.mu.RUnlock()
}

// Promote drops the reader lock and acquires the writer lock, returning a
// *WriterGuard. Because true atomic upgrade is not available, the set may
// change between the two steps; the caller must re-validate any condition
// it depended on after Promote returns.
func (g *Guard) Promote() *WriterGuard {
	g.reg.mu.RUnlock()
	g.reg.mu.Lock()
	return &WriterGuard{reg: g.reg}
}

// WriterGuard represents a held writer (exclusive) lock on the registry.
type WriterGuard struct {
	reg *FreezeRegistry
}

// Release drops the writer lock.
func (w *WriterGuard) Release() {
	if w == nil {
		return
	}
	w.reg.mu.Unlock()
}

// Insert adds paths to the freeze set. The caller must already hold this
// *WriterGuard.
func (w *WriterGuard) Insert(paths ...string) {
	w.reg.Insert(paths...)
}

// Erase removes paths from the freeze set. The caller must already hold
// this *WriterGuard.
func (w *WriterGuard) Erase(paths ...string) {
	w.reg.Erase(paths...)
}

// Downgrade drops the writer lock and re-acquires as a reader, returning
// the resulting *Guard.
func (w *WriterGuard) Downgrade() *Guard {
	w.reg.mu.Unlock()
	w.reg.mu.RLock()
	return &Guard{reg: w.reg}
}

// Contains reports whether p is currently frozen. The caller must hold a
// *Guard or *WriterGuard for r.
func (r *FreezeRegistry) Contains(p string) bool {
	_, ok := r.set[p]
	return ok
}

// Insert adds paths to the freeze set. The caller must already hold a
// *WriterGuard.
func (r *FreezeRegistry) Insert(paths ...string) {
	for _, p := range paths {
		r.set[p] = struct{}{}
	}
}

// Erase removes paths from the freeze set. The caller must already hold a
// *WriterGuard.
func (r *FreezeRegistry) Erase(paths ...string) {
	for _, p := range paths {
		delete(r.set, p)
	}
}

// containsLocked reports whether any of paths is frozen, or (when dirPrefix
// is non-empty) whether any frozen entry has dirPrefix as a path prefix.
// Callers must hold at least the reader lock.
func (r *FreezeRegistry) containsLocked(paths []string, dirPrefix string) bool {
	for _, p := range paths {
		if _, ok := r.set[p]; ok {
			return true
		}
	}
	if dirPrefix != "" {
		for frozen := range r.set {
			if strings.HasPrefix(frozen, dirPrefix) {
				return true
			}
		}
	}
	return false
}

// Wait implements WUUTKL for a single path: it spins on FreezePoll while p
// is frozen, then returns holding the reader lock.
func (r *FreezeRegistry) Wait(p string) *Guard {
	return r.WaitAny([]string{p})
}

// WaitAny implements WUUTKL for a set of candidate paths: it spins while
// any of paths is frozen, then returns holding the reader lock.
func (r *FreezeRegistry) WaitAny(paths []string) *Guard {
	for {
		r.mu.RLock()
		if !r.containsLocked(paths, "") {
			return &Guard{reg: r}
		}
		r.mu.RUnlock()
		r.log.Debug("retrying frozen path", "freeze_poll_retry", paths)
		time.Sleep(FreezePoll)
	}
}

// WaitPrefix implements WUUTKL for rename's directory case: it spins while
// any frozen entry has dirPrefix as a prefix, then returns holding the
// reader lock.
func (r *FreezeRegistry) WaitPrefix(dirPrefix string) *Guard {
	for {
		r.mu.RLock()
		if !r.containsLocked(nil, dirPrefix) {
			return &Guard{reg: r}
		}
		r.mu.RUnlock()
		r.log.Debug("retrying frozen prefix", "freeze_poll_retry", dirPrefix)
		time.Sleep(FreezePoll)
	}
}

// AcquireReader takes the reader lock directly, with no predicate — used
// by the background workers at the top of each sweep before they inspect
// the queues and freeze set together.
func (r *FreezeRegistry) AcquireReader() *Guard {
	r.mu.RLock()
	return &Guard{reg: r}
}

// AcquireWriter takes the writer lock directly, without first checking any
// predicate. Used by the stager to erase its freeze entries once a staging
// copy has finished.
func (r *FreezeRegistry) AcquireWriter() *WriterGuard {
	r.mu.Lock()
	return &WriterGuard{reg: r}
}
