package engine

import (
	"context"
	"time"
)

// commitWorker implements §4.4: it drains due commits from the upper tier
// down to the lower tier, holding the active-commits mutex across each
// copy to serialize against rename.
func (e *Engine) commitWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(PollInterval):
		}
		e.runCommitSweep(ctx)
	}
}

func (e *Engine) runCommitSweep(ctx context.Context) {
	guard := e.freeze.AcquireReader()
	e.queue.Lock()

	for {
		entry, ok := e.queue.CommitFront()
		if !ok || entry.ReadyAt.After(time.Now()) {
			break
		}
		if e.freeze.Contains(entry.Path) {
			break
		}

		e.queue.PopCommitFront()

		skip := isHidden(entry.Path)
		if !skip {
			info, err := lstat(e.Upper, entry.Path)
			if err != nil || isSpecial(info) {
				skip = true
			}
		}

		e.queue.Unlock()

		if !skip {
			e.activeCommits.Lock()
			parent := parentOf(entry.Path)
			_ = ensureDir(e.Lower, parent)
			_ = copyTree(e.Upper, entry.Path, e.Lower, parent)
			e.activeCommits.Unlock()
		}

		if !e.flushTime.Load() {
			guard.Release()
			select {
			case <-ctx.Done():
				return
			case <-time.After(PollInterval):
			}
			guard = e.freeze.AcquireReader()
		}

		e.queue.Lock()
	}

	e.queue.Unlock()
	guard.Release()
}
