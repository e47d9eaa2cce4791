package engine

import (
	"context"
	"time"
)

// lucWorker implements §4.5: in two-way mode, it drains due promotions
// from the lower tier up to the upper tier, freezing paths during each
// copy. Present-but-idle in one-way mode (never launched by Start).
func (e *Engine) lucWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(PollInterval):
		}
		e.runLUCSweep()
	}
}

func (e *Engine) runLUCSweep() {
	guard := e.freeze.AcquireReader()
	e.queue.Lock()

	for {
		entry, ok := e.queue.LUCFront()
		if !ok || entry.ReadyAt.After(time.Now()) || e.freeze.Contains(entry.Path) {
			break
		}

		parent := parentOf(entry.Path)

		writer := guard.Promote()
		writer.Insert(parent, entry.Path)
		e.queue.PopLUCFront()
		e.queue.Unlock()
		writer.Release()

		_ = ensureDir(e.Upper, parent)
		_ = copyTree(e.Lower, entry.Path, e.Upper, parent)

		guard = e.freeze.AcquireReader()
		writer = guard.Promote()
		e.queue.Lock()
		writer.Erase(entry.Path, parent)
		writer.Release()
		e.queue.Unlock()

		guard = e.freeze.AcquireReader()
		e.queue.Lock()
	}

	e.queue.Unlock()
	guard.Release()
}
