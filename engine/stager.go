package engine

import "time"

// HandleWrite implements the Sync Stager (§4.3) for any operation that
// will mutate p on the upper tier. It returns holding the freeze reader
// lock via the returned *Guard, which the caller releases after performing
// the actual syscall on the upper tier.
func (e *Engine) HandleWrite(p string) *Guard {
	guard := e.freeze.Wait(p)

	if e.TwoWay {
		now := time.Now()
		e.queue.Lock()
		e.resolve(p, now)
		e.queue.Unlock()
	}

	upperInfo, uerr := lstat(e.Upper, p)
	if uerr == nil {
		if isRegularOrSymlink(upperInfo) {
			e.queue.Lock()
			e.queue.ScheduleCommit(p, time.Now())
			e.queue.Unlock()
		}
		return guard
	}

	parent := parentOf(p)
	if !exists(e.Lower, parent) {
		return guard
	}

	// Stage: promote to writer, freeze parent (and p, if present on
	// lower), drop writer, copy, re-promote, unfreeze, re-acquire reader
	// discipline.
	lowerHasP := exists(e.Lower, p)

	writer := guard.Promote()
	writer.Insert(parent)
	if lowerHasP {
		writer.Insert(p)
	}
	writer.Release()

	_ = ensureDir(e.Upper, parent)
	if lowerHasP {
		_ = copyTree(e.Lower, p, e.Upper, parent)
	}

	writer = e.freeze.AcquireWriter()
	writer.Erase(parent)
	if lowerHasP {
		writer.Erase(p)
	}
	writer.Release()

	guard = e.freeze.Wait(p)

	e.queue.Lock()
	e.queue.ScheduleCommit(p, time.Now())
	e.queue.Unlock()

	return guard
}
