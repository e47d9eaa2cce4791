package engine

import (
	"time"

	"github.com/spf13/afero"
)

// resolve implements the Path Resolver (§4.1). It must be called with the
// queue mutex held, since two-way mode may mutate the deferral queues as a
// side effect. It returns the chosen tier ("upper" or "lower"); the path to
// use on that tier is p itself.
func (e *Engine) resolve(p string, now time.Time) (tier string) {
	upperExists := exists(e.Upper, p)
	lowerExists := exists(e.Lower, p)

	if !e.TwoWay {
		if upperExists {
			return "upper"
		}
		if lowerExists {
			return "lower"
		}
		return "upper"
	}

	switch {
	case upperExists && !lowerExists:
		return "upper"
	case !upperExists && lowerExists:
		e.queue.ScheduleLUCIfAbsent(p, now)
		return "lower"
	case !upperExists && !lowerExists:
		return "upper"
	default:
		upperInfo, uerr := lstat(e.Upper, p)
		lowerInfo, lerr := lstat(e.Lower, p)
		var upperMtime, lowerMtime int64
		if uerr == nil {
			upperMtime = clampMtime(upperInfo)
		}
		if lerr == nil {
			lowerMtime = clampMtime(lowerInfo)
		}
		if upperMtime >= lowerMtime {
			return "upper"
		}
		_ = e.Upper.Remove(p)
		e.queue.PurgeCommit(p)
		e.queue.ScheduleLUCIfAbsent(p, now)
		return "lower"
	}
}

// HandleRead implements the read path for getattr/access/readlink/read/
// open(read-only): it runs the resolver under the freeze reader lock and
// returns the chosen tier's afero.Fs along with a *Guard the caller must
// Release after performing the actual syscall.
func (e *Engine) HandleRead(p string) (fsys afero.Fs, tier string, guard *Guard) {
	guard = e.freeze.Wait(p)
	now := time.Now()
	e.queue.Lock()
	tier = e.resolve(p, now)
	e.queue.Unlock()
	if tier == "upper" {
		return e.Upper, tier, guard
	}
	return e.Lower, tier, guard
}

// TierPath returns the afero.Fs of the named tier ("upper" selects Upper;
// any other name selects Lower).
func (e *Engine) TierPath(tier string) afero.Fs {
	if tier == "upper" {
		return e.Upper
	}
	return e.Lower
}
