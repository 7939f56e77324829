package minter

import "sync/atomic"

// singleFlight admits at most one run per process at a time
type singleFlight struct {
	running atomic.Bool
}

// tryAcquire returns false when a run is already in progress
func (g *singleFlight) tryAcquire() bool {
	return g.running.CompareAndSwap(false, true)
}

func (g *singleFlight) release() {
	g.running.Store(false)
}

func (g *singleFlight) inFlight() bool {
	return g.running.Load()
}
