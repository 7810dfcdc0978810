package scans

import (
	"sync/atomic"
	"time"
)

// IDGenerator hands out time-derived ids that are strictly increasing within the process,
// even when several records are created in the same millisecond.
type IDGenerator struct {
	last atomic.Int64
}

// NewIDGenerator starts after seed, normally the largest id already stored.
func NewIDGenerator(seed ScanID) *IDGenerator {
	g := &IDGenerator{}
	g.last.Store(int64(seed))
	return g
}

// Next returns max(now in ms, previous+1).
func (g *IDGenerator) Next(now time.Time) ScanID {
	ms := now.UnixMilli()
	for {
		prev := g.last.Load()
		next := ms
		if next <= prev {
			next = prev + 1
		}
		if g.last.CompareAndSwap(prev, next) {
			return ScanID(next)
		}
	}
}
