package invalidation

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// seqDedupe drops events whose sequence number is not strictly newer than
// the last one seen for the same source.
type seqDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newSeqDedupe(size int) *seqDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &seqDedupe{lru: c}
}

func (d *seqDedupe) shouldApply(source string, seq uint64) bool {
	if source == "" || seq == 0 {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(source); ok && seq <= last {
		return false
	}
	d.lru.Add(source, seq)
	return true
}
