// Package query serves cover queries (envelope, intersects) with a
// cache-aside around the mesh arithmetic.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/katsuo-dev/jpmesh-cache/internal/cache"
	"github.com/katsuo-dev/jpmesh-cache/internal/cache/keys"
	"github.com/katsuo-dev/jpmesh-cache/internal/core/observability"
	"github.com/katsuo-dev/jpmesh-cache/internal/mesh"
)

// ErrCoverTooLarge means a cover query would enumerate more cells than the
// configured cap allows.
var ErrCoverTooLarge = errors.New("cover exceeds the configured cell limit")

type Engine struct {
	log       *slog.Logger
	store     cache.Interface
	ttl       time.Duration
	opTimeout time.Duration
	maxCells  int
}

func New(log *slog.Logger, store cache.Interface, ttl, opTimeout time.Duration, maxCells int) *Engine {
	if maxCells <= 0 {
		maxCells = 250000
	}
	if opTimeout <= 0 {
		opTimeout = 250 * time.Millisecond
	}
	return &Engine{log: log, store: store, ttl: ttl, opTimeout: opTimeout, maxCells: maxCells}
}

// Envelope returns the codes covering the rectangle between two same-level
// corner codes, from cache when possible.
func (e *Engine) Envelope(ctx context.Context, sw, ne uint64) ([]uint64, error) {
	key := keys.Envelope(sw, ne)
	if codes, ok := e.lookup(ctx, key); ok {
		return codes, nil
	}

	cs, err := mesh.CodeFromUint(sw)
	if err != nil {
		return nil, err
	}
	cn, err := mesh.CodeFromUint(ne)
	if err != nil {
		return nil, err
	}
	if n := estimateCells(cs.Bounds().South, cs.Bounds().West, cn.Bounds().North(), cn.Bounds().East(), cs.Level()); n > e.maxCells {
		return nil, fmt.Errorf("%w: ~%d cells, cap %d", ErrCoverTooLarge, n, e.maxCells)
	}

	codes, err := mesh.ToEnvelope(sw, ne)
	observability.ObserveMeshOp("envelope", err)
	if err != nil {
		return nil, err
	}
	e.fill(ctx, key, codes)
	return codes, nil
}

// Intersects returns the codes at the target level intersecting the given
// cell, from cache when possible.
func (e *Engine) Intersects(ctx context.Context, code uint64, to mesh.Level) ([]uint64, error) {
	key := keys.Intersects(code, to.Designator())
	if codes, ok := e.lookup(ctx, key); ok {
		return codes, nil
	}

	c, err := mesh.CodeFromUint(code)
	if err != nil {
		return nil, err
	}
	b := c.Bounds()
	if n := estimateCells(b.South, b.West, b.North(), b.East(), to); n > e.maxCells {
		return nil, fmt.Errorf("%w: ~%d cells, cap %d", ErrCoverTooLarge, n, e.maxCells)
	}

	codes, err := mesh.ToIntersects(code, to)
	observability.ObserveMeshOp("intersects", err)
	if err != nil {
		return nil, err
	}
	e.fill(ctx, key, codes)
	return codes, nil
}

func (e *Engine) lookup(ctx context.Context, key string) ([]uint64, bool) {
	cctx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()

	got, err := e.store.MGet(cctx, []string{key})
	if err != nil {
		// a broken cache degrades to a miss, never to a failed query
		e.log.Warn("cache lookup failed", "key", key, "err", err)
		observability.IncCacheMiss()
		return nil, false
	}
	raw, ok := got[key]
	if !ok {
		observability.IncCacheMiss()
		return nil, false
	}
	var codes []uint64
	if err := json.Unmarshal(raw, &codes); err != nil {
		e.log.Warn("cache entry corrupt", "key", key, "err", err)
		observability.IncCacheMiss()
		return nil, false
	}
	observability.IncCacheHit()
	return codes, true
}

func (e *Engine) fill(ctx context.Context, key string, codes []uint64) {
	raw, err := json.Marshal(codes)
	if err != nil {
		e.log.Warn("cache marshal failed", "key", key, "err", err)
		return
	}
	cctx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()
	if err := e.store.Set(cctx, key, raw, e.ttl); err != nil {
		e.log.Warn("cache fill failed", "key", key, "err", err)
	}
}

// estimateCells bounds the result size before any cell is enumerated.
func estimateCells(latS, lonW, latN, lonE float64, level mesh.Level) int {
	latCount := math.Ceil((latN - latS) / level.UnitLat())
	lonCount := math.Ceil((lonE - lonW) / level.UnitLon())
	if latCount < 1 {
		latCount = 1
	}
	if lonCount < 1 {
		lonCount = 1
	}
	return int(latCount * lonCount)
}
