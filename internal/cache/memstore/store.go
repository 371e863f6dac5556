// Package memstore is an in-process cache backend for single-instance
// deployments, backed by an expiring LRU.
package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Store struct {
	lru *expirable.LRU[string, []byte]
}

// New creates a store holding up to size entries. Entries expire after ttl
// regardless of the per-call TTL: the LRU applies one cache-wide lifetime,
// so ttl here should match the service's default cache TTL.
func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 65536
	}
	return &Store{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *Store) MGet(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.lru.Get(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.lru.Add(key, val)
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}

// DelPrefix removes every key under the given prefix.
func (s *Store) DelPrefix(_ context.Context, prefix string) (int, error) {
	deleted := 0
	for _, k := range s.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.lru.Remove(k)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) Len() int { return s.lru.Len() }
