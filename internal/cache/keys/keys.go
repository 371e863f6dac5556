// Package keys builds deterministic cache keys for cover queries.
//
// Layout: cover:<anchor code>:<op>:<arg>:f=<xxhash64> — the anchor code
// comes first (with a trailing separator) so invalidation can purge every
// cover involving a cell by prefix without matching longer codes that
// merely share leading digits.
package keys

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Envelope keys a covering-codes query between two same-level corners.
func Envelope(sw, ne uint64) string {
	return build(sw, "env", fmt.Sprintf("%d", ne))
}

// Intersects keys a cover of one cell at a target level designator.
func Intersects(code uint64, designator int) string {
	return build(code, "int", fmt.Sprintf("%d", designator))
}

// CellPrefix is the shared prefix of every cover key anchored at code.
func CellPrefix(code uint64) string {
	return fmt.Sprintf("cover:%d:", code)
}

func build(anchor uint64, op, arg string) string {
	sum := xxhash.Sum64String(fmt.Sprintf("%d:%s:%s", anchor, op, arg))
	return fmt.Sprintf("%s%s:%s:f=%016x", CellPrefix(anchor), op, arg, sum)
}
