package mesh

import "errors"

var (
	// ErrOutOfDomain means a coordinate lies outside the region the grid
	// can represent (south of the equator or west of the 100E baseline,
	// or beyond the configured bounds).
	ErrOutOfDomain = errors.New("coordinate out of mesh domain")

	// ErrInvalidMeshCode means an integer does not decode to any level
	// under the canonical disambiguation rule.
	ErrInvalidMeshCode = errors.New("invalid mesh code")

	// ErrUnknownLevel means a designator is not one of the fourteen levels.
	ErrUnknownLevel = errors.New("unknown mesh level")

	// ErrLengthMismatch means batched input slices differ in length.
	ErrLengthMismatch = errors.New("input length mismatch")

	// ErrMismatchedLevels means two codes expected at the same level differ.
	ErrMismatchedLevels = errors.New("mismatched mesh levels")
)
