// Package h3map bridges JIS mesh cells to Uber H3 cells so callers indexed
// on one grid can interoperate with the other.
package h3map

import (
	"errors"
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/katsuo-dev/jpmesh-cache/internal/core/model"
	"github.com/katsuo-dev/jpmesh-cache/internal/mesh"
)

// ErrInvalidResolution rejects H3 resolutions outside 0..15.
var ErrInvalidResolution = errors.New("invalid H3 resolution")

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellsForMeshCode returns the H3 cells at the given resolution covering
// the mesh cell's extent, sorted and de-duplicated.
func (m *Mapper) CellsForMeshCode(code uint64, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	c, err := mesh.CodeFromUint(code)
	if err != nil {
		return nil, err
	}
	return cellsForBBox(c.Bounds(), res)
}

// CellsForBBox covers an arbitrary cell extent.
func (m *Mapper) CellsForBBox(bb model.BBox, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	return cellsForBBox(bb, res)
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("%w: %d (must be 0..15)", ErrInvalidResolution, res)
	}
	return nil
}

func cellsForBBox(bb model.BBox, res int) ([]string, error) {
	// rectangular loop in degrees, SW first
	outer := h3.GeoLoop{
		{Lat: bb.South, Lng: bb.West},
		{Lat: bb.South, Lng: bb.East()},
		{Lat: bb.North(), Lng: bb.East()},
		{Lat: bb.North(), Lng: bb.West},
	}
	poly := h3.GeoPolygon{GeoLoop: outer}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
