// Package model defines core domain types shared across the service.
package model

import "fmt"

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.8f,%.8f", c.Lat, c.Lon)
}

// BBox is the south-west anchored extent of one mesh cell, in degrees.
// It is always derived from a mesh code, never stored on its own.
type BBox struct {
	South  float64 `json:"south"`
	West   float64 `json:"west"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

func (b BBox) North() float64 { return b.South + b.Height }
func (b BBox) East() float64  { return b.West + b.Width }

// Contains reports whether the coordinate lies inside the half-open cell
// [south, south+height) x [west, west+width).
func (b BBox) Contains(c Coordinate) bool {
	return c.Lat >= b.South && c.Lat < b.North() &&
		c.Lon >= b.West && c.Lon < b.East()
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.South, b.West, b.Height, b.Width)
}

// EncodeRequest is a validated /encode query.
type EncodeRequest struct {
	Lats  []float64
	Lons  []float64
	Level int
}

// PointRequest is a validated /point query.
type PointRequest struct {
	Codes  []uint64
	LatMul []float64
	LonMul []float64
}

// CoverRequest is a validated /envelope or /intersects query.
type CoverRequest struct {
	SW    uint64
	NE    uint64
	Code  uint64
	Level int
}
