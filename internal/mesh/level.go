// Package mesh implements JIS X 0410 area-mesh arithmetic: converting
// WGS84 coordinates to hierarchical grid-square codes and back.
//
// The grid defines fourteen levels. The standard levels Lv1..Lv6 run from
// an 80km base square down to 125m, and the extended (integrated) levels
// X40..X2 sit between them with irregular subdivision factors. Every level
// except Lv1 subdivides a parent cell; the subdivision table below is the
// single source of truth for cell sizes on both the encode and decode
// paths.
package mesh

import "fmt"

// Level identifies one of the fourteen grid resolutions. Its integer value
// is the public designator: 1..6 for the standard levels, and the
// approximate side length in meters for the extended levels (40000 = 40km).
type Level int

const (
	Lv1  Level = 1     // 80km square, 4 digits
	X40  Level = 40000 // 40km square
	X20  Level = 20000 // 20km square
	X16  Level = 16000 // 16km square
	Lv2  Level = 2     // 10km square, 6 digits
	X8   Level = 8000  // 8km square
	X5   Level = 5000  // 5km square
	X4   Level = 4000  // 4km square
	X2_5 Level = 2500  // 2.5km square
	X2   Level = 2000  // 2km square
	Lv3  Level = 3     // 1km square, 8 digits
	Lv4  Level = 4     // 500m square
	Lv5  Level = 5     // 250m square
	Lv6  Level = 6     // 125m square
)

// One Lv1 cell spans 2/3 degree of latitude and 1 degree of longitude,
// offset from the 100E meridian.
const (
	baseUnitLat = 2.0 / 3.0
	baseUnitLon = 1.0
	lonOrigin   = 100.0
)

// Levels returns all fourteen levels ordered coarse to fine. The order is
// also the canonical decode priority: standard levels come before extended
// levels that share a code length.
func Levels() []Level {
	return []Level{Lv1, X40, X20, X16, Lv2, X8, X5, X4, X2_5, X2, Lv3, Lv4, Lv5, Lv6}
}

// LevelFromDesignator resolves a public designator to its Level.
func LevelFromDesignator(n int) (Level, error) {
	l := Level(n)
	if !l.valid() {
		return 0, fmt.Errorf("%w: designator %d", ErrUnknownLevel, n)
	}
	return l, nil
}

func (l Level) valid() bool {
	switch l {
	case Lv1, X40, X20, X16, Lv2, X8, X5, X4, X2_5, X2, Lv3, Lv4, Lv5, Lv6:
		return true
	}
	return false
}

// Designator returns the public numeric designator.
func (l Level) Designator() int { return int(l) }

// subdivision returns the parent level and the factor by which this level
// splits the parent cell along latitude and longitude. Lv1 has no parent.
func (l Level) subdivision() (parent Level, latDiv, lonDiv float64) {
	switch l {
	case X40:
		return Lv1, 2, 2
	case X20:
		return X40, 2, 2
	case X16:
		return Lv1, 5, 5
	case Lv2:
		return Lv1, 8, 8
	case X8:
		return Lv1, 10, 10
	case X5:
		return Lv2, 2, 2
	case X4:
		return X8, 2, 2
	case X2_5:
		return X5, 2, 2
	case X2:
		return Lv2, 5, 5
	case Lv3:
		return Lv2, 10, 10
	case Lv4:
		return Lv3, 2, 2
	case Lv5:
		return Lv4, 2, 2
	case Lv6:
		return Lv5, 2, 2
	default:
		return 0, 1, 1
	}
}

// UnitLat returns the latitude extent of one cell at this level, in degrees.
func (l Level) UnitLat() float64 {
	if l == Lv1 {
		return baseUnitLat
	}
	p, d, _ := l.subdivision()
	return p.UnitLat() / d
}

// UnitLon returns the longitude extent of one cell at this level, in degrees.
func (l Level) UnitLon() float64 {
	if l == Lv1 {
		return baseUnitLon
	}
	p, _, d := l.subdivision()
	return p.UnitLon() / d
}

// digitCount is the total number of decimal digits in a code at this level.
func (l Level) digitCount() uint {
	switch l {
	case Lv1:
		return 4
	case X40:
		return 5
	case Lv2:
		return 6
	case X20, X16, X8, X5:
		return 7
	case Lv3:
		return 8
	case X4, X2_5, X2, Lv4:
		return 9
	case Lv5:
		return 10
	case Lv6:
		return 11
	default:
		return 0
	}
}

func (l Level) String() string {
	switch l {
	case Lv1:
		return "Lv1"
	case X40:
		return "X40"
	case X20:
		return "X20"
	case X16:
		return "X16"
	case Lv2:
		return "Lv2"
	case X8:
		return "X8"
	case X5:
		return "X5"
	case X4:
		return "X4"
	case X2_5:
		return "X2.5"
	case X2:
		return "X2"
	case Lv3:
		return "Lv3"
	case Lv4:
		return "Lv4"
	case Lv5:
		return "Lv5"
	case Lv6:
		return "Lv6"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// SizeLabel returns the approximate side length of a cell, e.g. "80km".
func (l Level) SizeLabel() string {
	switch l {
	case Lv1:
		return "80km"
	case X40:
		return "40km"
	case X20:
		return "20km"
	case X16:
		return "16km"
	case Lv2:
		return "10km"
	case X8:
		return "8km"
	case X5:
		return "5km"
	case X4:
		return "4km"
	case X2_5:
		return "2.5km"
	case X2:
		return "2km"
	case Lv3:
		return "1km"
	case Lv4:
		return "500m"
	case Lv5:
		return "250m"
	case Lv6:
		return "125m"
	default:
		return "unknown"
	}
}
