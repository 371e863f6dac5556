package mesh

import (
	"fmt"
	"math"
)

// ToEnvelope returns the codes covering the rectangle spanned by a
// south-west and a north-east code of the same level.
func ToEnvelope(sw, ne uint64) ([]uint64, error) {
	cs, err := CodeFromUint(sw)
	if err != nil {
		return nil, err
	}
	cn, err := CodeFromUint(ne)
	if err != nil {
		return nil, err
	}
	if cs.level != cn.level {
		return nil, fmt.Errorf("%w: sw is %s, ne is %s", ErrMismatchedLevels, cs.level, cn.level)
	}

	// Seed from the SW cell center so floor bucketing cannot fall into the
	// neighbouring cell, and stop at the NE cell's far corner.
	swPt := cs.Point(0.5, 0.5)
	nePt := cn.Point(1, 1)
	return coverRect(swPt.Lat, swPt.Lon, nePt.Lat, nePt.Lon, cs.level)
}

// ToIntersects returns the codes at the target level whose cells intersect
// the given code's cell.
func ToIntersects(code uint64, to Level) ([]uint64, error) {
	c, err := CodeFromUint(code)
	if err != nil {
		return nil, err
	}
	if !to.valid() {
		return nil, fmt.Errorf("%w: designator %d", ErrUnknownLevel, int(to))
	}

	marginLat := 0.5
	if to.UnitLat() <= c.level.UnitLat() {
		marginLat = (to.UnitLat() / c.level.UnitLat()) / 2
	}
	marginLon := 0.5
	if to.UnitLon() <= c.level.UnitLon() {
		marginLon = (to.UnitLon() / c.level.UnitLon()) / 2
	}

	swPt := c.Point(marginLat, marginLon)
	nePt := c.Point(1, 1)
	return coverRect(swPt.Lat, swPt.Lon, nePt.Lat, nePt.Lon, to)
}

// coverRect walks the rectangle in cell-size steps and encodes each sample
// point at the target level.
func coverRect(latS, lonW, latN, lonE float64, level Level) ([]uint64, error) {
	ulat, ulon := level.UnitLat(), level.UnitLon()
	latCount := int(math.Ceil((latN - latS) / ulat))
	lonCount := int(math.Ceil((lonE - lonW) / ulon))

	lats := make([]float64, 0, latCount*lonCount)
	lons := make([]float64, 0, latCount*lonCount)
	for i := 0; i < latCount; i++ {
		lat := latS + float64(i)*ulat
		for j := 0; j < lonCount; j++ {
			lats = append(lats, lat)
			lons = append(lons, lonW+float64(j)*ulon)
		}
	}
	return ToMeshCode(lats, lons, level)
}
