package mesh

import (
	"fmt"
	"math"
)

// Bounds restricts the coordinates the encoder accepts. The grid arithmetic
// itself is defined for any point north of the equator and east of 100E;
// how far north and east it remains meaningful is a policy choice, so the
// limits are configurable rather than baked in.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// DefaultBounds covers the grid's standard domain: latitudes below the
// top of the Lv1 row space and longitudes between the 100E baseline and
// the antimeridian.
var DefaultBounds = Bounds{MinLat: 0, MaxLat: 66.66, MinLon: 100, MaxLon: 180}

func (b Bounds) check(lat, lon float64) error {
	if !(lat >= b.MinLat && lat < b.MaxLat) {
		return fmt.Errorf("%w: latitude %v not in [%v, %v)", ErrOutOfDomain, lat, b.MinLat, b.MaxLat)
	}
	if !(lon >= b.MinLon && lon < b.MaxLon) {
		return fmt.Errorf("%w: longitude %v not in [%v, %v)", ErrOutOfDomain, lon, b.MinLon, b.MaxLon)
	}
	return nil
}

// ToMeshCode converts coordinate slices to mesh codes at the given level,
// element-wise, using DefaultBounds. A batch fails atomically at the first
// invalid element; partial results are never returned.
func ToMeshCode(lats, lons []float64, level Level) ([]uint64, error) {
	return ToMeshCodeWithin(DefaultBounds, lats, lons, level)
}

// ToMeshCodeWithin is ToMeshCode with caller-supplied domain bounds.
func ToMeshCodeWithin(b Bounds, lats, lons []float64, level Level) ([]uint64, error) {
	if !level.valid() {
		return nil, fmt.Errorf("%w: designator %d", ErrUnknownLevel, int(level))
	}
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("%w: %d latitudes vs %d longitudes", ErrLengthMismatch, len(lats), len(lons))
	}
	out := make([]uint64, len(lats))
	for i := range lats {
		if err := b.check(lats[i], lons[i]); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = encodeAt(lats[i], lons[i], level)
	}
	return out, nil
}

// CodeFromLatLon encodes a single coordinate at the given level.
func CodeFromLatLon(lat, lon float64, level Level) (Code, error) {
	if !level.valid() {
		return Code{}, fmt.Errorf("%w: designator %d", ErrUnknownLevel, int(level))
	}
	if err := DefaultBounds.check(lat, lon); err != nil {
		return Code{}, err
	}
	return Code{value: encodeAt(lat, lon, level), level: level}, nil
}

func encodeAt(lat, lon float64, level Level) uint64 {
	switch level {
	case Lv1:
		return codeLv1(lat, lon)
	case X40:
		return code40000(lat, lon)
	case X20:
		return code20000(lat, lon)
	case X16:
		return code16000(lat, lon)
	case Lv2:
		return codeLv2(lat, lon)
	case X8:
		return code8000(lat, lon)
	case X5:
		return code5000(lat, lon)
	case X4:
		return code4000(lat, lon)
	case X2_5:
		return code2500(lat, lon)
	case X2:
		return code2000(lat, lon)
	case Lv3:
		return codeLv3(lat, lon)
	case Lv4:
		return codeLv4(lat, lon)
	case Lv5:
		return codeLv5(lat, lon)
	default:
		return codeLv6(lat, lon)
	}
}

// remLat / remLon reduce a coordinate to its offset inside the enclosing
// cell of the given level by chaining floating-point remainders through the
// level's ancestry. Floor-based bucketing on these remainders is what keeps
// the irregular (non-dividing) extended levels consistent between encode
// and decode.
func remLat(lat float64, level Level) float64 {
	if level == Lv1 {
		return math.Mod(lat, Lv1.UnitLat())
	}
	p, _, _ := level.subdivision()
	return math.Mod(remLat(lat, p), level.UnitLat())
}

func remLon(lon float64, level Level) float64 {
	if level == Lv1 {
		return math.Mod(math.Mod(lon, lonOrigin), Lv1.UnitLon())
	}
	p, _, _ := level.subdivision()
	return math.Mod(remLon(lon, p), level.UnitLon())
}

// quadDigit packs the half-cell position into one base-4 digit 1..4:
// 1=SW, 2=SE, 3=NW, 4=NE.
func quadDigit(latRem, lonRem float64, level Level) uint64 {
	return uint64(latRem/level.UnitLat())*2 + uint64(lonRem/level.UnitLon()) + 1
}

func codeLv1(lat, lon float64) uint64 {
	ab := uint64(lat / Lv1.UnitLat())
	cd := uint64(math.Mod(lon, lonOrigin) / Lv1.UnitLon())
	return ab*100 + cd
}

func code40000(lat, lon float64) uint64 {
	e := quadDigit(remLat(lat, Lv1), remLon(lon, Lv1), X40)
	return codeLv1(lat, lon)*10 + e
}

func code20000(lat, lon float64) uint64 {
	f := quadDigit(remLat(lat, X40), remLon(lon, X40), X20)
	return code40000(lat, lon)*100 + f*10 + 5
}

func code16000(lat, lon float64) uint64 {
	e := uint64(remLat(lat, Lv1)/X16.UnitLat()) * 2
	f := uint64(remLon(lon, Lv1)/X16.UnitLon()) * 2
	return codeLv1(lat, lon)*1000 + e*100 + f*10 + 7
}

func codeLv2(lat, lon float64) uint64 {
	e := uint64(remLat(lat, Lv1) / Lv2.UnitLat())
	f := uint64(remLon(lon, Lv1) / Lv2.UnitLon())
	return codeLv1(lat, lon)*100 + e*10 + f
}

func code8000(lat, lon float64) uint64 {
	e := uint64(remLat(lat, Lv1) / X8.UnitLat())
	f := uint64(remLon(lon, Lv1) / X8.UnitLon())
	return codeLv1(lat, lon)*1000 + e*100 + f*10 + 6
}

func code5000(lat, lon float64) uint64 {
	g := quadDigit(remLat(lat, Lv2), remLon(lon, Lv2), X5)
	return codeLv2(lat, lon)*10 + g
}

func code4000(lat, lon float64) uint64 {
	h := quadDigit(remLat(lat, X8), remLon(lon, X8), X4)
	return code8000(lat, lon)*100 + h*10 + 7
}

func code2500(lat, lon float64) uint64 {
	h := quadDigit(remLat(lat, X5), remLon(lon, X5), X2_5)
	return code5000(lat, lon)*100 + h*10 + 6
}

func code2000(lat, lon float64) uint64 {
	g := uint64(remLat(lat, Lv2)/X2.UnitLat()) * 2
	h := uint64(remLon(lon, Lv2)/X2.UnitLon()) * 2
	return codeLv2(lat, lon)*1000 + g*100 + h*10 + 5
}

func codeLv3(lat, lon float64) uint64 {
	g := uint64(remLat(lat, Lv2) / Lv3.UnitLat())
	h := uint64(remLon(lon, Lv2) / Lv3.UnitLon())
	return codeLv2(lat, lon)*100 + g*10 + h
}

func codeLv4(lat, lon float64) uint64 {
	i := quadDigit(remLat(lat, Lv3), remLon(lon, Lv3), Lv4)
	return codeLv3(lat, lon)*10 + i
}

func codeLv5(lat, lon float64) uint64 {
	j := quadDigit(remLat(lat, Lv4), remLon(lon, Lv4), Lv5)
	return codeLv4(lat, lon)*10 + j
}

func codeLv6(lat, lon float64) uint64 {
	k := quadDigit(remLat(lat, Lv5), remLon(lon, Lv5), Lv6)
	return codeLv5(lat, lon)*10 + k
}
