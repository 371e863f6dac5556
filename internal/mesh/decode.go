package mesh

import (
	"fmt"

	"github.com/katsuo-dev/jpmesh-cache/internal/core/model"
)

// Code is a validated mesh code: the packed integer together with the level
// it decodes to. Values are only constructed through CodeFromLatLon and
// CodeFromUint, so holding a Code means the integer and level agree.
type Code struct {
	value uint64
	level Level
}

// CodeFromUint validates an integer and resolves its level.
func CodeFromUint(v uint64) (Code, error) {
	l, err := levelOf(v)
	if err != nil {
		return Code{}, err
	}
	return Code{value: v, level: l}, nil
}

func (c Code) Uint64() uint64 { return c.value }
func (c Code) Level() Level   { return c.level }

func (c Code) String() string {
	return fmt.Sprintf("%d(%s)", c.value, c.level)
}

// Bounds reconstructs the cell extent by replaying the subdivision chain.
func (c Code) Bounds() model.BBox {
	south, west := southWest(c.value, c.level)
	return model.BBox{
		South:  south,
		West:   west,
		Height: c.level.UnitLat(),
		Width:  c.level.UnitLon(),
	}
}

// Point interpolates a coordinate inside the cell. latMul and lonMul are
// fractions of the cell extent measured from the south-west corner: (0,0)
// is the SW corner, (1,1) the NE corner, (0.5,0.5) the center. Values
// outside [0,1] extrapolate; they are deliberately not clamped.
func (c Code) Point(latMul, lonMul float64) model.Coordinate {
	b := c.Bounds()
	return model.Coordinate{
		Lat: b.South + latMul*b.Height,
		Lon: b.West + lonMul*b.Width,
	}
}

// ToMeshLevel resolves the level of each code. Fails at the first code that
// does not decode to any level.
func ToMeshLevel(codes []uint64) ([]Level, error) {
	out := make([]Level, len(codes))
	for i, v := range codes {
		l, err := levelOf(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = l
	}
	return out, nil
}

// ToMeshPoint interpolates a coordinate inside each code's cell. All three
// slices must have equal length; the batch fails atomically at the first
// invalid code.
func ToMeshPoint(codes []uint64, latMul, lonMul []float64) ([]model.Coordinate, error) {
	if len(codes) != len(latMul) || len(codes) != len(lonMul) {
		return nil, fmt.Errorf("%w: %d codes vs %d lat and %d lon multipliers",
			ErrLengthMismatch, len(codes), len(latMul), len(lonMul))
	}
	out := make([]model.Coordinate, len(codes))
	for i, v := range codes {
		c, err := CodeFromUint(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = c.Point(latMul[i], lonMul[i])
	}
	return out, nil
}

// levelOf determines the level of a packed code from its digit structure
// alone. Digit count narrows the candidates; where standard and extended
// levels share a count, a discriminator digit settles it (standard levels
// take the 1..4 quadrant range, extended levels use the sentinel digits
// 5..7). This priority order is the canonical disambiguation rule. The
// chosen candidate's remaining digit groups must also fall inside the
// ranges the subdivision table allows, otherwise the code is rejected.
func levelOf(code uint64) (Level, error) {
	if code == 0 {
		return 0, fmt.Errorf("%w: 0", ErrInvalidMeshCode)
	}
	var level Level
	switch numDigits(code) {
	case 4:
		level = Lv1
	case 5:
		level = X40
	case 6:
		level = Lv2
	case 7:
		switch g := digitSlice(code, 6, 7); {
		case g >= 1 && g <= 4:
			level = X5
		case g == 5:
			level = X20
		case g == 6:
			level = X8
		case g == 7:
			level = X16
		default:
			return 0, fmt.Errorf("%w: %d (digit 7)", ErrInvalidMeshCode, code)
		}
	case 8:
		level = Lv3
	case 9:
		switch i := digitSlice(code, 8, 9); {
		case i >= 1 && i <= 4:
			level = Lv4
		case i == 5:
			level = X2
		case i == 6:
			level = X2_5
		case i == 7:
			level = X4
		default:
			return 0, fmt.Errorf("%w: %d (digit 9)", ErrInvalidMeshCode, code)
		}
	case 10:
		level = Lv5
	case 11:
		level = Lv6
	default:
		return 0, fmt.Errorf("%w: %d has no level with %d digits", ErrInvalidMeshCode, code, numDigits(code))
	}
	if err := validateDigits(code, level); err != nil {
		return 0, err
	}
	return level, nil
}

// validateDigits checks every digit group of the code against the range
// implied by the level's subdivision factors.
func validateDigits(code uint64, level Level) error {
	e := digitSlice(code, 4, 5)
	f := digitSlice(code, 5, 6)
	g := digitSlice(code, 6, 7)
	h := digitSlice(code, 7, 8)
	i := digitSlice(code, 8, 9)
	j := digitSlice(code, 9, 10)
	k := digitSlice(code, 10, 11)

	oct := func(d uint64) bool { return d <= 7 }
	even := func(d uint64) bool { return d%2 == 0 }
	quad := func(d uint64) bool { return d >= 1 && d <= 4 }
	bad := func() error {
		return fmt.Errorf("%w: %d has digits outside the %s ranges", ErrInvalidMeshCode, code, level)
	}

	ok := true
	switch level {
	case Lv1:
	case X40:
		ok = quad(e)
	case X20:
		ok = quad(e) && quad(f)
	case X16:
		ok = even(e) && even(f)
	case Lv2:
		ok = oct(e) && oct(f)
	case X8:
		// e and f cover the full 0..9 range
	case X5:
		ok = oct(e) && oct(f) && quad(g)
	case X4:
		ok = g == 6 && quad(h)
	case X2_5:
		ok = oct(e) && oct(f) && quad(g) && quad(h)
	case X2:
		ok = oct(e) && oct(f) && even(g) && even(h)
	case Lv3:
		ok = oct(e) && oct(f)
	case Lv4:
		ok = oct(e) && oct(f) && quad(i)
	case Lv5:
		ok = oct(e) && oct(f) && quad(i) && quad(j)
	case Lv6:
		ok = oct(e) && oct(f) && quad(i) && quad(j) && quad(k)
	}
	if !ok {
		return bad()
	}
	return nil
}

// addQuad moves the running south-west corner by one half cell when the
// quadrant digit says north and/or east (1=SW, 2=SE, 3=NW, 4=NE).
func addQuad(lat, lon *float64, d uint64, level Level) {
	if d/3 == 1 {
		*lat += level.UnitLat()
	}
	if d%2 == 0 {
		*lon += level.UnitLon()
	}
}

// southWest accumulates the cell's south-west corner by replaying the
// subdivision chain with the code's digit groups, the inverse of the
// encoder's place-value packing.
func southWest(code uint64, level Level) (lat, lon float64) {
	ab := digitSlice(code, 0, 2)
	cd := digitSlice(code, 2, 4)
	e := digitSlice(code, 4, 5)
	f := digitSlice(code, 5, 6)
	g := digitSlice(code, 6, 7)
	h := digitSlice(code, 7, 8)
	i := digitSlice(code, 8, 9)
	j := digitSlice(code, 9, 10)
	k := digitSlice(code, 10, 11)

	lat = float64(ab) * Lv1.UnitLat()
	lon = float64(cd)*Lv1.UnitLon() + lonOrigin

	addLv2 := func() {
		lat += float64(e) * Lv2.UnitLat()
		lon += float64(f) * Lv2.UnitLon()
	}
	addLv3 := func() {
		addLv2()
		lat += float64(g) * Lv3.UnitLat()
		lon += float64(h) * Lv3.UnitLon()
	}
	addX8 := func() {
		lat += float64(e) * X8.UnitLat()
		lon += float64(f) * X8.UnitLon()
	}

	switch level {
	case Lv1:
	case X40:
		addQuad(&lat, &lon, e, X40)
	case X20:
		addQuad(&lat, &lon, e, X40)
		addQuad(&lat, &lon, f, X20)
	case X16:
		lat += float64(e/2) * X16.UnitLat()
		lon += float64(f/2) * X16.UnitLon()
	case Lv2:
		addLv2()
	case X8:
		addX8()
	case X5:
		addLv2()
		addQuad(&lat, &lon, g, X5)
	case X4:
		addX8()
		addQuad(&lat, &lon, h, X4)
	case X2_5:
		addLv2()
		addQuad(&lat, &lon, g, X5)
		addQuad(&lat, &lon, h, X2_5)
	case X2:
		addLv2()
		lat += float64(g/2) * X2.UnitLat()
		lon += float64(h/2) * X2.UnitLon()
	case Lv3:
		addLv3()
	case Lv4:
		addLv3()
		addQuad(&lat, &lon, i, Lv4)
	case Lv5:
		addLv3()
		addQuad(&lat, &lon, i, Lv4)
		addQuad(&lat, &lon, j, Lv5)
	case Lv6:
		addLv3()
		addQuad(&lat, &lon, i, Lv4)
		addQuad(&lat, &lon, j, Lv5)
		addQuad(&lat, &lon, k, Lv6)
	}
	return lat, lon
}
