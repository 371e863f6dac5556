package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/katsuo-dev/jpmesh-cache/internal/core/model"
)

func approxEq(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestToMeshLevel_KnownCodes(t *testing.T) {
	cases := []struct {
		code uint64
		want Level
	}{
		{5339, Lv1}, {53392, X40}, {5339235, X20}, {5339467, X16},
		{533935, Lv2}, {5339476, X8}, {5339354, X5}, {533947637, X4},
		{533935446, X2_5}, {533935885, X2}, {53393599, Lv3},
		{533935992, Lv4}, {5339359921, Lv5}, {53393599212, Lv6},
		{5235, Lv1}, {52352, X40}, {5235245, X20}, {5235467, X16},
		{523536, Lv2}, {5235476, X8}, {5235363, X5}, {523547647, X4},
		{523536336, X2_5}, {523536805, X2}, {52353680, Lv3},
		{523536804, Lv4}, {5235368041, Lv5}, {52353680412, Lv6},
	}
	for _, c := range cases {
		got, err := ToMeshLevel([]uint64{c.code})
		if err != nil {
			t.Fatalf("ToMeshLevel(%d): %v", c.code, err)
		}
		if got[0] != c.want {
			t.Fatalf("ToMeshLevel(%d) = %s, want %s", c.code, got[0], c.want)
		}
	}
}

func TestToMeshLevel_Batch(t *testing.T) {
	got, err := ToMeshLevel([]uint64{53393599, 52353680})
	if err != nil {
		t.Fatalf("ToMeshLevel: %v", err)
	}
	if got[0] != Lv3 || got[1] != Lv3 {
		t.Fatalf("levels = %v, want [Lv3 Lv3]", got)
	}
}

func TestToMeshLevel_InvalidCodes(t *testing.T) {
	cases := []struct {
		name string
		code uint64
	}{
		{"zero", 0},
		{"too short", 5},
		{"three digits", 533},
		{"twelve digits", 533935992123},
		{"bad 7-digit discriminator", 5339338}, // g=8: no level
		{"bad 9-digit discriminator", 533935338},
		{"bad 9-digit discriminator zero", 533935330},
		{"Lv2 lat digit out of range", 533985},   // e=8 at Lv2
		{"X20 quadrant out of range", 5339555},   // e=5 under g=5
		{"X16 odd digit", 5339137},               // e=1 under g=7
		{"Lv5 final digit out of range", 5339359925},
		{"Lv6 final digit out of range", 53393599215},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ToMeshLevel([]uint64{c.code}); !errors.Is(err, ErrInvalidMeshCode) {
				t.Fatalf("ToMeshLevel(%d) err = %v, want ErrInvalidMeshCode", c.code, err)
			}
		})
	}
}

func TestCodeFromUint_RejectsThenAccepts(t *testing.T) {
	if _, err := CodeFromUint(12); !errors.Is(err, ErrInvalidMeshCode) {
		t.Fatalf("CodeFromUint(12) err = %v, want ErrInvalidMeshCode", err)
	}
	c, err := CodeFromUint(53393599)
	if err != nil {
		t.Fatalf("CodeFromUint: %v", err)
	}
	if c.Level() != Lv3 || c.Uint64() != 53393599 {
		t.Fatalf("round trip broke: %v", c)
	}
}

func TestPoint_CornersAndCenter(t *testing.T) {
	c, err := CodeFromUint(53393599)
	if err != nil {
		t.Fatalf("CodeFromUint: %v", err)
	}
	cases := []struct {
		name             string
		latMul, lonMul   float64
		wantLat, wantLon float64
	}{
		{"south-west corner", 0, 0, 35.65833333333333, 139.7375},
		{"north-east corner", 1, 1, 35.666666666666664, 139.75},
		{"center", 0.5, 0.5, 35.6625, 139.74375},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := c.Point(tc.latMul, tc.lonMul)
			if !approxEq(p.Lat, tc.wantLat, 1e-9) || !approxEq(p.Lon, tc.wantLon, 1e-9) {
				t.Fatalf("Point(%v,%v) = %v, want (%v, %v)",
					tc.latMul, tc.lonMul, p, tc.wantLat, tc.wantLon)
			}
		})
	}
}

func TestToMeshPoint_SouthWestCorners(t *testing.T) {
	// Every code here denotes a cell whose SW corner is the SW corner of
	// Lv1 cell 5339, across all fourteen levels.
	codes := []uint64{
		5339, 53391, 5339115, 5339007, 533900, 5339006, 5339001,
		533900617, 533900116, 533900005, 53390000, 533900001,
		5339000011, 53390000111,
	}
	wantLat := 35.0 + 1.0/3.0
	wantLon := 139.0
	for _, code := range codes {
		pts, err := ToMeshPoint([]uint64{code}, []float64{0}, []float64{0})
		if err != nil {
			t.Fatalf("ToMeshPoint(%d): %v", code, err)
		}
		if !approxEq(pts[0].Lat, wantLat, 1e-7) || !approxEq(pts[0].Lon, wantLon, 1e-7) {
			t.Fatalf("ToMeshPoint(%d) = %v, want (%v, %v)", code, pts[0], wantLat, wantLon)
		}
	}
}

func TestToMeshPoint_CenterOfLv6(t *testing.T) {
	pts, err := ToMeshPoint([]uint64{53393599212}, []float64{0.5}, []float64{0.5})
	if err != nil {
		t.Fatalf("ToMeshPoint: %v", err)
	}
	if !approxEq(pts[0].Lat, 35.6588542, 1e-7) || !approxEq(pts[0].Lon, 139.74609375, 1e-7) {
		t.Fatalf("center = %v, want (35.6588542, 139.74609375)", pts[0])
	}
}

func TestToMeshPoint_LengthMismatch(t *testing.T) {
	_, err := ToMeshPoint([]uint64{53393599, 52353680}, []float64{0}, []float64{0, 0})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestToMeshPoint_InvalidCode(t *testing.T) {
	_, err := ToMeshPoint([]uint64{5}, []float64{0}, []float64{0})
	if !errors.Is(err, ErrInvalidMeshCode) {
		t.Fatalf("err = %v, want ErrInvalidMeshCode", err)
	}
}

func TestPoint_ExtrapolatesOutsideUnitSquare(t *testing.T) {
	c, err := CodeFromUint(53393599)
	if err != nil {
		t.Fatalf("CodeFromUint: %v", err)
	}
	b := c.Bounds()
	p := c.Point(2, -1)
	if !approxEq(p.Lat, b.South+2*b.Height, 1e-12) {
		t.Fatalf("latMul=2 must extrapolate north: %v", p)
	}
	if !approxEq(p.Lon, b.West-b.Width, 1e-12) {
		t.Fatalf("lonMul=-1 must extrapolate west: %v", p)
	}
}

func TestBounds_ContainsEncodedCoordinate(t *testing.T) {
	pts := []model.Coordinate{
		{Lat: tokyoLat, Lon: tokyoLon},
		{Lat: kyotoLat, Lon: kyotoLon},
		{Lat: 43.06417, Lon: 141.34694},  // Sapporo
		{Lat: 26.2125, Lon: 127.680833},  // Naha
	}
	for _, p := range pts {
		for _, l := range Levels() {
			c, err := CodeFromLatLon(p.Lat, p.Lon, l)
			if err != nil {
				t.Fatalf("CodeFromLatLon(%v, %s): %v", p, l, err)
			}
			b := c.Bounds()
			if !b.Contains(p) {
				t.Fatalf("cell %d (%s) %v does not contain %v", c.Uint64(), l, b, p)
			}
			if !approxEq(b.Height, l.UnitLat(), 1e-15) || !approxEq(b.Width, l.UnitLon(), 1e-15) {
				t.Fatalf("cell %d extent %v does not match %s units", c.Uint64(), b, l)
			}
		}
	}
}
