package mesh

import (
	"errors"
	"strings"
	"testing"
)

// Reference points used throughout: Tokyo Tower and Kyoto Station.
const (
	tokyoLat = 35.658581
	tokyoLon = 139.745433
	kyotoLat = 34.987574
	kyotoLon = 135.759363
)

func mustCode(t *testing.T, lat, lon float64, level Level) uint64 {
	t.Helper()
	codes, err := ToMeshCode([]float64{lat}, []float64{lon}, level)
	if err != nil {
		t.Fatalf("ToMeshCode(%v, %v, %s): %v", lat, lon, level, err)
	}
	return codes[0]
}

func TestToMeshCode_Tokyo_AllLevels(t *testing.T) {
	cases := []struct {
		level Level
		want  uint64
	}{
		{Lv1, 5339},
		{X40, 53392},
		{X20, 5339235},
		{X16, 5339467},
		{Lv2, 533935},
		{X8, 5339476},
		{X5, 5339354},
		{X4, 533947637},
		{X2_5, 533935446},
		{X2, 533935885},
		{Lv3, 53393599},
		{Lv4, 533935992},
		{Lv5, 5339359921},
		{Lv6, 53393599212},
	}
	for _, c := range cases {
		t.Run(c.level.String(), func(t *testing.T) {
			if got := mustCode(t, tokyoLat, tokyoLon, c.level); got != c.want {
				t.Fatalf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestToMeshCode_Kyoto_AllLevels(t *testing.T) {
	cases := []struct {
		level Level
		want  uint64
	}{
		{Lv1, 5235},
		{X40, 52352},
		{X20, 5235245},
		{X16, 5235467},
		{Lv2, 523536},
		{X8, 5235476},
		{X5, 5235363},
		{X4, 523547647},
		{X2_5, 523536336},
		{X2, 523536805},
		{Lv3, 52353680},
		{Lv4, 523536804},
		{Lv5, 5235368041},
		{Lv6, 52353680412},
	}
	for _, c := range cases {
		t.Run(c.level.String(), func(t *testing.T) {
			if got := mustCode(t, kyotoLat, kyotoLon, c.level); got != c.want {
				t.Fatalf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestToMeshCode_Batch(t *testing.T) {
	codes, err := ToMeshCode(
		[]float64{tokyoLat, kyotoLat},
		[]float64{tokyoLon, kyotoLon},
		Lv3,
	)
	if err != nil {
		t.Fatalf("ToMeshCode batch: %v", err)
	}
	if len(codes) != 2 || codes[0] != 53393599 || codes[1] != 52353680 {
		t.Fatalf("batch = %v, want [53393599 52353680]", codes)
	}
}

func TestToMeshCode_OutOfDomain(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"lat below min", -0.1, 139.745433},
		{"lat at max", 66.66, 139.745433},
		{"lon below baseline", 35.658581, 99.99},
		{"lon at antimeridian", 35.658581, 180.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ToMeshCode([]float64{c.lat}, []float64{c.lon}, Lv1)
			if !errors.Is(err, ErrOutOfDomain) {
				t.Fatalf("err = %v, want ErrOutOfDomain", err)
			}
		})
	}
}

func TestToMeshCode_LengthMismatch(t *testing.T) {
	_, err := ToMeshCode([]float64{tokyoLat, kyotoLat}, []float64{tokyoLon}, Lv3)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestToMeshCode_UnknownLevel(t *testing.T) {
	_, err := ToMeshCode([]float64{tokyoLat}, []float64{tokyoLon}, Level(7))
	if !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("err = %v, want ErrUnknownLevel", err)
	}
}

func TestToMeshCode_FailsAtFirstInvalidElement(t *testing.T) {
	_, err := ToMeshCode(
		[]float64{tokyoLat, -5.0, kyotoLat},
		[]float64{tokyoLon, 139.0, kyotoLon},
		Lv2,
	)
	if !errors.Is(err, ErrOutOfDomain) {
		t.Fatalf("err = %v, want ErrOutOfDomain", err)
	}
	// the failing index is part of the message contract
	if got := err.Error(); !strings.Contains(got, "element 1") {
		t.Fatalf("error %q does not name the failing element", got)
	}
}

func TestToMeshCodeWithin_CustomBounds(t *testing.T) {
	b := Bounds{MinLat: 0, MaxLat: 40, MinLon: 100, MaxLon: 145}
	if _, err := ToMeshCodeWithin(b, []float64{tokyoLat}, []float64{tokyoLon}, Lv1); err != nil {
		t.Fatalf("within custom bounds: %v", err)
	}
	if _, err := ToMeshCodeWithin(b, []float64{45.0}, []float64{141.35}, Lv1); !errors.Is(err, ErrOutOfDomain) {
		t.Fatalf("expected ErrOutOfDomain above custom MaxLat")
	}
}

func TestCodeFromLatLon_SelfConsistent(t *testing.T) {
	for _, l := range Levels() {
		c, err := CodeFromLatLon(tokyoLat, tokyoLon, l)
		if err != nil {
			t.Fatalf("CodeFromLatLon(%s): %v", l, err)
		}
		rt, err := CodeFromUint(c.Uint64())
		if err != nil {
			t.Fatalf("CodeFromUint(%d): %v", c.Uint64(), err)
		}
		if rt.Level() != l {
			t.Fatalf("code %d decoded to %s, want %s", c.Uint64(), rt.Level(), l)
		}
	}
}
