package h3map

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/katsuo-dev/jpmesh-cache/internal/mesh"
)

func TestCellsForMeshCode_SortedUniqueDeterministic(t *testing.T) {
	m := New()

	cells, err := m.CellsForMeshCode(533935, 9)
	if err != nil {
		t.Fatalf("CellsForMeshCode: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expected non-empty cover for a 10km cell")
	}
	if !sort.StringsAreSorted(cells) {
		t.Fatalf("cells must be sorted")
	}
	if hasDups(cells) {
		t.Fatalf("cells must be de-duplicated")
	}

	again, err := m.CellsForMeshCode(533935, 9)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(cells, again) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestCellsForMeshCode_FinerMeshNeedsFewerCells(t *testing.T) {
	m := New()
	coarse, err := m.CellsForMeshCode(533935, 9) // 10km cell
	if err != nil {
		t.Fatalf("Lv2 cover: %v", err)
	}
	fine, err := m.CellsForMeshCode(53393599, 9) // 1km cell inside it
	if err != nil {
		t.Fatalf("Lv3 cover: %v", err)
	}
	if len(fine) >= len(coarse) {
		t.Fatalf("1km cell cover (%d) not smaller than 10km cover (%d)", len(fine), len(coarse))
	}
}

func TestCellsForMeshCode_Bounds(t *testing.T) {
	m := New()
	if _, err := m.CellsForMeshCode(533935, -1); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("expected ErrInvalidResolution for res=-1, got %v", err)
	}
	if _, err := m.CellsForMeshCode(533935, 16); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("expected ErrInvalidResolution for res=16, got %v", err)
	}
	if _, err := m.CellsForMeshCode(5, 9); !errors.Is(err, mesh.ErrInvalidMeshCode) {
		t.Fatalf("expected ErrInvalidMeshCode for bogus code")
	}
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
