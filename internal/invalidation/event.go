// Package invalidation consumes dataset-change events from Kafka and
// purges the cached envelope/intersects covers whose cells overlap the
// changed region.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// Event describes a change to the upstream dataset. The bbox is the
// changed region in EPSG:4326; Seq orders events per Source so replays
// and duplicates can be dropped.
type Event struct {
	Version   int       `json:"version"`
	Op        string    `json:"op"`
	TS        time.Time `json:"ts"`
	Source    string    `json:"source,omitempty"`
	FeatureID any       `json:"feature_id,omitempty"`
	Seq       uint64    `json:"seq,omitempty"`
	BBox      *BBox     `json:"bbox"`
}

type BBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if e.Seq > 0 && strings.TrimSpace(e.Source) == "" {
		return fmt.Errorf("seq requires a source")
	}
	if e.BBox == nil {
		return fmt.Errorf("bbox is required")
	}
	bb := *e.BBox
	if !(bb.South >= -90 && bb.South <= 90 && bb.North >= -90 && bb.North <= 90) {
		return fmt.Errorf("bbox latitude out of range")
	}
	if !(bb.West >= -180 && bb.West <= 180 && bb.East >= -180 && bb.East <= 180) {
		return fmt.Errorf("bbox longitude out of range")
	}
	if !(bb.North > bb.South && bb.East > bb.West) {
		return fmt.Errorf("bbox must satisfy north>south and east>west")
	}
	return nil
}
