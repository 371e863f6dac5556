// Package router validates query parameters for the mesh endpoints and
// translates domain errors into HTTP status codes.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/katsuo-dev/jpmesh-cache/internal/core/model"
	"github.com/katsuo-dev/jpmesh-cache/internal/core/observability"
	"github.com/katsuo-dev/jpmesh-cache/internal/mapper/h3map"
	"github.com/katsuo-dev/jpmesh-cache/internal/mesh"
	"github.com/katsuo-dev/jpmesh-cache/internal/query"
)

// CoverEngine serves the cacheable cover queries.
type CoverEngine interface {
	Envelope(ctx context.Context, sw, ne uint64) ([]uint64, error)
	Intersects(ctx context.Context, code uint64, to mesh.Level) ([]uint64, error)
}

// CellMapper cross-indexes a mesh cell into H3 cells.
type CellMapper interface {
	CellsForMeshCode(code uint64, res int) ([]string, error)
}

type Handlers struct {
	log    *slog.Logger
	bounds mesh.Bounds
	engine CoverEngine
	mapper CellMapper
	h3Res  int
}

func New(log *slog.Logger, bounds mesh.Bounds, engine CoverEngine, mapper CellMapper, h3Res int) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{log: log, bounds: bounds, engine: engine, mapper: mapper, h3Res: h3Res}
}

// batchLimit bounds every list parameter; requests beyond it are a client
// error, not a reason to allocate.
const batchLimit = 10000

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with the per-route HTTP metric.
func instrument(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		fn(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error string `json:"error"`
}

// writeErr maps domain sentinels onto HTTP statuses. Everything the
// caller could have fixed is a 400; the cover cap is a 422 because the
// request was well-formed, just too big.
func (h *Handlers) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, mesh.ErrOutOfDomain),
		errors.Is(err, mesh.ErrInvalidMeshCode),
		errors.Is(err, mesh.ErrUnknownLevel),
		errors.Is(err, mesh.ErrLengthMismatch),
		errors.Is(err, mesh.ErrMismatchedLevels),
		errors.Is(err, h3map.ErrInvalidResolution):
		status = http.StatusBadRequest
	case errors.Is(err, query.ErrCoverTooLarge):
		status = http.StatusUnprocessableEntity
	default:
		h.log.Error("request failed", "err", err)
	}
	writeJSON(w, status, errBody{Error: err.Error()})
}

// Encode converts coordinates to mesh codes: /encode?lat=&lon=&level=.
func (h *Handlers) Encode() http.HandlerFunc {
	return instrument("/encode", func(w http.ResponseWriter, r *http.Request) {
		req, err := parseEncodeRequest(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
			return
		}
		lv, err := mesh.LevelFromDesignator(req.Level)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		codes, err := mesh.ToMeshCodeWithin(h.bounds, req.Lats, req.Lons, lv)
		observability.ObserveMeshOp("encode", err)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Level int      `json:"level"`
			Codes []uint64 `json:"codes"`
		}{Level: lv.Designator(), Codes: codes})
	})
}

// LevelOf resolves mesh code levels: /level?code=.
func (h *Handlers) LevelOf() http.HandlerFunc {
	return instrument("/level", func(w http.ResponseWriter, r *http.Request) {
		codes, err := parseUints(r, "code", true)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
			return
		}
		levels, err := mesh.ToMeshLevel(codes)
		observability.ObserveMeshOp("level", err)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		out := make([]int, len(levels))
		labels := make([]string, len(levels))
		for i, lv := range levels {
			out[i] = lv.Designator()
			labels[i] = lv.SizeLabel()
		}
		writeJSON(w, http.StatusOK, struct {
			Levels []int    `json:"levels"`
			Sizes  []string `json:"sizes"`
		}{Levels: out, Sizes: labels})
	})
}

// Point interpolates coordinates inside cells: /point?code=&lat_mul=&lon_mul=.
func (h *Handlers) Point() http.HandlerFunc {
	return instrument("/point", func(w http.ResponseWriter, r *http.Request) {
		req, err := parsePointRequest(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
			return
		}
		pts, err := mesh.ToMeshPoint(req.Codes, req.LatMul, req.LonMul)
		observability.ObserveMeshOp("point", err)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Points []model.Coordinate `json:"points"`
		}{Points: pts})
	})
}

// Envelope enumerates the rectangle spanned by two codes: /envelope?sw=&ne=.
func (h *Handlers) Envelope() http.HandlerFunc {
	return instrument("/envelope", func(w http.ResponseWriter, r *http.Request) {
		req, err := parseEnvelopeRequest(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
			return
		}
		codes, err := h.engine.Envelope(r.Context(), req.SW, req.NE)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		writeCover(w, codes)
	})
}

// Intersects enumerates target-level cells overlapping a code:
// /intersects?code=&to=.
func (h *Handlers) Intersects() http.HandlerFunc {
	return instrument("/intersects", func(w http.ResponseWriter, r *http.Request) {
		req, err := parseIntersectsRequest(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
			return
		}
		to, err := mesh.LevelFromDesignator(req.Level)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		codes, err := h.engine.Intersects(r.Context(), req.Code, to)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		writeCover(w, codes)
	})
}

// CrossIndex maps a mesh cell onto H3: /crossindex?code=&res=.
func (h *Handlers) CrossIndex() http.HandlerFunc {
	return instrument("/crossindex", func(w http.ResponseWriter, r *http.Request) {
		codes, err := parseUints(r, "code", true)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
			return
		}
		if len(codes) != 1 {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "code must be a single mesh code"})
			return
		}
		res := h.h3Res
		if raw := strings.TrimSpace(r.URL.Query().Get("res")); raw != "" {
			res, err = strconv.Atoi(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errBody{Error: "res: " + err.Error()})
				return
			}
		}
		cells, err := h.mapper.CellsForMeshCode(codes[0], res)
		observability.ObserveMeshOp("crossindex", err)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Res   int      `json:"res"`
			Count int      `json:"count"`
			Cells []string `json:"cells"`
		}{Res: res, Count: len(cells), Cells: cells})
	})
}

func writeCover(w http.ResponseWriter, codes []uint64) {
	writeJSON(w, http.StatusOK, struct {
		Count int      `json:"count"`
		Codes []uint64 `json:"codes"`
	}{Count: len(codes), Codes: codes})
}

func parseEncodeRequest(r *http.Request) (model.EncodeRequest, error) {
	lats, err := parseFloats(r, "lat", true)
	if err != nil {
		return model.EncodeRequest{}, err
	}
	lons, err := parseFloats(r, "lon", true)
	if err != nil {
		return model.EncodeRequest{}, err
	}
	level, err := parseLevel(r)
	if err != nil {
		return model.EncodeRequest{}, err
	}
	return model.EncodeRequest{Lats: lats, Lons: lons, Level: level}, nil
}

func parsePointRequest(r *http.Request) (model.PointRequest, error) {
	codes, err := parseUints(r, "code", true)
	if err != nil {
		return model.PointRequest{}, err
	}
	latMul, err := parseFloats(r, "lat_mul", true)
	if err != nil {
		return model.PointRequest{}, err
	}
	lonMul, err := parseFloats(r, "lon_mul", true)
	if err != nil {
		return model.PointRequest{}, err
	}
	// a single multiplier pair applies to the whole batch
	if len(latMul) == 1 && len(lonMul) == 1 && len(codes) > 1 {
		latMul = repeat(latMul[0], len(codes))
		lonMul = repeat(lonMul[0], len(codes))
	}
	return model.PointRequest{Codes: codes, LatMul: latMul, LonMul: lonMul}, nil
}

func parseEnvelopeRequest(r *http.Request) (model.CoverRequest, error) {
	sw, err := parseUint(r, "sw")
	if err != nil {
		return model.CoverRequest{}, err
	}
	ne, err := parseUint(r, "ne")
	if err != nil {
		return model.CoverRequest{}, err
	}
	return model.CoverRequest{SW: sw, NE: ne}, nil
}

func parseIntersectsRequest(r *http.Request) (model.CoverRequest, error) {
	code, err := parseUint(r, "code")
	if err != nil {
		return model.CoverRequest{}, err
	}
	raw := strings.TrimSpace(r.URL.Query().Get("level"))
	if raw == "" {
		// older clients used "to"
		raw = strings.TrimSpace(r.URL.Query().Get("to"))
	}
	if raw == "" {
		return model.CoverRequest{}, errors.New("missing required parameter: level")
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return model.CoverRequest{}, fmt.Errorf("level: %w", err)
	}
	return model.CoverRequest{Code: code, Level: level}, nil
}

func parseLevel(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("level"))
	if raw == "" {
		return 0, errors.New("missing required parameter: level")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("level: %w", err)
	}
	return n, nil
}

// parseFloats reads a comma-separated float list from a query parameter.
func parseFloats(r *http.Request, name string, required bool) ([]float64, error) {
	parts, err := splitList(r, name, required)
	if err != nil || parts == nil {
		return nil, err
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out[i] = f
	}
	return out, nil
}

func parseUints(r *http.Request, name string, required bool) ([]uint64, error) {
	parts, err := splitList(r, name, required)
	if err != nil || parts == nil {
		return nil, err
	}
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseUint(r *http.Request, name string) (uint64, error) {
	vs, err := parseUints(r, name, true)
	if err != nil {
		return 0, err
	}
	if len(vs) != 1 {
		return 0, fmt.Errorf("%s must be a single value", name)
	}
	return vs[0], nil
}

// splitList accepts both repeated parameters (?lat=1&lat=2) and
// comma-separated lists (?lat=1,2).
func splitList(r *http.Request, name string, required bool) ([]string, error) {
	var parts []string
	for _, raw := range r.URL.Query()[name] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts = append(parts, strings.Split(raw, ",")...)
	}
	if len(parts) == 0 {
		if required {
			return nil, fmt.Errorf("missing required parameter: %s", name)
		}
		return nil, nil
	}
	if len(parts) > batchLimit {
		return nil, fmt.Errorf("%s: at most %d values per request", name, batchLimit)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil, fmt.Errorf("%s[%d]: empty element", name, i)
		}
	}
	return parts, nil
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
