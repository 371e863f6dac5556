// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
	// Levels lists the designators whose cover keys get purged on an
	// invalidation event.
	Levels []int
}

type Config struct {
	Addr     string
	LogLevel string

	// Domain bounds for the encoder; the grid has no documented upper
	// edge, so how far north/east we accept is configuration.
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64

	CacheBackend    string // "memory" or "redis"
	RedisAddr       string
	CacheOpTimeout  time.Duration
	CacheTTLDefault time.Duration
	MemoryCacheSize int

	// CoverMaxCells caps how many cells an /envelope or /intersects
	// response may enumerate.
	CoverMaxCells int

	// H3Res is the default resolution for /crossindex.
	H3Res int

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		LatMin: getfloat("MESH_LAT_MIN", 0),
		LatMax: getfloat("MESH_LAT_MAX", 66.66),
		LonMin: getfloat("MESH_LON_MIN", 100),
		LonMax: getfloat("MESH_LON_MAX", 180),

		CacheBackend:    strings.ToLower(getenv("CACHE_BACKEND", "memory")),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		CacheOpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTLDefault: getduration("CACHE_TTL_DEFAULT", 10*time.Minute),
		MemoryCacheSize: getint("MEMORY_CACHE_SIZE", 65536),

		CoverMaxCells: getint("COVER_MAX_CELLS", 250000),

		H3Res: getint("H3_RES", 9),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "mesh-invalidation"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "mesh-cache-invalidator"),
			Levels:  parseIntList(getenv("INVALIDATION_LEVELS", "2,3")),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "2,3,5000" into a designator list
func parseIntList(s string) []int {
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}
