package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/katsuo-dev/jpmesh-cache/internal/cache/keys"
	"github.com/katsuo-dev/jpmesh-cache/internal/core/config"
	obs "github.com/katsuo-dev/jpmesh-cache/internal/core/observability"
	"github.com/katsuo-dev/jpmesh-cache/internal/mesh"
)

// PrefixDeleter is the slice of the cache store the consumer needs: bulk
// removal of every key anchored on a given cell.
type PrefixDeleter interface {
	DelPrefix(ctx context.Context, prefix string) (int, error)
}

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	Levels              []mesh.Level
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

// ConfigFrom resolves the environment-level settings into a consumer
// config, dropping unknown level designators.
func ConfigFrom(ic config.InvalidationCfg) Config {
	var levels []mesh.Level
	for _, d := range ic.Levels {
		if lv, err := mesh.LevelFromDesignator(d); err == nil {
			levels = append(levels, lv)
		}
	}
	return Config{
		Brokers:             splitCSV(ic.Brokers),
		Topic:               ic.Topic,
		GroupID:             ic.GroupID,
		Levels:              levels,
		SessionTimeout:      30 * time.Second,
		Heartbeat:           3 * time.Second,
		RebalanceTimeout:    30 * time.Second,
		InitialOffsetOldest: true,
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Consumer struct {
	cfg    Config
	log    *slog.Logger
	store  PrefixDeleter
	bounds mesh.Bounds
	dedupe *seqDedupe
}

func New(cfg Config, log *slog.Logger, store PrefixDeleter, bounds mesh.Bounds) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		log:    log,
		store:  store,
		bounds: bounds,
		dedupe: newSeqDedupe(4096),
	}
}

// Start joins the consumer group and processes events until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	if c.store == nil {
		return errors.New("invalidation: missing cache store")
	}
	if len(c.cfg.Levels) == 0 {
		return errors.New("invalidation: no purge levels configured")
	}

	scfg := sarama.NewConfig()
	scfg.Version = sarama.V2_1_0_0
	scfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	scfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	scfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		scfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		scfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	scfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, scfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.log.Info("invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.log.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single message. Malformed or stale events are
// dropped rather than retried; only store failures propagate so the
// claim is re-consumed.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncInvalidation("decode_error")
		c.log.Warn("dropping undecodable event",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		obs.IncInvalidation("invalid")
		c.log.Warn("dropping invalid event", "offset", msg.Offset, "err", err)
		return nil
	}
	if !c.dedupe.shouldApply(ev.Source, ev.Seq) {
		obs.IncInvalidation("duplicate")
		return nil
	}

	purged, covered, err := c.purge(ctx, *ev.BBox)
	if err != nil {
		obs.IncInvalidation("purge_error")
		return fmt.Errorf("purge keys: %w", err)
	}

	obs.IncInvalidation("ok")
	c.log.Debug("purged cover keys",
		"op", ev.Op, "source", ev.Source, "cells", covered, "keys", purged)
	return nil
}

// purge deletes every cover key anchored on a cell that overlaps bbox, at
// each configured level. Returns keys deleted and cells covered.
func (c *Consumer) purge(ctx context.Context, bb BBox) (int, int, error) {
	south, west, north, east, ok := c.clamp(bb)
	if !ok {
		return 0, 0, nil
	}

	purged, covered := 0, 0
	for _, lv := range c.cfg.Levels {
		corners, err := mesh.ToMeshCodeWithin(c.bounds,
			[]float64{south, north}, []float64{west, east}, lv)
		if err != nil {
			return purged, covered, err
		}
		codes, err := mesh.ToEnvelope(corners[0], corners[1])
		if err != nil {
			return purged, covered, err
		}
		for _, code := range codes {
			n, err := c.store.DelPrefix(ctx, keys.CellPrefix(code))
			if err != nil {
				return purged, covered, err
			}
			purged += n
		}
		covered += len(codes)
	}
	return purged, covered, nil
}

// clamp intersects bbox with the encoder domain; events entirely outside
// it are no-ops. The north/east edges are nudged inward because the
// domain is half-open.
func (c *Consumer) clamp(bb BBox) (south, west, north, east float64, ok bool) {
	const inset = 1e-9
	south = max(bb.South, c.bounds.MinLat)
	west = max(bb.West, c.bounds.MinLon)
	north = min(bb.North, c.bounds.MaxLat-inset)
	east = min(bb.East, c.bounds.MaxLon-inset)
	return south, west, north, east, south < north && west < east
}

type messageProcessor func(context.Context, *sarama.ConsumerMessage) error

type groupHandler struct {
	process messageProcessor
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("claim context done: %w", ctx.Err())
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(ctx, msg); err != nil {
				return fmt.Errorf("process failed (topic=%s, part=%d, off=%d): %w",
					msg.Topic, msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}
