// Package report runs send cycles: probe the platform, build a batch,
// serialize it in the configured format and hand it to the transmitter.
//
// Each cycle reads one immutable config snapshot and keeps no state for the
// next cycle. A failed probe skips the cycle; transmission failures are
// handled (logged) by the transmitter.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/littleapps/usagestats/agent/internal/config"
	"github.com/littleapps/usagestats/agent/internal/probe"
	"github.com/littleapps/usagestats/agent/internal/serialize"
	"github.com/littleapps/usagestats/agent/internal/transmit"
	"github.com/littleapps/usagestats/pkg/types"
)

// CustomEventType is the Type field of the event carrying user-supplied fields.
const CustomEventType = "custom"

// Reporter composes a prober and a transmitter.
type Reporter struct {
	cfg    atomic.Pointer[config.AgentConfig]
	prober probe.Prober
	tx     *transmit.Transmitter
	extra  []types.Field
}

// New returns a Reporter. extra, if non-empty, is sent as a second event
// after the inventory event on every cycle.
func New(cfg config.AgentConfig, prober probe.Prober, tx *transmit.Transmitter, extra []types.Field) *Reporter {
	r := &Reporter{prober: prober, tx: tx, extra: extra}
	r.cfg.Store(&cfg)
	return r
}

// Update swaps the config used by subsequent cycles. A cycle already in
// flight keeps the snapshot it started with.
func (r *Reporter) Update(cfg config.AgentConfig) {
	r.cfg.Store(&cfg)
}

// Config returns the current config snapshot.
func (r *Reporter) Config() config.AgentConfig {
	return *r.cfg.Load()
}

// Build probes the platform and assembles this cycle's batch.
func (r *Reporter) Build(ctx context.Context) (types.Batch, error) {
	inv, err := r.prober.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: probe: %w", err)
	}
	batch := types.Batch{inv}
	if len(r.extra) > 0 {
		custom := types.NewEvent(types.Field{Name: "Type", Value: types.Text(CustomEventType)})
		for _, f := range r.extra {
			custom.Set(f.Name, f.Value)
		}
		batch = append(batch, custom)
	}
	return batch, nil
}

// Render builds a batch and serializes it without sending.
func (r *Reporter) Render(ctx context.Context) (string, error) {
	cfg := r.Config()
	format, err := cfg.WireFormat()
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	batch, err := r.Build(ctx)
	if err != nil {
		return "", err
	}
	return serialize.Serialize(batch, format), nil
}

// Cycle performs one send cycle. It never returns an error: a probe failure
// or an invalid format is logged and the cycle is skipped.
func (r *Reporter) Cycle(ctx context.Context) {
	cfg := r.Config()
	format, err := cfg.WireFormat()
	if err != nil {
		slog.Error("report: cycle skipped", "err", err)
		return
	}
	batch, err := r.Build(ctx)
	if err != nil {
		slog.Warn("report: cycle skipped", "err", err)
		return
	}
	payload := serialize.Serialize(batch, format)
	slog.Debug("report: sending batch",
		"events", batch.Len(),
		"format", format,
		"bytes", len(payload))
	r.tx.Send(ctx, payload, cfg.Transmission())
}

// Run performs a cycle immediately, then one per configured interval until
// ctx is cancelled. A zero interval performs a single cycle and returns.
// Interval changes made through Update take effect after the next tick.
func (r *Reporter) Run(ctx context.Context) {
	r.Cycle(ctx)

	interval := r.Config().Interval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cycle(ctx)
			next := r.Config().Interval
			if next <= 0 {
				return
			}
			if next != interval {
				interval = next
				ticker.Reset(interval)
				slog.Info("report: interval changed", "interval", interval)
			}
		}
	}
}

// ParseFields parses name=value pairs. An empty value becomes Null.
func ParseFields(pairs []string) ([]types.Field, error) {
	fields := make([]types.Field, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("report: field %q: want name=value", p)
		}
		v := types.Null()
		if value != "" {
			v = types.Text(value)
		}
		fields = append(fields, types.Field{Name: name, Value: v})
	}
	return fields, nil
}
