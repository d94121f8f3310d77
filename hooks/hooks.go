// Package hooks provides Hook and Logger implementations.
package hooks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Skryldev/image-augmentor/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// ZapLogger wraps a zap.SugaredLogger to satisfy core.Logger. Fields are
// alternating key/value pairs.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger creates a logger backed by zap.
func NewZapLogger(l *zap.Logger) *ZapLogger { return &ZapLogger{log: l.Sugar()} }

func (z *ZapLogger) Debug(msg string, fields ...interface{}) { z.log.Debugw(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...interface{})  { z.log.Infow(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...interface{})  { z.log.Warnw(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...interface{}) { z.log.Errorw(msg, fields...) }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each pipeline step.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(_ context.Context, stepName string, img *core.ImageData) {
	h.logger.Debug("pipeline.step.start",
		"step", stepName,
		"width", img.Meta.Width,
		"height", img.Meta.Height,
	)
}

func (h *LoggingHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("pipeline.step.error",
			"step", stepName,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	out := "nil"
	if img != nil {
		out = fmt.Sprintf("%dx%d alpha=%t", img.Meta.Width, img.Meta.Height, img.Meta.HasAlpha)
	}
	h.logger.Debug("pipeline.step.done",
		"step", stepName,
		"duration_ms", d.Milliseconds(),
		"output", out,
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	stepDurationsUs map[string]int64 // cumulative microseconds per step
	stepCalls       map[string]int64
	stepErrors      map[string]int64 // keyed "step/category"

	totalThroughputB int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		stepDurationsUs: make(map[string]int64),
		stepCalls:       make(map[string]int64),
		stepErrors:      make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordProcessingTime(stepName string, d interface{ Seconds() float64 }) {
	us := int64(d.Seconds() * 1e6)
	m.mu.Lock()
	m.stepDurationsUs[stepName] += us
	m.stepCalls[stepName]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	atomic.AddInt64(&m.totalThroughputB, bytes)
}

func (m *InMemoryMetrics) RecordError(stepName string, category string) {
	m.mu.Lock()
	m.stepErrors[stepName+"/"+category]++
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		StepDurationsUs:  make(map[string]int64, len(m.stepDurationsUs)),
		StepCalls:        make(map[string]int64, len(m.stepCalls)),
		StepErrors:       make(map[string]int64, len(m.stepErrors)),
		TotalThroughputB: atomic.LoadInt64(&m.totalThroughputB),
	}
	for k, v := range m.stepDurationsUs {
		snap.StepDurationsUs[k] = v
	}
	for k, v := range m.stepCalls {
		snap.StepCalls[k] = v
	}
	for k, v := range m.stepErrors {
		snap.StepErrors[k] = v
	}
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
// StepErrors is keyed by "step/category".
type MetricsSnapshot struct {
	StepDurationsUs  map[string]int64 `json:"stepDurationsUs"`
	StepCalls        map[string]int64 `json:"stepCalls"`
	StepErrors       map[string]int64 `json:"stepErrors"`
	TotalThroughputB int64            `json:"totalThroughputBytes"`
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline events into a MetricsCollector. Throughput counts
// the decoded pixel bytes each step produced.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(_ context.Context, _ string, _ *core.ImageData) {}

func (h *MetricsHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	h.collector.RecordProcessingTime(stepName, d)
	if err != nil {
		h.collector.RecordError(stepName, "pipeline")
	}
	if img != nil {
		h.collector.RecordThroughput(int64(img.Meta.Width) * int64(img.Meta.Height) * 4)
	}
}

var (
	_ core.Logger           = (*ZapLogger)(nil)
	_ core.Logger           = NopLogger{}
	_ core.Hook             = (*LoggingHook)(nil)
	_ core.Hook             = (*MetricsHook)(nil)
	_ core.MetricsCollector = (*InMemoryMetrics)(nil)
)
