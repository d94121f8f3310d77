package hooks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Skryldev/image-augmentor/core"
)

func TestZapLogger_Fields(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	l := NewZapLogger(zap.New(obsCore))

	l.Warn("item.failed", "name", "a.png", "category", "decode")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["name"] != "a.png" || ctx["category"] != "decode" {
		t.Errorf("fields: got %v", ctx)
	}
}

func TestLoggingHook(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	h := NewLoggingHook(NewZapLogger(zap.New(obsCore)))
	img := &core.ImageData{Meta: core.Metadata{Width: 4, Height: 2}}

	h.BeforeStep(context.Background(), "rotate", img)
	h.AfterStep(context.Background(), "rotate", img, time.Millisecond, nil)
	h.AfterStep(context.Background(), "rotate", nil, time.Millisecond, errors.New("boom"))

	if n := logs.FilterMessage("pipeline.step.done").Len(); n != 1 {
		t.Errorf("done entries: got %d, want 1", n)
	}
	if n := logs.FilterMessage("pipeline.step.error").Len(); n != 1 {
		t.Errorf("error entries: got %d, want 1", n)
	}
}

func TestMetricsHook(t *testing.T) {
	m := NewInMemoryMetrics()
	h := NewMetricsHook(m)
	img := &core.ImageData{Meta: core.Metadata{Width: 10, Height: 10}}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.AfterStep(context.Background(), "noise", img, 2*time.Millisecond, nil)
		}()
	}
	wg.Wait()
	h.AfterStep(context.Background(), "noise", nil, 0, errors.New("x"))

	snap := m.Snapshot()
	if snap.StepCalls["noise"] != 11 {
		t.Errorf("calls: got %d, want 11", snap.StepCalls["noise"])
	}
	if snap.StepDurationsUs["noise"] < 19000 {
		t.Errorf("duration: got %dus, want >= 19000", snap.StepDurationsUs["noise"])
	}
	if snap.TotalThroughputB != 10*400 {
		t.Errorf("throughput: got %d, want 4000", snap.TotalThroughputB)
	}
	if snap.StepErrors["noise/pipeline"] != 1 {
		t.Errorf("errors: got %v", snap.StepErrors)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	m := NewInMemoryMetrics()
	m.RecordError("decode", "decode")
	snap := m.Snapshot()
	m.RecordError("decode", "decode")
	if snap.StepErrors["decode/decode"] != 1 {
		t.Error("snapshot changed after later writes")
	}
}
