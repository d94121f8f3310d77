// Package batch runs the augmentation pipeline over many in-memory images
// concurrently and writes the results into one timestamped directory.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Skryldev/image-augmentor/adapters/decoder"
	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/hooks"
	"github.com/Skryldev/image-augmentor/output"
	"github.com/Skryldev/image-augmentor/pipeline"
)

// Settings are the process-level knobs of an Orchestrator.
type Settings struct {
	Workers       int   // 0 = runtime.NumCPU()
	Seed          int64 // 0 = fresh entropy per item
	MaxImageBytes int64 // 0 = no limit
}

// Orchestrator is the batch conversion engine. It is safe for concurrent use;
// configure it fully before the first ConvertAll.
type Orchestrator struct {
	settings Settings
	registry core.Registry
	storage  core.StorageAdapter
	writer   *output.Writer
	hooks    []core.Hook
	logger   core.Logger
	metrics  core.MetricsCollector
	now      func() time.Time
}

// New creates an Orchestrator decoding and encoding through reg and writing
// through store.
func New(reg core.Registry, store core.StorageAdapter, s Settings) *Orchestrator {
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	return &Orchestrator{
		settings: s,
		registry: reg,
		storage:  store,
		writer:   output.NewWriter(reg, store),
		logger:   hooks.NopLogger{},
		now:      time.Now,
	}
}

// SetLogger attaches a structured logger.
func (o *Orchestrator) SetLogger(l core.Logger) { o.logger = l }

// SetMetrics attaches a metrics collector for per-item failures.
func (o *Orchestrator) SetMetrics(m core.MetricsCollector) { o.metrics = m }

// AddHook registers a pipeline hook applied to every item.
func (o *Orchestrator) AddHook(h core.Hook) { o.hooks = append(o.hooks, h) }

// SetClock overrides the clock used to name batch directories.
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// outcome is one item's result. Each worker writes only its own slot.
type outcome struct {
	path string
	err  error
}

// ConvertAll augments every file and writes it as {name}_mod_{index+1:03}.{ext}
// into a new output_YYYYMMDD_HHMMSS directory under outputRoot.
//
// Only invalid options and a failure to create the directory are returned as
// errors. Anything that goes wrong with a single file, including a panic,
// is counted in Failed and never affects the other files. The batch always
// runs to completion; ctx is used for logging and codec calls only.
func (o *Orchestrator) ConvertAll(ctx context.Context, opts core.Options, files []core.FileInput, outputRoot string, saturation *float64) (*core.ConvertResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	start := time.Now()

	dir, err := o.storage.CreateBatchDir(ctx, outputRoot, o.now())
	if err != nil {
		o.logger.Error("batch.mkdir.failed", "batch_id", batchID, "root", outputRoot, "error", err.Error())
		return nil, err
	}
	o.logger.Info("batch.start",
		"batch_id", batchID,
		"files", len(files),
		"workers", o.settings.Workers,
		"output_dir", dir,
	)

	pl := pipeline.Build(opts, o.hooks...)
	work := context.WithoutCancel(ctx)
	outcomes := make([]outcome, len(files))

	var g errgroup.Group
	g.SetLimit(o.settings.Workers)
	for i := range files {
		g.Go(func() error {
			outcomes[i] = o.processItem(work, pl, dir, i, files[i], opts, saturation)
			return nil
		})
	}
	_ = g.Wait()

	result := &core.ConvertResult{OutputDir: dir}
	for i, oc := range outcomes {
		if oc.err == nil {
			result.Succeeded++
			o.logger.Debug("batch.item.written", "batch_id", batchID, "index", i, "path", oc.path)
			continue
		}
		result.Failed++
		category := apperrors.CategoryOf(oc.err)
		o.logger.Warn("batch.item.failed",
			"batch_id", batchID,
			"index", i,
			"name", files[i].Name,
			"category", string(category),
			"error", oc.err.Error(),
		)
		if o.metrics != nil {
			o.metrics.RecordError("item", string(category))
		}
	}

	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.RecordProcessingTime("batch", elapsed)
	}
	o.logger.Info("batch.done",
		"batch_id", batchID,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result, nil
}

// processItem is the per-file error boundary.
func (o *Orchestrator) processItem(ctx context.Context, pl *pipeline.Pipeline, dir string, idx int, file core.FileInput, opts core.Options, saturation *float64) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: apperrors.New(apperrors.CategoryPipeline, "batch.item",
				fmt.Errorf("panic: %v", r))}
		}
	}()

	if limit := o.settings.MaxImageBytes; limit > 0 && int64(len(file.Bytes)) > limit {
		return outcome{err: apperrors.New(apperrors.CategoryInput, "batch.item",
			fmt.Errorf("%w: %d > %d bytes", apperrors.ErrInputTooLarge, len(file.Bytes), limit))}
	}

	img, err := decoder.Bytes(ctx, o.registry, file.Bytes)
	if err != nil {
		return outcome{err: err}
	}

	rng := pipeline.NewRand(o.settings.Seed, uint64(idx))
	img = pl.Run(ctx, img, rng)
	if saturation != nil {
		img = pl.Step(ctx, pipeline.SaturateStep{Amount: *saturation}, img, rng)
	}

	path, err := o.writer.Write(ctx, dir, img, file.Name, idx+1, opts)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{path: path}
}
