// Package pipeline composes augmentation transforms and runs hooks around them.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/Skryldev/image-augmentor/core"
)

// Pipeline executes a fixed sequence of Transforms. It holds no mutable state
// after Build, so one Pipeline may be shared by every worker of a batch.
type Pipeline struct {
	stages []core.Transform
	hooks  []core.Hook
}

// Build assembles the augmentation stages for opts in their fixed order:
// resize, rotate, brightness/contrast, noise, then strip_exif when requested.
func Build(opts core.Options, hooks ...core.Hook) *Pipeline {
	stages := []core.Transform{
		&Resize{Min: opts.ResizeMin, Max: opts.ResizeMax},
		&Rotate{MaxDeg: opts.RotateMaxDeg},
		&BrightnessContrast{Brightness: opts.BrightnessRange, Contrast: opts.ContrastRange},
		&Noise{Sigma: opts.NoiseSigma},
	}
	if opts.StripEXIF {
		stages = append(stages, StripEXIF{})
	}
	return New(stages, hooks...)
}

// New returns a Pipeline over an explicit stage list.
func New(stages []core.Transform, hooks ...core.Hook) *Pipeline {
	p := &Pipeline{
		stages: make([]core.Transform, len(stages)),
		hooks:  make([]core.Hook, len(hooks)),
	}
	copy(p.stages, stages)
	copy(p.hooks, hooks)
	return p
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run folds img through every stage. Each stage receives the previous stage's
// output and the input is never modified.
func (p *Pipeline) Run(ctx context.Context, img *core.ImageData, rng *rand.Rand) *core.ImageData {
	current := img
	for _, stage := range p.stages {
		current = p.runStage(ctx, stage, current, rng)
	}
	return current
}

// Step runs a single transform with this pipeline's hooks attached. It lets
// callers add post-pipeline operations that are observed like any stage.
func (p *Pipeline) Step(ctx context.Context, t core.Transform, img *core.ImageData, rng *rand.Rand) *core.ImageData {
	return p.runStage(ctx, t, img, rng)
}

func (p *Pipeline) runStage(ctx context.Context, t core.Transform, img *core.ImageData, rng *rand.Rand) *core.ImageData {
	name := t.Name()
	for _, h := range p.hooks {
		h.BeforeStep(ctx, name, img)
	}

	start := time.Now()
	out := t.Apply(img, rng)
	elapsed := time.Since(start)

	for _, h := range p.hooks {
		h.AfterStep(ctx, name, out, elapsed, nil)
	}
	return out
}

// NewRand returns the random source for one pipeline invocation. A zero seed
// draws fresh entropy; any other seed yields a reproducible PCG stream keyed
// by (seed, stream).
func NewRand(seed int64, stream uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), stream))
}
