// Package pipeline orchestrates one campaign: derive a prompt set once, then
// render every platform sequentially with pacing between calls. Derivation
// failure is global; a render failure only affects its own platform.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"brandkit/internal/domain"
	"brandkit/internal/infra"
	"brandkit/internal/pacing"
	"brandkit/internal/retry"
	"brandkit/internal/state"
)

// Backend is the generative collaborator reached through two capability calls.
type Backend interface {
	DerivePrompts(ctx context.Context, req domain.DeriveRequest) (domain.VisualPromptSet, error)
	RenderImage(ctx context.Context, req domain.RenderRequest) (domain.EncodedImage, error)
}

// Recorder persists run history. Failures are logged and never affect state.
type Recorder interface {
	StartRun(ctx context.Context, run domain.Run) error
	RecordRender(ctx context.Context, outcome domain.RenderOutcome) error
	FinishRun(ctx context.Context, runID, status, styleSeed string) error
}

// Input is the user's campaign request.
type Input struct {
	Context   string
	Reference *domain.EncodedImage
	Locale    string
}

// Summary describes a finished GenerateAll.
type Summary struct {
	RunID     string
	StyleSeed string
	States    []domain.AssetState
}

// Options tune a Pipeline. Zero values fall back to production defaults.
type Options struct {
	Retry       retry.Policy
	Pacer       pacing.Policy
	Recorder    Recorder
	Logger      *infra.Logger
	BackendName string
	Now         func() time.Time
}

type Pipeline struct {
	backend  Backend
	store    *state.Store
	retry    retry.Policy
	pacer    pacing.Policy
	recorder Recorder
	logger   *infra.Logger
	name     string
	now      func() time.Time

	running atomic.Bool

	mu        sync.Mutex
	reference *domain.EncodedImage
	runID     string
	cancel    context.CancelFunc
}

// New wires a pipeline around backend and store.
func New(backend Backend, store *state.Store, opts Options) *Pipeline {
	logger := infra.OrDiscard(opts.Logger)
	policy := opts.Retry
	if policy.MaxAttempts == 0 && policy.InitialDelay == 0 {
		policy = retry.Default(logger)
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	pacer := opts.Pacer
	if pacer == nil {
		pacer = pacing.FixedDelay{Delay: pacing.DefaultDelay}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	name := opts.BackendName
	if name == "" {
		name = "gemini"
	}
	return &Pipeline{
		backend:  backend,
		store:    store,
		retry:    policy,
		pacer:    pacer,
		recorder: opts.Recorder,
		logger:   logger,
		name:     name,
		now:      now,
	}
}

// Store exposes the state store the pipeline writes to.
func (p *Pipeline) Store() *state.Store { return p.store }

// Running reports whether a full run is in progress.
func (p *Pipeline) Running() bool { return p.running.Load() }

type run struct {
	id    string
	input Input
}

// GenerateAll runs a full campaign and returns once every platform settled.
// Empty input returns ErrInvalidInput without touching state.
func (p *Pipeline) GenerateAll(ctx context.Context, in Input) (Summary, error) {
	r, err := p.begin(in)
	if err != nil {
		return Summary{}, err
	}
	return p.execute(ctx, r)
}

// Launch validates the input, reserves the run slot and continues the
// campaign in a new goroutine. ctx must outlive the caller's request.
func (p *Pipeline) Launch(ctx context.Context, in Input) (string, error) {
	r, err := p.begin(in)
	if err != nil {
		return "", err
	}
	go func() {
		if _, err := p.execute(ctx, r); err != nil {
			p.logger.Warn().Err(err).Str("run_id", r.id).Msg("pipeline: run ended with error")
		}
	}()
	return r.id, nil
}

// Cancel stops the run in progress. It reports whether a run was cancelled.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return false
	}
	p.cancel()
	return true
}

// begin validates in, claims the run slot and resets the store in one step
// under p.mu, so a regenerate cannot slip a stale render in between.
func (p *Pipeline) begin(in Input) (run, error) {
	in.Context = strings.TrimSpace(in.Context)
	if in.Reference.IsZero() {
		in.Reference = nil
	}
	if in.Context == "" && in.Reference == nil {
		return run{}, fmt.Errorf("%w: context or reference image required", domain.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running.CompareAndSwap(false, true) {
		return run{}, domain.ErrRunInProgress
	}
	if err := p.store.ResetUnlessLoading(); err != nil {
		p.running.Store(false)
		return run{}, fmt.Errorf("%w: %v", domain.ErrRunInProgress, err)
	}
	r := run{id: uuid.NewString(), input: in}
	p.reference = in.Reference
	p.runID = r.id
	return r, nil
}

func (p *Pipeline) execute(parent context.Context, r run) (Summary, error) {
	defer p.running.Store(false)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
	}()

	log := p.logger.With().Str("run_id", r.id).Logger()
	p.startRecord(r)

	set, err := retry.Do(ctx, p.retry, "derive_prompts", func(ctx context.Context) (domain.VisualPromptSet, error) {
		set, err := p.backend.DerivePrompts(ctx, domain.DeriveRequest{
			Context:   r.input.Context,
			Locale:    r.input.Locale,
			Reference: r.input.Reference,
		})
		if err != nil {
			return set, err
		}
		return set, set.Validate()
	})
	if err != nil {
		msg := domain.MsgAnalysisFailed
		status := domain.RunFailed
		if retry.Classify(err) == retry.KindCancelled {
			msg = domain.MsgCancelled
			status = domain.RunCancelled
		}
		log.Error().Err(err).Msg("pipeline: prompt derivation failed")
		for _, key := range domain.PlatformKeys() {
			_ = p.store.SetError(key, msg)
		}
		p.finishRecord(r.id, status, "")
		return p.summary(r.id, ""), fmt.Errorf("derive prompts: %w", err)
	}

	keys := domain.PlatformKeys()
	for _, key := range keys {
		_ = p.store.SetLoading(key, set.Prompt(key))
	}
	log.Info().Str("style_seed", set.StyleSeed).Msg("pipeline: prompts derived")

	for i, key := range keys {
		if i > 0 {
			if err := p.pacer.Wait(ctx); err != nil {
				p.cancelRemaining(keys[i:])
				p.finishRecord(r.id, domain.RunCancelled, set.StyleSeed)
				return p.summary(r.id, set.StyleSeed), err
			}
		}
		if err := ctx.Err(); err != nil {
			p.cancelRemaining(keys[i:])
			p.finishRecord(r.id, domain.RunCancelled, set.StyleSeed)
			return p.summary(r.id, set.StyleSeed), err
		}
		p.renderOne(ctx, r.id, key, set.Prompt(key), r.input.Reference)
	}

	if err := ctx.Err(); err != nil {
		p.finishRecord(r.id, domain.RunCancelled, set.StyleSeed)
		return p.summary(r.id, set.StyleSeed), err
	}
	p.finishRecord(r.id, domain.RunCompleted, set.StyleSeed)
	log.Info().Msg("pipeline: run completed")
	return p.summary(r.id, set.StyleSeed), nil
}

// RegenerateOne re-renders key with its stored prompt. It returns false with
// a nil error when the platform has no prompt yet, ErrPlatformBusy while a
// render for key is in flight and ErrRunInProgress during a full run.
func (p *Pipeline) RegenerateOne(ctx context.Context, key domain.PlatformKey) (bool, error) {
	job, ok, err := p.beginRegenerate(key)
	if err != nil || !ok {
		return ok, err
	}
	p.renderOne(ctx, job.runID, key, job.prompt, job.reference)
	return true, nil
}

// LaunchRegenerate is RegenerateOne with the render continued in a goroutine.
func (p *Pipeline) LaunchRegenerate(ctx context.Context, key domain.PlatformKey) (bool, error) {
	job, ok, err := p.beginRegenerate(key)
	if err != nil || !ok {
		return ok, err
	}
	go p.renderOne(ctx, job.runID, key, job.prompt, job.reference)
	return true, nil
}

type regenJob struct {
	prompt    string
	runID     string
	reference *domain.EncodedImage
}

// beginRegenerate shares p.mu with begin: either the run resets the store
// first and the platform has no prompt, or the render is claimed first and
// the run refuses to start until it settles.
func (p *Pipeline) beginRegenerate(key domain.PlatformKey) (regenJob, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.store.Get(key)
	if !ok {
		return regenJob{}, false, fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, key)
	}
	if p.running.Load() {
		return regenJob{}, false, fmt.Errorf("%w: %s regenerate refused", domain.ErrRunInProgress, key)
	}
	prompt := strings.TrimSpace(rec.Prompt)
	if prompt == "" {
		return regenJob{}, false, nil
	}
	started, err := p.store.BeginRender(key, prompt)
	if err != nil {
		return regenJob{}, false, err
	}
	if !started {
		return regenJob{}, false, domain.ErrPlatformBusy
	}
	return regenJob{prompt: prompt, runID: p.runID, reference: p.reference}, true, nil
}

// renderOne drives a single platform from loading to success or error.
func (p *Pipeline) renderOne(ctx context.Context, runID string, key domain.PlatformKey, prompt string, ref *domain.EncodedImage) {
	log := p.logger.With().Str("run_id", runID).Str("platform", string(key)).Logger()
	spec, ok := domain.LookupPlatform(key)
	if !ok {
		_ = p.store.SetError(key, domain.MsgGenerationFailed)
		return
	}
	_ = p.store.SetLoading(key, prompt)

	started := p.now()
	img, err := retry.Do(ctx, p.retry, "render_image", func(ctx context.Context) (domain.EncodedImage, error) {
		img, err := p.backend.RenderImage(ctx, domain.RenderRequest{
			Platform:    key,
			Prompt:      prompt,
			AspectRatio: spec.AspectRatio,
			Reference:   ref,
		})
		if err == nil && img.IsZero() {
			err = domain.ErrNoImageContent
		}
		return img, err
	})
	elapsed := p.now().Sub(started)

	outcome := domain.RenderOutcome{
		RunID:      runID,
		Platform:   key,
		Prompt:     prompt,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  p.now(),
	}
	if err != nil {
		msg := domain.MsgGenerationFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			msg = domain.MsgCancelled
		}
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("pipeline: render failed")
		_ = p.store.SetError(key, msg)
		outcome.Status = domain.StatusError
	} else {
		log.Info().Int("bytes", len(img.Data)).Dur("elapsed", elapsed).Msg("pipeline: render succeeded")
		_ = p.store.SetSuccess(key, img.DataURI())
		outcome.Status = domain.StatusSuccess
		outcome.MimeType = img.MimeType
		outcome.Bytes = len(img.Data)
	}
	p.recordRender(outcome)
}

func (p *Pipeline) cancelRemaining(keys []domain.PlatformKey) {
	for _, key := range keys {
		_ = p.store.SetError(key, domain.MsgCancelled)
	}
}

func (p *Pipeline) summary(runID, seed string) Summary {
	return Summary{RunID: runID, StyleSeed: seed, States: p.store.Snapshot()}
}
