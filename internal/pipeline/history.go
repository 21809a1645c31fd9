package pipeline

import (
	"context"
	"time"

	"brandkit/internal/domain"
)

const recordTimeout = 5 * time.Second

// History writes use a detached context so cancelled runs are still recorded.
func (p *Pipeline) recordContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), recordTimeout)
}

func (p *Pipeline) startRecord(r run) {
	if p.recorder == nil {
		return
	}
	ctx, cancel := p.recordContext()
	defer cancel()
	err := p.recorder.StartRun(ctx, domain.Run{
		ID:           r.id,
		Context:      r.input.Context,
		HasReference: r.input.Reference != nil,
		Locale:       r.input.Locale,
		Backend:      p.name,
		Status:       domain.RunRunning,
		CreatedAt:    p.now(),
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("run_id", r.id).Msg("pipeline: record run start failed")
	}
}

func (p *Pipeline) recordRender(outcome domain.RenderOutcome) {
	if p.recorder == nil || outcome.RunID == "" {
		return
	}
	ctx, cancel := p.recordContext()
	defer cancel()
	if err := p.recorder.RecordRender(ctx, outcome); err != nil {
		p.logger.Warn().Err(err).Str("run_id", outcome.RunID).Str("platform", string(outcome.Platform)).Msg("pipeline: record render failed")
	}
}

func (p *Pipeline) finishRecord(runID, status, seed string) {
	if p.recorder == nil {
		return
	}
	ctx, cancel := p.recordContext()
	defer cancel()
	if err := p.recorder.FinishRun(ctx, runID, status, seed); err != nil {
		p.logger.Warn().Err(err).Str("run_id", runID).Msg("pipeline: record run finish failed")
	}
}
