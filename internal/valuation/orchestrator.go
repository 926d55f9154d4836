// Package valuation consolidates per-provider price observations into one
// value with a confidence score, backed by a TTL price cache.
package valuation

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/internal/source"
)

// Orchestrator fans a priced item out to every applicable, available
// pricing source in parallel and collects whatever subset answered.
type Orchestrator struct {
	sources      []source.Source
	fetchTimeout time.Duration
}

// NewOrchestrator creates an orchestrator over a fixed, ordered source
// list. Observation order in results always matches this order.
func NewOrchestrator(sources ...source.Source) *Orchestrator {
	return &Orchestrator{sources: sources}
}

// SetFetchTimeout caps how long any single source fetch may run. Zero
// means no deadline beyond the caller's context.
func (o *Orchestrator) SetFetchTimeout(d time.Duration) {
	o.fetchTimeout = d
}

// FanOutResult reports one fan-out pass.
type FanOutResult struct {
	// Observations holds the successful answers in source order.
	Observations []model.SourceObservation
	// Selected counts the sources that were applicable and available.
	Selected int
	// Elapsed is the wall-clock duration of the whole fan-out.
	Elapsed time.Duration
}

// FanOut invokes every applicable+available source concurrently and waits
// for all of them. A source failure never aborts the others; failed or
// empty answers are simply missing from the result.
func (o *Orchestrator) FanOut(ctx context.Context, item model.Item) *FanOutResult {
	start := time.Now()

	selected := make([]source.Source, 0, len(o.sources))
	for _, s := range o.sources {
		if !s.Available() {
			// Unconfigured providers are an expected state, not an error.
			zap.L().Debug("valuation: source not configured",
				zap.String("source", string(s.Kind())),
			)
			continue
		}
		if !s.Applicable(item) {
			zap.L().Debug("valuation: source not applicable",
				zap.String("source", string(s.Kind())),
				zap.String("item", item.ID),
				zap.String("category", string(item.Category)),
			)
			continue
		}
		selected = append(selected, s)
	}

	// Index-addressed slots keep result order equal to invocation order
	// regardless of which fetch finishes first.
	slots := make([]*model.SourceObservation, len(selected))

	g, gCtx := errgroup.WithContext(ctx)
	for i, s := range selected {
		g.Go(func() error {
			fetchCtx := gCtx
			if o.fetchTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(gCtx, o.fetchTimeout)
				defer cancel()
			}
			obs, err := s.Fetch(fetchCtx, item)
			if err != nil {
				zap.L().Warn("valuation: source fetch failed",
					zap.String("source", string(s.Kind())),
					zap.String("item", item.ID),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = obs
			return nil
		})
	}
	_ = g.Wait()

	result := &FanOutResult{
		Selected: len(selected),
		Elapsed:  time.Since(start),
	}
	for _, obs := range slots {
		if obs != nil {
			result.Observations = append(result.Observations, *obs)
		}
	}

	zap.L().Info("valuation: fan-out complete",
		zap.String("item", item.ID),
		zap.Int("selected", result.Selected),
		zap.Int("contributed", len(result.Observations)),
		zap.Duration("elapsed", result.Elapsed),
	)

	return result
}
