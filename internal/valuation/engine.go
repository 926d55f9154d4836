package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/internal/store"
)

// Engine is the valuation entry point the route layer and CLI call into.
//
// Per request: cache check, then fan-out, consolidate, persist. A fresh
// cached consolidated entry short-circuits the whole pass. There are no
// retries at this level; a failed attempt returns a failure result and a
// later call starts over.
type Engine struct {
	store  store.Store
	orch   *Orchestrator
	writer *Writer
	ttl    time.Duration
}

// NewEngine creates an Engine with the given cache TTL.
func NewEngine(st store.Store, orch *Orchestrator, ttl time.Duration) *Engine {
	return &Engine{
		store:  st,
		orch:   orch,
		writer: NewWriter(st, ttl),
		ttl:    ttl,
	}
}

// RefreshResult is the outcome of one RefreshValuation call.
type RefreshResult struct {
	Success      bool                      `json:"success"`
	ValueCents   int64                     `json:"value_cents"`
	SourceTag    string                    `json:"source_tag,omitempty"`
	Confidence   int                       `json:"confidence"`
	Message      string                    `json:"message,omitempty"`
	Observations []model.SourceObservation `json:"observations,omitempty"`
	Trend        model.Trend               `json:"trend,omitempty"`
	Volatility   model.Volatility          `json:"volatility,omitempty"`
}

// ConsolidatedResult is the outcome of one GetConsolidatedValuation call.
type ConsolidatedResult struct {
	Success      bool                         `json:"success"`
	Consolidated *model.ConsolidatedValuation `json:"consolidated"`
	Message      string                       `json:"message,omitempty"`
}

// Failure messages surfaced to callers. A failed refresh leaves the
// previously stored value untouched.
const (
	msgNoSourcesConfigured = "Pricing sources not configured for this item"
	msgNoSourcesAvailable  = "No pricing sources available"
)

// RefreshValuation produces a current value for an item, preferring a
// fresh cached answer over a new fan-out. Item-not-found comes back as
// store.ErrNotFound; every other failure mode is a Success=false result.
func (e *Engine) RefreshValuation(ctx context.Context, itemID string) (*RefreshResult, error) {
	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if entry := e.cachedValuation(ctx, item.ID); entry != nil {
		result := &RefreshResult{
			Success:    true,
			ValueCents: entry.ValueCents,
			SourceTag:  model.SourceTagCached,
			Confidence: entry.Confidence,
			Message:    "Cached valuation",
		}
		if cv := decodeSnapshot(entry.Payload); cv != nil {
			result.Observations = cv.Sources
			result.Trend = cv.Trend
			result.Volatility = cv.Volatility
		}
		return result, nil
	}

	cv, tag, failMsg, err := e.valueOnce(ctx, *item)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return &RefreshResult{Success: false, Message: failMsg}, nil
	}

	return &RefreshResult{
		Success:      true,
		ValueCents:   cv.ValueCents,
		SourceTag:    tag,
		Confidence:   cv.Confidence,
		Observations: cv.Sources,
		Trend:        cv.Trend,
		Volatility:   cv.Volatility,
	}, nil
}

// GetConsolidatedValuation returns the full consolidated valuation for an
// item, computing and persisting one if the cache has no fresh entry.
func (e *Engine) GetConsolidatedValuation(ctx context.Context, itemID string) (*ConsolidatedResult, error) {
	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if entry := e.cachedValuation(ctx, item.ID); entry != nil {
		if cv := decodeSnapshot(entry.Payload); cv != nil {
			return &ConsolidatedResult{Success: true, Consolidated: cv}, nil
		}
		// Cached row predates snapshot payloads; fall through to a
		// fresh pass rather than serve a partial answer.
	}

	cv, _, failMsg, err := e.valueOnce(ctx, *item)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return &ConsolidatedResult{Success: false, Message: failMsg}, nil
	}
	return &ConsolidatedResult{Success: true, Consolidated: cv}, nil
}

// LinkCatalogEntry attaches a catalog entry to an item and invalidates
// every cache row for it before returning: the pricing context changed, so
// nothing cached under the old link may be served again.
func (e *Engine) LinkCatalogEntry(ctx context.Context, itemID, catalogID, displayName, secondaryName string) error {
	if err := e.store.LinkCatalog(ctx, itemID, catalogID, displayName, secondaryName); err != nil {
		return err
	}

	n, err := e.store.InvalidateItemCache(ctx, itemID)
	if err != nil {
		return eris.Wrapf(err, "valuation: invalidate cache for %s", itemID)
	}
	zap.L().Info("valuation: catalog linked, cache invalidated",
		zap.String("item", itemID),
		zap.String("catalog_id", catalogID),
		zap.Int("entries_removed", n),
	)
	return nil
}

// History returns the item's valuation history, newest first.
func (e *Engine) History(ctx context.Context, itemID string, limit int) ([]model.PriceCacheEntry, error) {
	if _, err := e.store.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return e.store.ListPriceHistory(ctx, itemID, limit)
}

// valueOnce runs one full fan-out → consolidate → persist pass. A nil
// valuation with a non-empty failMsg means no sources contributed; the
// item's stored value is left untouched in that case.
func (e *Engine) valueOnce(ctx context.Context, item model.Item) (cv *model.ConsolidatedValuation, tag, failMsg string, err error) {
	fan := e.orch.FanOut(ctx, item)

	if len(fan.Observations) == 0 {
		if fan.Selected == 0 {
			return nil, "", msgNoSourcesConfigured, nil
		}
		return nil, "", msgNoSourcesAvailable, nil
	}

	cv, err = Consolidate(fan.Observations, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrNoObservations) {
			return nil, "", msgNoSourcesAvailable, nil
		}
		return nil, "", "", err
	}

	// With only the catalog source configured the result is that single
	// quote, not a merge; it keeps the provider's historical "api" tag.
	tag = model.PurposeConsolidated
	write := e.writer.WriteConsolidated
	if fan.Selected == 1 && len(cv.Sources) == 1 && cv.Sources[0].Source == model.SourcePriceCharting {
		tag = model.SourceTagAPI
		write = e.writer.WriteSingleSource
	}

	if err := write(ctx, item.ID, cv); err != nil {
		return nil, "", "", err
	}
	return cv, tag, "", nil
}

// cachedValuation returns the freshest non-expired valuation row for an
// item, checking the consolidated tag first and the single-source catalog
// tag as a fallback.
func (e *Engine) cachedValuation(ctx context.Context, itemID string) *model.PriceCacheEntry {
	for _, purpose := range []string{model.PurposeConsolidated, model.SourceTagAPI} {
		entry, err := e.store.GetCachedPrice(ctx, itemID, purpose)
		if err != nil {
			zap.L().Warn("valuation: cache read failed",
				zap.String("item", itemID),
				zap.String("purpose", purpose),
				zap.Error(err),
			)
			return nil
		}
		if entry != nil {
			return entry
		}
	}
	return nil
}

func decodeSnapshot(payload []byte) *model.ConsolidatedValuation {
	if len(payload) == 0 {
		return nil
	}
	var cv model.ConsolidatedValuation
	if err := json.Unmarshal(payload, &cv); err != nil {
		zap.L().Warn("valuation: corrupt cache snapshot", zap.Error(err))
		return nil
	}
	return &cv
}
