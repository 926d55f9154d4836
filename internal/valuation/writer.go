package valuation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/internal/store"
)

// Writer persists valuation results: a cache/audit row plus the item's
// current-value fields.
type Writer struct {
	store store.Store
	ttl   time.Duration
}

// NewWriter creates a Writer with the given cache TTL.
func NewWriter(st store.Store, ttl time.Duration) *Writer {
	return &Writer{store: st, ttl: ttl}
}

// WriteConsolidated persists a consolidated valuation under the
// "consolidated" purpose tag with a raw per-source snapshot, then updates
// the item's current value. The cache insert is awaited; if it fails the
// item update still proceeds, since the caller already holds the computed
// value and a missing audit row is the lesser failure.
func (w *Writer) WriteConsolidated(ctx context.Context, itemID string, cv *model.ConsolidatedValuation) error {
	return w.write(ctx, itemID, model.PurposeConsolidated, cv)
}

// WriteSingleSource persists the catalog-only fallback path under the
// provider's historical "api" tag.
func (w *Writer) WriteSingleSource(ctx context.Context, itemID string, cv *model.ConsolidatedValuation) error {
	return w.write(ctx, itemID, model.SourceTagAPI, cv)
}

func (w *Writer) write(ctx context.Context, itemID, purpose string, cv *model.ConsolidatedValuation) error {
	payload, err := json.Marshal(cv)
	if err != nil {
		return eris.Wrap(err, "valuation: marshal snapshot")
	}

	sampleSize := 0
	for _, obs := range cv.Sources {
		sampleSize += obs.SampleSize
	}

	if err := w.store.PutCachedPrice(ctx, itemID, purpose, cv.ValueCents, cv.Confidence, sampleSize, payload, w.ttl); err != nil {
		zap.L().Warn("valuation: cache write failed",
			zap.String("item", itemID),
			zap.String("purpose", purpose),
			zap.Error(err),
		)
	}

	if err := w.store.UpdateItemValue(ctx, itemID, cv.ValueCents, purpose, cv.Confidence); err != nil {
		return eris.Wrapf(err, "valuation: update item %s", itemID)
	}
	return nil
}
