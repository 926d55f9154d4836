package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/collectorvault/appraise/internal/source"
	"github.com/collectorvault/appraise/internal/store"
	"github.com/collectorvault/appraise/internal/valuation"
	"github.com/collectorvault/appraise/pkg/ebay"
	"github.com/collectorvault/appraise/pkg/justtcg"
	"github.com/collectorvault/appraise/pkg/pricecharting"
	"github.com/collectorvault/appraise/pkg/sneakfind"
	"github.com/collectorvault/appraise/pkg/soldscan"
)

// engineEnv holds the initialized store and valuation engine used by the
// value/show/link/serve commands.
type engineEnv struct {
	Store  store.Store
	Engine *valuation.Engine
}

// Close releases resources held by the environment.
func (env *engineEnv) Close() {
	if env.Store != nil {
		_ = env.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "appraise.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, cfg.Store.MinConns)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine sets up the store, loads source routing, builds every pricing
// source from config, and assembles the valuation engine. Callers should
// defer env.Close(). Sources with missing credentials are still registered;
// the engine skips them per request.
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	routing := source.DefaultRouting()
	if path := cfg.Valuation.SourcesFile; path != "" {
		if _, err := os.Stat(path); err == nil {
			routing, err = source.LoadRouting(path)
			if err != nil {
				_ = st.Close()
				return nil, eris.Wrap(err, "load source routing")
			}
			zap.L().Info("source routing loaded", zap.String("file", path))
		} else {
			zap.L().Warn("sources file not found, using built-in routing", zap.String("file", path))
		}
	}

	pcClient := pricecharting.NewClient(cfg.PriceCharting.Token, pricecharting.WithBaseURL(cfg.PriceCharting.BaseURL))
	ebayClient := ebay.NewClient(cfg.Ebay.Token, ebay.WithBaseURL(cfg.Ebay.BaseURL))
	ssClient := soldscan.NewClient(cfg.SoldScan.Key, soldscan.WithBaseURL(cfg.SoldScan.BaseURL))
	tcgClient := justtcg.NewClient(cfg.JustTCG.Key, justtcg.WithBaseURL(cfg.JustTCG.BaseURL))
	sfClient := sneakfind.NewClient(cfg.SneakFind.Key, sneakfind.WithBaseURL(cfg.SneakFind.BaseURL))

	sources := []source.Source{
		source.NewPriceCharting(pcClient, cfg.PriceCharting.Token, routing),
		source.NewEbay(ebayClient, cfg.Ebay.Token, routing),
		source.NewSoldScan(ssClient, cfg.SoldScan.Key, routing),
		source.NewJustTCG(tcgClient, cfg.JustTCG.Key, routing),
		source.NewSneakFind(sfClient, cfg.SneakFind.Key, routing),
	}

	orch := valuation.NewOrchestrator(sources...)
	orch.SetFetchTimeout(time.Duration(cfg.Valuation.FetchTimeoutSecs) * time.Second)

	ttl := time.Duration(cfg.Valuation.CacheTTLHours) * time.Hour
	engine := valuation.NewEngine(st, orch, ttl)

	return &engineEnv{Store: st, Engine: engine}, nil
}
