package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	PriceCharting PriceChartingConfig `yaml:"pricecharting" mapstructure:"pricecharting"`
	Ebay          EbayConfig          `yaml:"ebay" mapstructure:"ebay"`
	SoldScan      SoldScanConfig      `yaml:"soldscan" mapstructure:"soldscan"`
	JustTCG       JustTCGConfig       `yaml:"justtcg" mapstructure:"justtcg"`
	SneakFind     SneakFindConfig     `yaml:"sneakfind" mapstructure:"sneakfind"`
	Valuation     ValuationConfig     `yaml:"valuation" mapstructure:"valuation"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PriceChartingConfig holds PriceCharting API settings.
type PriceChartingConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EbayConfig holds eBay Browse API settings.
type EbayConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SoldScanConfig holds settings for the scraped sold-listings service.
type SoldScanConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JustTCGConfig holds JustTCG API settings.
type JustTCGConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SneakFindConfig holds sneaker market API settings.
type SneakFindConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ValuationConfig configures the valuation engine.
type ValuationConfig struct {
	CacheTTLHours    int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	SourcesFile      string `yaml:"sources_file" mapstructure:"sources_file"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("APPRAISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "appraise.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("valuation.cache_ttl_hours", 24)
	v.SetDefault("valuation.fetch_timeout_secs", 15)
	v.SetDefault("pricecharting.base_url", "https://www.pricecharting.com/api")
	v.SetDefault("ebay.base_url", "https://api.ebay.com/buy/browse/v1")
	v.SetDefault("soldscan.base_url", "https://api.soldscan.io/v1")
	v.SetDefault("justtcg.base_url", "https://api.justtcg.com/v1")
	v.SetDefault("sneakfind.base_url", "https://api.sneakfind.dev/v2")

	// Credentials default empty so env-only overrides unmarshal.
	v.SetDefault("pricecharting.token", "")
	v.SetDefault("ebay.token", "")
	v.SetDefault("soldscan.key", "")
	v.SetDefault("justtcg.key", "")
	v.SetDefault("sneakfind.key", "")
	v.SetDefault("valuation.sources_file", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
