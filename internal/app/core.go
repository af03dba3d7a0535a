// Package app assembles the analysis stack shared by the server, MCP and SSH
// binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"otc-signals/internal/advisor"
	"otc-signals/internal/cache"
	"otc-signals/internal/config"
	"otc-signals/internal/marketdata"
	"otc-signals/internal/metrics"
	"otc-signals/internal/provider"
	"otc-signals/internal/repository"
	"otc-signals/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Core holds the long lived collaborators. Repository fields are nil without
// Postgres and Feed is nil without a market websocket URL.
type Core struct {
	Metrics  *metrics.Metrics
	Feed     *marketdata.Client
	Cache    *cache.PriceCache
	Market   *service.MarketService
	Analysis *service.AnalysisService
	Advisor  *advisor.Advisor

	Candles  *repository.CandleRepository
	Channels *repository.ChannelRepository
	SSHUsers *repository.SSHUserRepository
}

// NewCore runs migrations when pool is set and starts dialing the feed in the
// background. Close releases the feed.
func NewCore(ctx context.Context, cfg *config.Config, tracer trace.Tracer, pool *pgxpool.Pool, redisClient *redis.Client, logger zerolog.Logger) (*Core, error) {
	c := &Core{Metrics: metrics.New()}

	if pool != nil {
		c.Candles = repository.NewCandleRepository(pool, tracer)
		c.Channels = repository.NewChannelRepository(pool, tracer)
		c.SSHUsers = repository.NewSSHUserRepository(pool, tracer)
		migrations := []struct {
			name string
			run  func(context.Context) error
		}{
			{"candles", c.Candles.RunMigrations},
			{"channels", c.Channels.RunMigrations},
			{"ssh_users", c.SSHUsers.RunMigrations},
		}
		for _, m := range migrations {
			if err := m.run(ctx); err != nil {
				return nil, fmt.Errorf("%s migrations: %w", m.name, err)
			}
		}
		logger.Info().Msg("migrations applied")
	}

	c.Cache = cache.NewPriceCache(redisClient, time.Duration(cfg.PriceCacheTTLSecs)*time.Second, tracer)

	var feed service.LiveFeed
	if cfg.MarketWSURL != "" {
		c.Feed = marketdata.NewClient(marketdata.Config{
			URL:          cfg.MarketWSURL,
			SSID:         cfg.MarketWSSSID,
			MaxReconnect: cfg.MarketMaxReconnect,
			PriceTimeout: time.Duration(cfg.MarketPriceTimeoutSecs) * time.Second,
		}, tracer, logger)
		c.Feed.OnReconnect(c.Metrics.WSReconnects.Inc)
		feed = c.Feed
		go func() {
			if err := c.Feed.Connect(ctx); err != nil {
				logger.Warn().Err(err).Msg("initial market feed connect failed")
			}
		}()
	}
	c.Market = service.NewMarketService(tracer, feed, c.Cache, c.Metrics, logger)

	var store provider.CandleStore
	if c.Candles != nil {
		store = c.Candles
	}
	candles := provider.NewCandleSource(tracer, store, nil, logger)

	var adv service.Advisor
	c.Advisor = advisor.New(advisor.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: time.Duration(cfg.AdvisorTimeoutSecs) * time.Second,
	}, tracer, logger)
	if c.Advisor != nil {
		adv = c.Advisor
	}

	c.Analysis = service.NewAnalysisService(tracer, c.Market, candles, adv, c.Metrics, logger, service.AnalysisConfig{
		Timezone: cfg.Timezone,
		MinGap:   cfg.MinSignalGapMins,
	})
	return c, nil
}

func (c *Core) Close() error {
	if c == nil || c.Feed == nil {
		return nil
	}
	return c.Feed.Close()
}
