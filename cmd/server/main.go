package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "otc-signals/docs"
	"otc-signals/internal/app"
	"otc-signals/internal/bot"
	"otc-signals/internal/cache"
	"otc-signals/internal/config"
	"otc-signals/internal/db"
	"otc-signals/internal/domain"
	"otc-signals/internal/handler"
	"otc-signals/internal/job"
	"otc-signals/internal/logging"
	"otc-signals/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logging.New
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newCoreFunc            = app.NewCore
	startTelegramBotFunc   = bot.StartTelegramBot
	startJobFunc           = func(ctx context.Context, run func(context.Context)) { go run(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title        OTC Signals API
// @version      1.0
// @description  Signal schedules, indicator scoring and Telegram delivery for OTC binary options.
// @host         localhost:8080
// @BasePath     /
func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	logger := newLoggerFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx, logger)
	initRedisFunc(ctx, logger)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	core, err := newCoreFunc(ctx, cfg, tracer, db.Pool, cache.Client, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build analysis stack")
	}
	defer core.Close()

	tg := startTelegramBotFunc(bot.Config{
		Token:       cfg.TelegramBotToken,
		Location:    core.Analysis.Location(),
		Subscribers: cache.NewSubscriberSet(cache.Client, tracer),
	}, core.Analysis, tracer, core.Metrics, logger)
	defer tg.Stop()

	var (
		notifier handler.Notifier
		alerts   job.AlertNotifier
		sender   job.SignalSender
	)
	if tg != nil {
		notifier = tg.Notifier
		alerts = tg.Alerts
		sender = tg.Notifier
	}

	var (
		channelStore  handler.ChannelStore
		channelLister job.ChannelLister
		candleWriter  job.CandleWriter
		quoteFeed     job.QuoteFeed
	)
	if core.Channels != nil {
		channelStore = core.Channels
		channelLister = core.Channels
	}
	if core.Candles != nil {
		candleWriter = core.Candles
	}
	if core.Feed != nil {
		quoteFeed = core.Feed
	}

	broadcaster := job.NewSignalBroadcaster(tracer, core.Analysis, alerts, sender, channelLister, job.BroadcastConfig{
		Interval:  time.Duration(cfg.BroadcastIntervalMins) * time.Minute,
		Pairs:     cfg.BroadcastPairs,
		Timeframe: cfg.BroadcastTimeframe,
		Gap:       cfg.BroadcastGapMins,
		Location:  core.Analysis.Location(),
	}, logger)
	startJobFunc(ctx, broadcaster.Start)

	recorder := job.NewCandleRecorder(tracer, quoteFeed, candleWriter, recordedPairs(), logger)
	startJobFunc(ctx, recorder.Start)

	h := handler.New(tracer, core.Analysis, core.Market, notifier, channelStore, core.Metrics.Handler())
	router := newRouterFunc()
	router.Use(handler.CORS(cfg.CORSOrigins))
	router.Use(otelgin.Middleware(tracing.ServiceName))
	h.RegisterRoutes(router)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server starting")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)

	logger.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
}

func httpAddr(port int) string {
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf(":%d", port)
}

// recordedPairs is every catalog symbol, so stored history exists for any
// pair a caller may analyze.
func recordedPairs() []string {
	out := make([]string, 0, len(domain.TradingPairs))
	for _, p := range domain.TradingPairs {
		out = append(out, p.Symbol)
	}
	return out
}
