package main

import (
	"context"
	"errors"
	"net"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	"otc-signals/internal/app"
	"otc-signals/internal/cache"
	"otc-signals/internal/config"
	"otc-signals/internal/db"
	"otc-signals/internal/logging"
	"otc-signals/internal/tui"
	"otc-signals/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type userContextKey struct{}

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	newLoggerFunc     = logging.New
	initPostgresFunc  = db.InitPostgres
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newCoreFunc       = app.NewCore
	loadKeysFunc      = loadAuthorizedKeys
	newSSHServerFunc  = wish.NewServer
	listenFunc        = func(s *ssh.Server) error { return s.ListenAndServe() }
	shutdownFunc      = func(s *ssh.Server, ctx context.Context) error { return s.Shutdown(ctx) }
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	logger := newLoggerFunc(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("ssh server failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx, logger)
	initRedisFunc(ctx, logger)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	core, err := newCoreFunc(ctx, cfg, tracer, db.Pool, cache.Client, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	keys, err := loadKeysFunc(cfg.SSHAuthorizedKeysPath)
	if err != nil {
		return err
	}

	var store userStore
	if core.SSHUsers != nil {
		store = core.SSHUsers
	}
	if store == nil && len(keys) == 0 {
		return errors.New("no ssh users: set SSH_AUTHORIZED_KEYS_PATH or DATABASE_URL")
	}
	auth := newAuthenticator(store, keys, logger)
	auth.sync(ctx, keys)

	base := tui.Services{Analyzer: core.Analysis, Market: core.Market}
	if core.SSHUsers != nil {
		base.WatchList = core.SSHUsers
	}

	srv, err := newSSHServerFunc(
		wish.WithAddress(net.JoinHostPort(cfg.SSHHost, strconv.Itoa(cfg.SSHPort))),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(sctx ssh.Context, key ssh.PublicKey) bool {
			user, ok := auth.authorize(sctx, key)
			if ok {
				sctx.SetValue(userContextKey{}, user)
			}
			return ok
		}),
		wish.WithMiddleware(
			bm.Middleware(teaHandler(base)),
			sessionLogMiddleware(logger),
		),
	)
	if err != nil {
		return err
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("ssh server starting")
		if err := listenFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Error().Err(err).Msg("ssh server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info().Msg("shutting down ssh server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return shutdownFunc(srv, shutdownCtx)
}

func teaHandler(base tui.Services) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		return tui.NewAppModel(sessionServices(base, sessionUserFrom(s.Context()))), []tea.ProgramOption{tea.WithAltScreen()}
	}
}

// sessionServices binds the shared services to one authenticated user.
func sessionServices(base tui.Services, user *sessionUser) tui.Services {
	svc := base
	if user == nil {
		return svc
	}
	svc.UserID = user.ID
	svc.Username = user.Username
	svc.Pairs = append([]string(nil), user.Pairs...)
	return svc
}

func sessionUserFrom(ctx context.Context) *sessionUser {
	u, _ := ctx.Value(userContextKey{}).(*sessionUser)
	return u
}

func sessionLogMiddleware(logger zerolog.Logger) wish.Middleware {
	log := logging.Component(logger, "ssh")
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			start := time.Now()
			name := s.User()
			if u := sessionUserFrom(s.Context()); u != nil {
				name = u.Username
			}
			log.Info().Str("user", name).Str("remote", s.RemoteAddr().String()).Msg("session opened")
			next(s)
			log.Info().Str("user", name).Dur("duration", time.Since(start)).Msg("session closed")
		}
	}
}
