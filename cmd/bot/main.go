package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/veledan/spellbook-bot/internal/bot"
	"github.com/veledan/spellbook-bot/internal/catalog"
	"github.com/veledan/spellbook-bot/internal/i18n"
	"github.com/veledan/spellbook-bot/internal/lifecycle"
	"github.com/veledan/spellbook-bot/internal/repository"
	"github.com/veledan/spellbook-bot/internal/state"
	"github.com/veledan/spellbook-bot/pkg/config"
	"github.com/veledan/spellbook-bot/pkg/graceful"
	"github.com/veledan/spellbook-bot/pkg/logger"
	"github.com/veledan/spellbook-bot/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		File:          cfg.Log.File,
		MaxSizeMB:     cfg.Log.MaxSizeMB,
		MaxBackups:    cfg.Log.MaxBackups,
		SentryEnabled: cfg.Sentry.Enabled,
	})

	log.Info("starting spellbook bot",
		slog.String("env", cfg.AppEnv),
		slog.String("catalog_dir", cfg.Catalog.Dir),
		slog.String("session_backend", cfg.Session.Backend),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	// A broken compendium is unrecoverable; refuse to start.
	cat, err := catalog.New(cfg.Catalog.Dir)
	if err != nil {
		log.Error("catalog load failed", slog.Any("error", err))
		return err
	}
	metrics.SetCatalogSpells(cat.SpellCount())
	log.Info("catalog loaded", slog.Int("spells", cat.SpellCount()), slog.Int("classes", len(cat.Classes())))

	users, err := repository.NewUserRepository(cfg.Database.Path, cfg.Catalog.DefaultBooks, log)
	if err != nil {
		return err
	}

	locales, err := i18n.Load(cfg.Locale)
	if err != nil {
		return err
	}

	var (
		storage     state.Storage
		memStorage  *state.MemoryStorage
		redisClient *redis.Client
	)
	switch cfg.Session.Backend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		storage = state.NewRedisStorage(redisClient, log, cfg.Session.TTL)
	default:
		memStorage = state.NewMemoryStorage()
		storage = memStorage
	}

	fsm := state.NewMachine(storage, log)

	b, err := bot.New(cfg, log, fsm, users, cat, locales)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(mux),
	}, cfg.Server.ShutdownTimeout)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("user repository", func(context.Context) error {
		return users.Close()
	})
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.Start()
		return nil
	})

	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	if memStorage != nil {
		cleaner := state.NewCleaner(memStorage, log, cfg.Session.TTL, cfg.Session.SweepInterval)
		g.Go(func() error {
			cleaner.Run(gctx)
			return nil
		})

		collector := metrics.NewSessionCollector(memStorage, 30*time.Second)
		g.Go(func() error {
			collector.Run(gctx)
			return nil
		})
	}

	if cfg.Catalog.WatchChanges {
		watcher := catalog.NewWatcher(cat, cfg.Catalog.Dir, log)
		watcher.OnReload = func(c *catalog.Catalog) {
			metrics.SetCatalogSpells(c.SpellCount())
		}
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return shutdown.Execute(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("spellbook bot stopped")
	return nil
}
