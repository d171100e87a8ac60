// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/config"
	"telegram-relay-bot/internal/domain/ports/repository"
	tele "telegram-relay-bot/internal/infra/adapters/telegram"
	pg "telegram-relay-bot/internal/infra/db/postgres"
	httpapi "telegram-relay-bot/internal/infra/http"
	"telegram-relay-bot/internal/infra/i18n"
	"telegram-relay-bot/internal/infra/logging"
	"telegram-relay-bot/internal/infra/memory"
	"telegram-relay-bot/internal/infra/metrics"
	red "telegram-relay-bot/internal/infra/redis"
	"telegram-relay-bot/internal/infra/scheduler"
	"telegram-relay-bot/internal/infra/storage/file"
	"telegram-relay-bot/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Blocklist ----
	blocklistRepo, closeStore := mustBlocklistRepo(ctx, cfg, logger)
	defer closeStore()
	blocklist := usecase.NewBlocklist(blocklistRepo, cfg.Bot.OperatorID, logger)
	blocklist.Load(ctx)

	// ---- Pending replies ----
	pending, closePending := mustPendingRepo(ctx, cfg, logger)
	defer closePending()

	// ---- Correlation table ----
	table := usecase.NewCorrelationTable(cfg.Relay.CorrelationTTL)

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Fatal().Err(err).Str("language", cfg.Bot.Language).Msg("translator")
	}

	// ---- Telegram ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	relay := usecase.NewRelayUseCase(cfg.Bot.OperatorID, blocklist, table, pending, botAdapter, translator, logger)
	go func() {
		if err := botAdapter.StartPolling(ctx, relay); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Correlation sweep ----
	var sweeper *scheduler.Scheduler
	if cfg.Relay.CorrelationTTL > 0 {
		sweeper = scheduler.NewScheduler("correlation_sweep", cfg.Relay.SweepInterval, scheduler.JobFunc(table.SweepExpired), logger)
		sweeper.Start(ctx)
	}

	// ---- HTTP health server ----
	server := httpapi.NewServer(&cfg.HTTP, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	logger.Info().
		Int64("operator_id", cfg.Bot.OperatorID).
		Str("storage", cfg.Storage.Driver).
		Int("blocked", blocklist.Len()).
		Msg("relay bot started")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	botAdapter.StopPolling()
	if sweeper != nil {
		sweeper.Stop()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	cancel()
}

// mustBlocklistRepo picks the blocklist backend named by storage.driver.
func mustBlocklistRepo(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.BlocklistRepository, func()) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pg.Connect(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		repo := pg.NewBlocklistRepo(pool, pg.NewTxManager(pool), logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("postgres schema")
		}
		return repo, pool.Close
	default:
		return file.NewBlocklistRepo(cfg.Storage.BlocklistFile, logger), func() {}
	}
}

// mustPendingRepo uses Redis when configured and an in-process map otherwise.
func mustPendingRepo(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.PendingReplyRepository, func()) {
	if cfg.Redis.URL == "" {
		logger.Info().Msg("redis not configured, pending replies kept in memory")
		return memory.NewPendingReplyRepo(cfg.Redis.TTL), func() {}
	}
	client, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	return red.NewPendingReplyRepo(client, cfg.Redis.TTL), func() { _ = client.Close() }
}
