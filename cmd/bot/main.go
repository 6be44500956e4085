package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-guard-bot/internal/adapters/audit"
	"tg-guard-bot/internal/adapters/bot"
	"tg-guard-bot/internal/adapters/storage"
	"tg-guard-bot/internal/adapters/telegram"
	"tg-guard-bot/internal/domain"
	"tg-guard-bot/internal/infra/config"
	"tg-guard-bot/internal/infra/db"
	httpinfra "tg-guard-bot/internal/infra/http"
	"tg-guard-bot/internal/infra/log"
	"tg-guard-bot/internal/infra/metrics"
	"tg-guard-bot/internal/usecase/cleanup"
	"tg-guard-bot/internal/usecase/moderation"
	"tg-guard-bot/internal/usecase/roster"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildLedgerStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Ledger.Backend).Msg("не удалось создать хранилище журнала")
	}

	ledger := moderation.NewLedger(store, logger)
	if err := ledger.Load(ctx); err != nil {
		logger.Warn().Err(err).Str("store", store.Location()).Msg("журнал не прочитан, стартуем с пустым")
	}

	sink, err := buildAuditSink(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Audit.Backend).Msg("не удалось создать журнал аудита")
	}

	client, err := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.PollTimeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}

	directory := roster.NewDirectory()
	scheduler := cleanup.NewScheduler(client, logger)
	moderationUC := moderation.NewService(client, ledger, directory, scheduler, sink, cfg.Moderation.BanThreshold, cfg.Moderation.NoticeTTL, logger)
	handler := bot.NewHandler(client, moderationUC, directory, cfg.Moderation.WorkerPool, cfg.Moderation.AmbiguousLimit, logger)

	srv := httpinfra.NewServer(logger)
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("служебный HTTP сервер остановлен")
		}
	}()

	client.Poll(ctx, handler.HandleUpdate)

	logger.Info().Msg("остановка бота")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

var _ domain.ChatAPI = (*telegram.Client)(nil)
var _ domain.LedgerStore = (*storage.FileStore)(nil)

func buildLedgerStore(ctx context.Context, cfg config.AppConfig) (domain.LedgerStore, error) {
	switch cfg.Ledger.Backend {
	case "", "file":
		return storage.NewFileStore(cfg.Ledger.File), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return storage.NewRedisStore(client, "warning_ledger"), nil
	case "postgres":
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		store := storage.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("неизвестный бэкенд журнала: %q", cfg.Ledger.Backend)
	}
}

func buildAuditSink(cfg config.AppConfig) (domain.AuditSink, error) {
	switch cfg.Audit.Backend {
	case "", "nop":
		return audit.NewNopSink(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return audit.NewRedisSink(client, cfg.Audit.Queue), nil
	case "rabbitmq":
		return audit.NewRabbitSink(cfg.AMQPURL, cfg.Audit.Queue)
	default:
		return nil, fmt.Errorf("неизвестный бэкенд аудита: %q", cfg.Audit.Backend)
	}
}
