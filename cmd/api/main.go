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

	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"

	"github.com/agritruth/trace/internal/api"
	"github.com/agritruth/trace/internal/config"
	"github.com/agritruth/trace/internal/custody"
	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
	"github.com/agritruth/trace/internal/moderation"
	"github.com/agritruth/trace/internal/payments"
	"github.com/agritruth/trace/internal/registry"
	"github.com/agritruth/trace/internal/settlement"
	"github.com/agritruth/trace/internal/verification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Env == "development" {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledgerClient, err := buildLedger(ctx, cfg, log)
	if err != nil {
		log.Error("ledger setup failed", "err", err)
		os.Exit(1)
	}

	var sessions settlement.SessionStore = settlement.NewMemorySessions()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis unreachable", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		sessions = settlement.NewRedisSessions(rdb)
		log.Info("settlement sessions backed by redis", "addr", cfg.RedisAddr)
	}

	var store moderation.Store = moderation.NewMemoryStore()
	if cfg.DBSource != "" {
		pg, err := moderation.NewPostgresStore(cfg.DBSource)
		if err != nil {
			log.Error("database unreachable", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		store = pg
		log.Info("moderation queue backed by postgres")
	}

	var provider payments.Provider = payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	projection := registry.New(ledgerClient, log)
	engine := custody.New(ledgerClient, log)
	reconciler := settlement.NewReconciler(ledgerClient, engine, sessions, provider, log)
	queue := moderation.NewQueue(store)
	verifier := verification.NewService(queue)

	handler := api.NewHandler(ledgerClient, projection, engine, reconciler, provider, queue, verifier, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "backend", cfg.LedgerBackend, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", "err", err)
	}
}

// buildLedger picks the chain adapter or the in-process ledger. The memory
// backend exists for local development and demos; it grants the process its
// own verifier capability so settlement works out of the box.
func buildLedger(ctx context.Context, cfg *config.Config, log *slog.Logger) (ledger.Client, error) {
	if cfg.LedgerBackend == config.BackendMemory {
		owner := domain.DefaultFarmer
		mem := ledger.NewMemory(owner)
		if err := mem.SetVerifier(ctx, owner, true); err != nil {
			return nil, err
		}
		log.Warn("using in-process ledger, state is not durable")
		return mem, nil
	}
	return ledger.DialEth(ctx, ledger.EthConfig{
		RPCURL:          cfg.RPCURL,
		ContractAddress: cfg.ContractAddress,
		RelayerKeyHex:   cfg.RelayerKey,
		OwnerKeyHex:     cfg.OwnerKey,
	}, log)
}
