package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httpapi "github.com/kentsang666/football-ai-live/internal/dashboard/http"
	"github.com/kentsang666/football-ai-live/internal/dashboard/ws"
	"github.com/kentsang666/football-ai-live/internal/engine"
	"github.com/kentsang666/football-ai-live/internal/ledger"
	sharedcache "github.com/kentsang666/football-ai-live/internal/shared/cache"
	"github.com/kentsang666/football-ai-live/internal/shared/config"
	"github.com/kentsang666/football-ai-live/internal/shared/db"
	"github.com/kentsang666/football-ai-live/internal/shared/logger"
	"github.com/kentsang666/football-ai-live/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	api := &httpapi.API{
		Cache: engine.NewPriceCache(redisClient, 2*cfg.PollInterval),
		Store: ledger.NewPostgres(pg, cfg.MinStakeCents),
	}

	// Hub WebSocket alimentado pelo Pub/Sub do pricing-engine
	hub := ws.NewHub(func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, redisClient, hub)

	r := chi.NewRouter()
	r.Mount("/", api.Router())
	r.Get("/ws", hub.HandleWS)

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return err
		}
		return redisClient.Ping(hctx).Err()
	})
	defer msrv.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Info("dashboard-service started", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("http server failed", zap.Error(err))
	}
	log.Info("dashboard-service stopped")
}
