package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/engine"
	"github.com/kentsang666/football-ai-live/internal/ledger"
	"github.com/kentsang666/football-ai-live/internal/shared/config"
	"github.com/kentsang666/football-ai-live/internal/shared/db"
	"github.com/kentsang666/football-ai-live/internal/shared/kafka"
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

	// O worker compartilha o ledger Postgres com o pricing-engine
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	store := ledger.NewPostgres(pg, cfg.MinStakeCents)

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchResults, "settlement-worker")
	defer reader.Close()

	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettledDLQ)
	defer dlqWriter.Close()

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_results_consumed_total", Help: "resultados consumidos"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_wagers_settled_total", Help: "wagers liquidados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, errorsBy)

	settler := &engine.Settler{
		Log:    log,
		Reader: reader,
		Store:  store,

		Settled: settledWriter,
		DLQ:     dlqWriter,

		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,

		OnConsumed: func() { consumed.Inc() },
		OnSettled:  func() { settled.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	srv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		return pg.PingContext(hctx)
	})
	defer srv.Close()

	log.Info("settlement-worker started", zap.String("consume", cfg.TopicMatchResults))
	if err := settler.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("settler stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
