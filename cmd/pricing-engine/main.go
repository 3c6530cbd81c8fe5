package main

import (
	"context"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/engine"
	"github.com/kentsang666/football-ai-live/internal/guard"
	"github.com/kentsang666/football-ai-live/internal/ledger"
	"github.com/kentsang666/football-ai-live/internal/pricing"
	sharedcache "github.com/kentsang666/football-ai-live/internal/shared/cache"
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

	// Tabelas do modelo (defaults de fábrica + overrides opcionais)
	tables, err := pricing.LoadTables(cfg.TuningFile)
	if err != nil {
		log.Fatal("tuning tables load", zap.Error(err))
	}

	// Ledger de papel: Postgres em produção, memória no modo standalone
	var store ledger.Store
	switch cfg.LedgerDriver {
	case "memory":
		store = ledger.NewMemory(cfg.InitialBankroll, cfg.MinStakeCents)
		log.Info("ledger: in-memory store", zap.Int64("bankroll_cents", cfg.InitialBankroll))
	default:
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		pgStore := ledger.NewPostgres(pg, cfg.MinStakeCents)
		if err := pgStore.Init(ctx, cfg.InitialBankroll); err != nil {
			log.Fatal("ledger init", zap.Error(err))
		}
		store = pgStore
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer do feed e writers dos tópicos de saída
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchSnapshots, "pricing-engine")
	defer reader.Close()

	signalWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPricingSignals)
	defer signalWriter.Close()
	wagerWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlaced)
	defer wagerWriter.Close()

	// Métricas Prometheus do ciclo de pricing
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "engine_snapshots_consumed_total", Help: "snapshots consumidos"})
	priced := prometheus.NewCounter(prometheus.CounterOpts{Name: "engine_fixtures_priced_total", Help: "fixtures precificados"})
	signals := prometheus.NewCounter(prometheus.CounterOpts{Name: "engine_signals_total", Help: "sinais detectados"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{Name: "engine_orders_total", Help: "ordens de papel colocadas"})
	skipsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "engine_skips_total", Help: "fixtures/cotações puladas por motivo"}, []string{"reason"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "engine_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, priced, signals, orders, skipsBy, errorsBy)

	feed := engine.NewKafkaFeed(log, reader)
	feed.OnConsumed = func() { consumed.Inc() }
	feed.OnError = func(stage string) { errorsBy.WithLabelValues(stage).Inc() }

	eng := &engine.Engine{
		Log:      log,
		Guard:    guard.New(cfg.MaxLatency, cfg.FreezeWindow, nil),
		Momentum: pricing.NewMomentumTracker(tables.Pressure),
		Adjuster: pricing.NewAdjuster(tables),
		Ensemble: pricing.NewEnsemble(cfg.MonteCarloTrials, rand.NewSource(time.Now().UnixNano())),

		Evaluator: pricing.SignalEvaluator{
			AHThreshold: cfg.AHEdgeThreshold,
			OUThreshold: cfg.OUEdgeThreshold,
		},
		Staking: pricing.Staking{
			Fraction: cfg.KellyFraction,
			MaxStake: cfg.MaxStakeFraction,
		},
		BlendWeight: cfg.BlendWeight,

		Store: store,

		Cache:     engine.NewPriceCache(redisClient, 2*cfg.PollInterval),
		Broadcast: engine.NewBroadcaster(redisClient),
		Signals:   signalWriter,
		Wagers:    wagerWriter,

		OnPriced: func() { priced.Inc() },
		OnSignal: func() { signals.Inc() },
		OnOrder:  func() { orders.Inc() },
		OnSkip:   func(reason string) { skipsBy.WithLabelValues(reason).Inc() },
		OnError:  func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	srv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		return redisClient.Ping(hctx).Err()
	})
	defer srv.Close()

	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("feed stopped with error", zap.Error(err))
		}
	}()

	log.Info("pricing-engine started",
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Float64("blend_weight", cfg.BlendWeight),
		zap.Int("mc_trials", cfg.MonteCarloTrials))

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("pricing-engine stopped")
			return
		case <-ticker.C:
			eng.RunCycle(ctx, feed.Latest())
		}
	}
}
