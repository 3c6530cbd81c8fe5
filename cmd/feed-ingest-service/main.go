package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/feed-ingest/publisher"
	"github.com/kentsang666/football-ai-live/internal/feed-ingest/service"
	"github.com/kentsang666/football-ai-live/internal/shared/config"
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

	log.Info("kafka brokers", zap.String("brokers", cfg.KafkaBrokers))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	snapshots := publisher.NewKafkaPublisher(brokers, cfg.TopicMatchSnapshots, log)
	defer snapshots.Close()
	results := publisher.NewKafkaPublisher(brokers, cfg.TopicMatchResults, log)
	defer results.Close()

	ingestedBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ingest_messages_total", Help: "mensagens ingeridas por tipo"}, []string{"kind"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ingest_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(ingestedBy, errorsBy)

	wsClient := &service.WSClient{
		URL:       cfg.SupplierWSURL,
		Log:       log,
		Snapshots: snapshots,
		Results:   results,

		OnIngested: func(kind string) { ingestedBy.WithLabelValues(kind).Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	go wsClient.Start(ctx)

	srv := metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })
	defer srv.Close()

	log.Info("feed-ingest-service started", zap.String("supplier", cfg.SupplierWSURL))
	<-ctx.Done()
	log.Info("feed-ingest-service stopped")
}
